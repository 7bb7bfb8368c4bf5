package entities

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type BurialRecordStatus string

const (
	BurialRecordPending  BurialRecordStatus = "pending"
	BurialRecordApproved BurialRecordStatus = "approved"
	BurialRecordRejected BurialRecordStatus = "rejected"
)

// DecisionPolicy controls whether an approved or rejected record may be decided again.
type DecisionPolicy string

const (
	DecisionPolicyAllowOverride DecisionPolicy = "allow_override"
	DecisionPolicyFinal         DecisionPolicy = "final"
)

const (
	MinAge = 0
	MaxAge = 150
)

// BurialRecord represents a registered interment in a single grave
type BurialRecord struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	FatherName  string             `json:"fatherName"`
	DateOfDeath Date               `json:"dateOfDeath"`
	Gender      Gender             `json:"gender"`
	Age         int                `json:"age"`
	Religion    string             `json:"religion"`
	PlotID      string             `json:"plotId"`
	GraveID     string             `json:"graveId"`
	Status      BurialRecordStatus `json:"status"`
	PhoneNumber *string            `json:"phoneNumber,omitempty"`
	Address     *string            `json:"address,omitempty"`
	ApprovedBy  *string            `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time         `json:"approvedAt,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// SameIdentity reports whether the record names the same deceased person:
// name and father's name compared case-insensitively, date of death exactly.
func (r *BurialRecord) SameIdentity(name, fatherName string, dateOfDeath Date) bool {
	return strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(name)) &&
		strings.EqualFold(strings.TrimSpace(r.FatherName), strings.TrimSpace(fatherName)) &&
		r.DateOfDeath == dateOfDeath
}

func (r *BurialRecord) IsDecided() bool {
	return r.Status == BurialRecordApproved || r.Status == BurialRecordRejected
}

func (r *BurialRecord) Approve(actorID string, now time.Time, policy DecisionPolicy) error {
	if policy == DecisionPolicyFinal && r.IsDecided() {
		return ErrRecordAlreadyDecided
	}
	at := now
	r.Status = BurialRecordApproved
	r.ApprovedBy = &actorID
	r.ApprovedAt = &at
	r.UpdatedAt = now
	return nil
}

func (r *BurialRecord) Reject(reason string, now time.Time, policy DecisionPolicy) error {
	if policy == DecisionPolicyFinal && r.IsDecided() {
		return ErrRecordAlreadyDecided
	}
	r.Status = BurialRecordRejected
	r.Notes = nil
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		r.Notes = &trimmed
	}
	r.UpdatedAt = now
	return nil
}

// Matches reports whether query occurs in the name or father's name, ignoring case.
func (r *BurialRecord) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.FatherName), q)
}

func (r *BurialRecord) Clone() *BurialRecord {
	c := *r
	c.PhoneNumber = cloneString(r.PhoneNumber)
	c.Address = cloneString(r.Address)
	c.ApprovedBy = cloneString(r.ApprovedBy)
	c.Notes = cloneString(r.Notes)
	if r.ApprovedAt != nil {
		at := *r.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}

// ValidateAge rejects ages outside 0..150 inclusive.
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return ErrAgeOutOfRange
	}
	return nil
}

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

func (s BurialRecordStatus) IsValid() bool {
	switch s {
	case BurialRecordPending, BurialRecordApproved, BurialRecordRejected:
		return true
	default:
		return false
	}
}

func (p DecisionPolicy) IsValid() bool {
	return p == DecisionPolicyAllowOverride || p == DecisionPolicyFinal
}
