package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/infrastructure/metrics"
	"github.com/gravekeeper/core/internal/ports"
)

// BurialRecordService handles burial record operations. Records live in memory only.
type BurialRecordService struct {
	mu      sync.RWMutex
	records []*entities.BurialRecord

	policy    entities.DecisionPolicy
	inventory ports.GraveInventory
	metrics   *metrics.Metrics
	logger    *logger.Logger
	clock     func() time.Time
}

// NewBurialRecordService creates a new burial record service
func NewBurialRecordService(policy entities.DecisionPolicy, inventory ports.GraveInventory, m *metrics.Metrics, logger *logger.Logger) *BurialRecordService {
	if !policy.IsValid() {
		policy = entities.DecisionPolicyAllowOverride
	}
	return &BurialRecordService{
		records:   []*entities.BurialRecord{},
		policy:    policy,
		inventory: inventory,
		metrics:   m,
		logger:    logger.WithComponent("burial_records"),
		clock:     time.Now,
	}
}

// CreateRecord validates the request, rejects duplicates and prepends a pending record
func (s *BurialRecordService) CreateRecord(ctx context.Context, req ports.CreateBurialRecordRequest) (*entities.BurialRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkPlacement(ctx, s.inventory, req.PlotID, req.GraveID); err != nil {
		return nil, err
	}

	now := s.clock()
	record := &entities.BurialRecord{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		FatherName:  strings.TrimSpace(req.FatherName),
		DateOfDeath: req.DateOfDeath,
		Gender:      req.Gender,
		Age:         *req.Age,
		Religion:    strings.TrimSpace(req.Religion),
		PlotID:      req.PlotID,
		GraveID:     req.GraveID,
		Status:      entities.BurialRecordPending,
		PhoneNumber: optionalString(req.PhoneNumber),
		Address:     optionalString(req.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the write lock so concurrent creates cannot both pass
	if s.duplicateLocked(record.Name, record.FatherName, record.DateOfDeath, "") {
		return nil, entities.ErrDuplicateBurialRecord
	}

	s.records = append([]*entities.BurialRecord{record}, s.records...)
	s.refreshGaugesLocked()

	s.logger.Infow("Burial record created", "record_id", record.ID, "grave_id", record.GraveID)
	return record.Clone(), nil
}

// UpdateRecord replaces the editable fields of a record. The duplicate check ignores the record itself.
func (s *BurialRecordService) UpdateRecord(ctx context.Context, req ports.UpdateBurialRecordRequest) (*entities.BurialRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkPlacement(ctx, s.inventory, req.PlotID, req.GraveID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(req.ID)
	if idx < 0 {
		return nil, fmt.Errorf("update burial record %s: %w", req.ID, entities.ErrRecordNotFound)
	}

	name, fatherName := strings.TrimSpace(req.Name), strings.TrimSpace(req.FatherName)
	if s.duplicateLocked(name, fatherName, req.DateOfDeath, req.ID) {
		return nil, entities.ErrDuplicateBurialRecord
	}

	record := s.records[idx].Clone()
	record.Name = name
	record.FatherName = fatherName
	record.DateOfDeath = req.DateOfDeath
	record.Gender = req.Gender
	record.Age = *req.Age
	record.Religion = strings.TrimSpace(req.Religion)
	record.PlotID = req.PlotID
	record.GraveID = req.GraveID
	record.PhoneNumber = optionalString(req.PhoneNumber)
	record.Address = optionalString(req.Address)
	record.UpdatedAt = s.clock()
	s.records[idx] = record

	s.logger.Infow("Burial record updated", "record_id", record.ID)
	return record.Clone(), nil
}

// DeleteRecord removes a record
func (s *BurialRecordService) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("delete burial record %s: %w", id, entities.ErrRecordNotFound)
	}

	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.refreshGaugesLocked()

	s.logger.Infow("Burial record deleted", "record_id", id)
	return nil
}

// ApproveRecord marks a record approved by the acting user
func (s *BurialRecordService) ApproveRecord(ctx context.Context, req ports.ApproveBurialRecordRequest) (*entities.BurialRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	record, err := s.decide(req.ID, func(r *entities.BurialRecord, now time.Time) error {
		return r.Approve(req.ActorID, now, s.policy)
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogUserAction(req.ActorID, "burial_record_approved", map[string]interface{}{"record_id": req.ID})
	return record, nil
}

// RejectRecord marks a record rejected and keeps the reason in its notes
func (s *BurialRecordService) RejectRecord(ctx context.Context, req ports.RejectBurialRecordRequest) (*entities.BurialRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	record, err := s.decide(req.ID, func(r *entities.BurialRecord, now time.Time) error {
		return r.Reject(req.Reason, now, s.policy)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Burial record rejected", "record_id", req.ID)
	return record, nil
}

// GetRecord retrieves a record by ID
func (s *BurialRecordService) GetRecord(id string) (*entities.BurialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("get burial record %s: %w", id, entities.ErrRecordNotFound)
	}
	return s.records[idx].Clone(), nil
}

func (s *BurialRecordService) ListRecords(filter ports.BurialRecordFilter) []*entities.BurialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entities.BurialRecord{}
	for _, r := range s.records {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.PlotID != "" && r.PlotID != filter.PlotID {
			continue
		}
		if filter.GraveID != "" && r.GraveID != filter.GraveID {
			continue
		}
		if !r.Matches(filter.Search) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// CheckDuplicate reports whether another record has the same name, father's name
// and date of death. Names compare case-insensitively; excludeID is ignored.
func (s *BurialRecordService) CheckDuplicate(name, fatherName string, dateOfDeath entities.Date, excludeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duplicateLocked(name, fatherName, dateOfDeath, excludeID)
}

// RecordByGrave returns the approved record occupying graveID
func (s *BurialRecordService) RecordByGrave(graveID string) (*entities.BurialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.GraveID == graveID && r.Status == entities.BurialRecordApproved {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("grave %s: %w", graveID, entities.ErrRecordNotFound)
}

func (s *BurialRecordService) decide(id string, fn func(*entities.BurialRecord, time.Time) error) (*entities.BurialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("burial record %s: %w", id, entities.ErrRecordNotFound)
	}

	record := s.records[idx].Clone()
	if err := fn(record, s.clock()); err != nil {
		return nil, fmt.Errorf("burial record %s: %w", id, err)
	}
	s.records[idx] = record
	s.refreshGaugesLocked()
	return record.Clone(), nil
}

func (s *BurialRecordService) duplicateLocked(name, fatherName string, dateOfDeath entities.Date, excludeID string) bool {
	for _, r := range s.records {
		if r.ID != excludeID && r.SameIdentity(name, fatherName, dateOfDeath) {
			return true
		}
	}
	return false
}

func (s *BurialRecordService) indexLocked(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *BurialRecordService) refreshGaugesLocked() {
	if s.metrics == nil {
		return
	}
	counts := map[string]int{
		string(entities.BurialRecordPending):  0,
		string(entities.BurialRecordApproved): 0,
		string(entities.BurialRecordRejected): 0,
	}
	for _, r := range s.records {
		counts[string(r.Status)]++
	}
	s.metrics.SetBurialRecordCounts(counts)
}
