package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/infrastructure/metrics"
	"github.com/gravekeeper/core/internal/ports"
)

func newBurialService(policy entities.DecisionPolicy) *BurialRecordService {
	svc := NewBurialRecordService(policy, nil, metrics.New(), logger.NewNop())
	svc.clock = func() time.Time { return june1 }
	return svc
}

func validRecord() ports.CreateBurialRecordRequest {
	return ports.CreateBurialRecordRequest{
		Name:        "John Doe",
		FatherName:  "Richard Doe",
		DateOfDeath: "2024-03-01",
		Gender:      entities.GenderMale,
		Age:         intPtr(72),
		Religion:    "Christian",
		PlotID:      "p1",
		GraveID:     "g1",
	}
}

func updateFrom(id string, req ports.CreateBurialRecordRequest) ports.UpdateBurialRecordRequest {
	return ports.UpdateBurialRecordRequest{
		ID:          id,
		Name:        req.Name,
		FatherName:  req.FatherName,
		DateOfDeath: req.DateOfDeath,
		Gender:      req.Gender,
		Age:         req.Age,
		Religion:    req.Religion,
		PlotID:      req.PlotID,
		GraveID:     req.GraveID,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
}

func TestBurialRecordService_Create(t *testing.T) {
	svc := newBurialService(entities.DecisionPolicyAllowOverride)
	ctx := context.Background()

	req := validRecord()
	req.PhoneNumber = strPtr("  ")
	req.Address = strPtr("12 Elm Street")

	record, err := svc.CreateRecord(ctx, req)
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, entities.BurialRecordPending, record.Status)
	assert.Equal(t, 72, record.Age)
	assert.Nil(t, record.PhoneNumber)
	assert.Equal(t, "12 Elm Street", *record.Address)
	assert.True(t, record.CreatedAt.Equal(june1))

	second := validRecord()
	second.Name = "Jane Doe"
	newer, err := svc.CreateRecord(ctx, second)
	require.NoError(t, err)

	list := svc.ListRecords(ports.BurialRecordFilter{})
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
}

func TestBurialRecordService_Duplicates(t *testing.T) {
	svc := newBurialService(entities.DecisionPolicyAllowOverride)
	ctx := context.Background()

	original, err := svc.CreateRecord(ctx, validRecord())
	require.NoError(t, err)

	t.Run("same identity with different case is rejected", func(t *testing.T) {
		dup := validRecord()
		dup.Name = "JOHN DOE"
		dup.FatherName = "richard doe"

		_, err := svc.CreateRecord(ctx, dup)
		assert.ErrorIs(t, err, entities.ErrDuplicateBurialRecord)
		assert.Len(t, svc.ListRecords(ports.BurialRecordFilter{}), 1)
	})

	t.Run("different date of death is allowed", func(t *testing.T) {
		other := validRecord()
		other.DateOfDeath = "2024-03-02"

		_, err := svc.CreateRecord(ctx, other)
		assert.NoError(t, err)
	})

	t.Run("editing a record without changing its identity passes", func(t *testing.T) {
		req := updateFrom(original.ID, validRecord())
		req.Religion = "Orthodox"

		updated, err := svc.UpdateRecord(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Orthodox", updated.Religion)
	})

	t.Run("editing into another record's identity is rejected", func(t *testing.T) {
		other := validRecord()
		other.Name = "Someone Else"
		created, err := svc.CreateRecord(ctx, other)
		require.NoError(t, err)

		_, err = svc.UpdateRecord(ctx, updateFrom(created.ID, validRecord()))
		assert.ErrorIs(t, err, entities.ErrDuplicateBurialRecord)

		got, _ := svc.GetRecord(created.ID)
		assert.Equal(t, "Someone Else", got.Name)
	})

	t.Run("check duplicate honours exclusion", func(t *testing.T) {
		assert.True(t, svc.CheckDuplicate("john doe", "RICHARD DOE", "2024-03-01", ""))
		assert.False(t, svc.CheckDuplicate("john doe", "RICHARD DOE", "2024-03-01", original.ID))
	})
}

func TestBurialRecordService_Validation(t *testing.T) {
	svc := newBurialService(entities.DecisionPolicyAllowOverride)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*ports.CreateBurialRecordRequest)
		wantErr error
	}{
		{"age -1", func(r *ports.CreateBurialRecordRequest) { r.Age = intPtr(-1) }, entities.ErrAgeOutOfRange},
		{"age 151", func(r *ports.CreateBurialRecordRequest) { r.Age = intPtr(151) }, entities.ErrAgeOutOfRange},
		{"age 0", func(r *ports.CreateBurialRecordRequest) { r.Age = intPtr(0); r.Name = "Infant" }, nil},
		{"age 150", func(r *ports.CreateBurialRecordRequest) { r.Age = intPtr(150); r.Name = "Elder" }, nil},
		{"missing age", func(r *ports.CreateBurialRecordRequest) { r.Age = nil }, entities.ErrMissingRequiredFields},
		{"missing name", func(r *ports.CreateBurialRecordRequest) { r.Name = "" }, entities.ErrMissingRequiredFields},
		{"missing religion", func(r *ports.CreateBurialRecordRequest) { r.Religion = "" }, entities.ErrMissingRequiredFields},
		{"bad date", func(r *ports.CreateBurialRecordRequest) { r.DateOfDeath = "01/03/2024" }, entities.ErrInvalidDate},
		{"bad gender", func(r *ports.CreateBurialRecordRequest) { r.Gender = "other" }, entities.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRecord()
			tt.mutate(&req)

			_, err := svc.CreateRecord(ctx, req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBurialRecordService_Decisions(t *testing.T) {
	ctx := context.Background()

	t.Run("approve then look up by grave", func(t *testing.T) {
		svc := newBurialService(entities.DecisionPolicyAllowOverride)
		record, err := svc.CreateRecord(ctx, validRecord())
		require.NoError(t, err)

		_, err = svc.RecordByGrave("g1")
		assert.ErrorIs(t, err, entities.ErrRecordNotFound)

		approved, err := svc.ApproveRecord(ctx, ports.ApproveBurialRecordRequest{ID: record.ID, ActorID: "1"})
		require.NoError(t, err)
		assert.Equal(t, entities.BurialRecordApproved, approved.Status)
		assert.Equal(t, "1", *approved.ApprovedBy)
		assert.True(t, approved.ApprovedAt.Equal(june1))

		occupant, err := svc.RecordByGrave("g1")
		require.NoError(t, err)
		assert.Equal(t, record.ID, occupant.ID)
	})

	t.Run("allow_override lets a rejection replace an approval", func(t *testing.T) {
		svc := newBurialService(entities.DecisionPolicyAllowOverride)
		record, _ := svc.CreateRecord(ctx, validRecord())

		_, err := svc.ApproveRecord(ctx, ports.ApproveBurialRecordRequest{ID: record.ID, ActorID: "1"})
		require.NoError(t, err)

		rejected, err := svc.RejectRecord(ctx, ports.RejectBurialRecordRequest{ID: record.ID, Reason: "Wrong plot"})
		require.NoError(t, err)
		assert.Equal(t, entities.BurialRecordRejected, rejected.Status)
		assert.Equal(t, "Wrong plot", *rejected.Notes)

		_, err = svc.RecordByGrave("g1")
		assert.ErrorIs(t, err, entities.ErrRecordNotFound)
	})

	t.Run("final policy refuses a second decision", func(t *testing.T) {
		svc := newBurialService(entities.DecisionPolicyFinal)
		record, _ := svc.CreateRecord(ctx, validRecord())

		_, err := svc.RejectRecord(ctx, ports.RejectBurialRecordRequest{ID: record.ID, Reason: "Incomplete"})
		require.NoError(t, err)

		_, err = svc.ApproveRecord(ctx, ports.ApproveBurialRecordRequest{ID: record.ID, ActorID: "1"})
		assert.ErrorIs(t, err, entities.ErrRecordAlreadyDecided)

		got, _ := svc.GetRecord(record.ID)
		assert.Equal(t, entities.BurialRecordRejected, got.Status)
	})

	t.Run("unknown ids", func(t *testing.T) {
		svc := newBurialService(entities.DecisionPolicyAllowOverride)

		_, err := svc.ApproveRecord(ctx, ports.ApproveBurialRecordRequest{ID: "missing", ActorID: "1"})
		assert.ErrorIs(t, err, entities.ErrRecordNotFound)
		assert.ErrorIs(t, svc.DeleteRecord(ctx, "missing"), entities.ErrRecordNotFound)

		_, err = svc.UpdateRecord(ctx, updateFrom("missing", validRecord()))
		assert.ErrorIs(t, err, entities.ErrRecordNotFound)
	})
}

func TestBurialRecordService_ListAndDelete(t *testing.T) {
	svc := newBurialService(entities.DecisionPolicyAllowOverride)
	ctx := context.Background()

	a, _ := svc.CreateRecord(ctx, validRecord())
	other := validRecord()
	other.Name = "Mary Major"
	other.GraveID = "g2"
	b, _ := svc.CreateRecord(ctx, other)
	_, _ = svc.ApproveRecord(ctx, ports.ApproveBurialRecordRequest{ID: b.ID, ActorID: "1"})

	assert.Len(t, svc.ListRecords(ports.BurialRecordFilter{Status: entities.BurialRecordApproved}), 1)
	assert.Len(t, svc.ListRecords(ports.BurialRecordFilter{GraveID: "g1"}), 1)
	assert.Len(t, svc.ListRecords(ports.BurialRecordFilter{Search: "major"}), 1)
	assert.Len(t, svc.ListRecords(ports.BurialRecordFilter{PlotID: "p1"}), 2)

	require.NoError(t, svc.DeleteRecord(ctx, a.ID))
	_, err := svc.GetRecord(a.ID)
	assert.ErrorIs(t, err, entities.ErrRecordNotFound)
	assert.False(t, svc.CheckDuplicate("John Doe", "Richard Doe", "2024-03-01", ""))
}
