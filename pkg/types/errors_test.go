package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClinicError_Classification(t *testing.T) {
	conflict := NewConflictError(ErrCodeSlotUnavailable, "slot taken", nil)
	wrapped := fmt.Errorf("create appointment: %w", conflict)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrorTypeConflict, ErrorTypeOf(wrapped))
	assert.Equal(t, ErrorTypeInternal, ErrorTypeOf(errors.New("boom")))
}

func TestClinicError_MessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(ErrCodeInternalError, "query failed", cause)

	assert.Equal(t, "INTERNAL_ERROR: query failed (caused by: connection reset)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOT_FOUND: missing", NewNotFoundError(ErrCodeNotFound, "missing").Error())
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		ok   bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusDeclined, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusDeclined, false},
		{StatusDeclined, StatusApproved, false},
		{StatusCompleted, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusPending.HoldsSlot())
	assert.True(t, StatusApproved.HoldsSlot())
	assert.False(t, StatusDeclined.HoldsSlot())
	assert.False(t, StatusCompleted.HoldsSlot())
}

func TestAppointmentFilters_Matches(t *testing.T) {
	apt := &Appointment{PatientID: "1", PhysiotherapistID: "2", Date: "2025-03-10", Status: StatusPending}

	var nilFilter *AppointmentFilters
	assert.True(t, nilFilter.Matches(apt))
	assert.True(t, (&AppointmentFilters{PhysiotherapistID: "2", Status: StatusPending}).Matches(apt))
	assert.False(t, (&AppointmentFilters{Date: "2025-03-11"}).Matches(apt))
	assert.False(t, (&AppointmentFilters{PatientID: "9"}).Matches(apt))
}
