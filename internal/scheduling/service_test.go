package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/physiocare/clinic/pkg/config"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/repository"
	"github.com/physiocare/clinic/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testDate       = "2025-03-10"
	testSlot       = "9:00 AM - 10:30 AM"
	receptionInbox = "reception@clinic.com"
)

var (
	receptionist = &types.Actor{ID: "7", Name: "Mary Reception", Role: types.RoleReceptionist}
	admin        = &types.Actor{ID: "1", Name: "Admin", Role: types.RoleAdmin}
	mikeJohnson  = &types.Actor{ID: "3", Name: "Dr. Mike Johnson", Role: types.RolePhysiotherapist}
	sarahWilson  = &types.Actor{ID: "2", Name: "Dr. Sarah Wilson", Role: types.RolePhysiotherapist}
	sarahPatient = &types.Actor{ID: "2", Name: "Sarah Williams", Role: types.RolePatient}
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, notificationType types.NotificationType, message string) (*types.Notification, error) {
	args := m.Called(ctx, userID, notificationType, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Notification), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: 5, WriteTimeout: 5, IdleTimeout: 5},
		Database: config.DatabaseConfig{
			Driver: config.DriverMemory,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			Issuer:    "physio-clinic",
			TokenTTL:  3600,
		},
		Clinic: testClinicConfig(),
		Monitoring: config.MonitoringConfig{
			MetricsEnabled: true,
			MetricsPath:    "/metrics",
			ServiceName:    "scheduling-service",
		},
		LogLevel: "error",
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *repository.MemoryRepository) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	require.NoError(t, repository.Seed(context.Background(), repo))

	var seq atomic.Int64
	base := []Option{
		WithClock(func() time.Time { return time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	}

	svc, err := New(testConfig(), logger.Discard(), repo, append(base, opts...)...)
	require.NoError(t, err)
	return svc, repo
}

func bookingRequest() *types.AppointmentRequest {
	return &types.AppointmentRequest{
		PatientID:         "2",
		PhysiotherapistID: "3",
		Date:              testDate,
		TimeSlot:          testSlot,
	}
}

func TestService_CreateAppointment(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, apt.Status)
	assert.Equal(t, "2", apt.PatientID)
	assert.Equal(t, "3", apt.PhysiotherapistID)
	assert.Nil(t, apt.ApprovedAt)

	stored, err := repo.GetAppointment(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, stored.Status)

	booked, err := svc.IsSlotBooked(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.True(t, booked)

	inbox, err := repo.ListNotifications(ctx, "3")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, types.NotificationAppointmentRequested, inbox[0].Type)
	assert.Equal(t,
		"New appointment scheduled for Sarah Williams on 3/10/2025 at 9:00 AM - 10:30 AM. Please review and approve.",
		inbox[0].Message)
	assert.False(t, inbox[0].Read)
}

func TestService_CreateAppointment_SlotTaken(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	_, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	req := bookingRequest()
	req.PatientID = "3"
	req.PhysiotherapistID = "4"
	_, err = svc.CreateAppointment(ctx, receptionist, req)
	require.Error(t, err)
	assert.True(t, types.IsConflict(err))

	var ce *types.ClinicError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.ErrCodeSlotUnavailable, ce.Code)
	assert.Equal(t, "This time slot is already booked.", ce.Message)

	// no record and no notification for the rejected booking
	held, err := repo.FindSlotHolders(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.Len(t, held, 1)

	inbox, err := repo.ListNotifications(ctx, "4")
	require.NoError(t, err)
	assert.Empty(t, inbox)
}

func TestService_CreateAppointment_ConcurrentBookings(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
			switch {
			case err == nil:
				successes.Add(1)
			case types.IsConflict(err):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), conflicts.Load())

	held, err := repo.FindSlotHolders(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestService_CreateAppointment_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*types.AppointmentRequest)
	}{
		{name: "missing patient", mutate: func(r *types.AppointmentRequest) { r.PatientID = "" }},
		{name: "missing slot", mutate: func(r *types.AppointmentRequest) { r.TimeSlot = "" }},
		{name: "malformed date", mutate: func(r *types.AppointmentRequest) { r.Date = "10/03/2025" }},
		{name: "sunday", mutate: func(r *types.AppointmentRequest) { r.Date = "2025-03-16" }},
		{name: "saturday afternoon", mutate: func(r *types.AppointmentRequest) {
			r.Date = "2025-03-15"
			r.TimeSlot = "2:00 PM - 3:30 PM"
		}},
		{name: "break window", mutate: func(r *types.AppointmentRequest) { r.TimeSlot = BreakLabel }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingRequest()
			tt.mutate(req)

			_, err := svc.CreateAppointment(ctx, receptionist, req)
			require.Error(t, err)
			assert.True(t, types.IsValidation(err), "got %v", err)
		})
	}
}

func TestService_CreateAppointment_ValidationDetails(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAppointment(context.Background(), receptionist, &types.AppointmentRequest{Date: testDate})
	require.Error(t, err)

	var ce *types.ClinicError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "required", ce.Details["patient_id"])
	assert.Equal(t, "required", ce.Details["physiotherapist_id"])
	assert.Equal(t, "required", ce.Details["time_slot"])
}

func TestService_CreateAppointment_Roles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateAppointment(ctx, mikeJohnson, bookingRequest())
	assert.True(t, types.IsAuthorization(err))

	_, err = svc.CreateAppointment(ctx, nil, bookingRequest())
	assert.Equal(t, types.ErrorTypeAuthentication, types.ErrorTypeOf(err))

	_, err = svc.CreateAppointment(ctx, admin, bookingRequest())
	assert.NoError(t, err)
}

func TestService_CreateAppointment_NotificationFailureKeepsBooking(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, "3", types.NotificationAppointmentRequested, mock.AnythingOfType("string")).
		Return(nil, errors.New("inbox unavailable"))

	svc, _ := newTestService(t, WithNotifier(notifier))

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, apt.Status)
	notifier.AssertExpectations(t)
}

func TestService_ApproveAppointment(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	approved, err := svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, time.Date(2025, 3, 8, 9, 30, 0, 0, time.UTC), *approved.ApprovedAt)

	patientInbox, err := repo.ListNotifications(ctx, "2")
	require.NoError(t, err)
	require.Len(t, patientInbox, 1)
	assert.Equal(t, types.NotificationAppointmentApproved, patientInbox[0].Type)
	assert.Equal(t, "Your appointment on 2025-03-10 at 9:00 AM - 10:30 AM has been approved.", patientInbox[0].Message)
	assert.NotContains(t, patientInbox[0].Message, "Mike Johnson")

	reception, err := repo.ListNotifications(ctx, receptionInbox)
	require.NoError(t, err)
	require.Len(t, reception, 1)
	assert.Equal(t, "Dr. Mike Johnson approved appointment for patient on 2025-03-10 at 9:00 AM - 10:30 AM.", reception[0].Message)

	// still holds the slot once approved
	booked, err := svc.IsSlotBooked(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.True(t, booked)
}

func TestService_ApproveAppointment_NotifiesPatientBeforeReception(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&types.Notification{}, nil)

	svc, _ := newTestService(t, WithNotifier(notifier))

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)
	_, err = svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)

	require.Len(t, notifier.Calls, 3)
	assert.Equal(t, "3", notifier.Calls[0].Arguments.String(1))
	assert.Equal(t, "2", notifier.Calls[1].Arguments.String(1))
	assert.Equal(t, receptionInbox, notifier.Calls[2].Arguments.String(1))
	assert.Equal(t, types.NotificationAppointmentApproved, notifier.Calls[2].Arguments.Get(2))
}

func TestService_ApproveAppointment_FallsBackToCallerName(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)
	require.NoError(t, repo.DeletePhysiotherapist(ctx, "3"))

	caller := &types.Actor{ID: "3", Name: "Mike Johnson", Role: types.RolePhysiotherapist}
	_, err = svc.ApproveAppointment(ctx, caller, apt.ID)
	require.NoError(t, err)

	reception, err := repo.ListNotifications(ctx, receptionInbox)
	require.NoError(t, err)
	require.Len(t, reception, 1)
	assert.Contains(t, reception[0].Message, "Dr. Mike Johnson approved")
}

func TestService_ApproveAppointment_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	_, err = svc.ApproveAppointment(ctx, sarahWilson, apt.ID)
	assert.True(t, types.IsAuthorization(err), "another physiotherapist")

	_, err = svc.ApproveAppointment(ctx, receptionist, apt.ID)
	assert.True(t, types.IsAuthorization(err), "receptionist")

	_, err = svc.ApproveAppointment(ctx, mikeJohnson, "missing")
	assert.True(t, types.IsNotFound(err))

	stored, err := repo.GetAppointment(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, stored.Status)

	inbox, err := repo.ListNotifications(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, inbox)

	_, err = svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)

	_, err = svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.Error(t, err)
	var ce *types.ClinicError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.ErrCodeInvalidTransition, ce.Code)
}

func TestService_DeclineAppointment_ReleasesSlot(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	declined, err := svc.DeclineAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeclined, declined.Status)
	assert.Nil(t, declined.ApprovedAt)

	booked, err := svc.IsSlotBooked(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, booked)

	patientInbox, err := repo.ListNotifications(ctx, "2")
	require.NoError(t, err)
	require.Len(t, patientInbox, 1)
	assert.Equal(t, types.NotificationAppointmentDeclined, patientInbox[0].Type)
	assert.Equal(t, "Your appointment on 2025-03-10 at 9:00 AM - 10:30 AM has been declined.", patientInbox[0].Message)

	_, err = svc.CreateAppointment(ctx, receptionist, bookingRequest())
	assert.NoError(t, err)
}

func TestService_CompleteAppointment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	_, err = svc.CompleteAppointment(ctx, mikeJohnson, apt.ID)
	assert.True(t, types.IsValidation(err), "pending appointments cannot complete")

	_, err = svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)

	completed, err := svc.CompleteAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, completed.Status)

	booked, err := svc.IsSlotBooked(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestService_AvailableSlots(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, slots, 5)
	for _, slot := range slots {
		assert.Equal(t, slot.TimeSlot == testSlot, slot.Booked, slot.TimeSlot)
	}

	sunday, err := svc.AvailableSlots(ctx, "2025-03-16")
	require.NoError(t, err)
	assert.Empty(t, sunday)
}

func TestService_IsSlotBooked_IgnoresClosedAppointments(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	for i, status := range []types.AppointmentStatus{types.StatusDeclined, types.StatusCompleted} {
		require.NoError(t, repo.CreateAppointment(ctx, &types.Appointment{
			ID:                fmt.Sprintf("closed-%d", i),
			PatientID:         "1",
			PhysiotherapistID: "2",
			Date:              testDate,
			TimeSlot:          testSlot,
			Status:            status,
		}))
	}

	booked, err := svc.IsSlotBooked(ctx, testDate, testSlot)
	require.NoError(t, err)
	assert.False(t, booked)

	booked, err = svc.IsSlotBooked(ctx, "2024-01-15", testSlot)
	require.NoError(t, err)
	assert.True(t, booked, "seeded approved appointment")
}

func TestService_UpdatePatient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	replacement := &types.Patient{
		ID:          "1",
		Name:        "John Patient",
		Sex:         "Male",
		DateOfBirth: "1985-05-15",
		Age:         40,
		PhoneNumber: "+1234567890",
		Complaint:   "Lower back pain, improving",
	}
	require.NoError(t, svc.UpdatePatient(ctx, sarahWilson, replacement))

	stored, err := svc.GetPatient(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Age)
	assert.Nil(t, stored.HomeProgram, "replacement drops fields it leaves unset")
	assert.Nil(t, stored.AssignedPhysiotherapist)

	err = svc.UpdatePatient(ctx, sarahWilson, &types.Patient{ID: "404", Name: "Nobody"})
	assert.True(t, types.IsNotFound(err))

	err = svc.UpdatePatient(ctx, receptionist, replacement)
	assert.True(t, types.IsAuthorization(err))

	err = svc.UpdatePatient(ctx, sarahWilson, &types.Patient{ID: "1"})
	assert.True(t, types.IsValidation(err))
}

func TestService_UpdatePatientProgram(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	patient, err := svc.UpdatePatientProgram(ctx, mikeJohnson, "2", "Shoulder mobility twice daily", "")
	require.NoError(t, err)
	require.NotNil(t, patient.HomeProgram)
	assert.Equal(t, "Shoulder mobility twice daily", *patient.HomeProgram)
	assert.Nil(t, patient.Comments)
	assert.Equal(t, "3", *patient.AssignedPhysiotherapist)

	_, err = svc.UpdatePatientProgram(ctx, mikeJohnson, "404", "x", "y")
	assert.True(t, types.IsNotFound(err))
}

func TestService_PatientsAssignedTo(t *testing.T) {
	svc, _ := newTestService(t)

	patients, err := svc.PatientsAssignedTo(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Sarah Williams", patients[0].Name)

	none, err := svc.PatientsAssignedTo(context.Background(), "6")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_DisplayNames(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	assert.Equal(t, "Sarah Williams", svc.PatientName(ctx, "2"))
	assert.Equal(t, "Unknown", svc.PatientName(ctx, "99"))
	assert.Equal(t, "Dr. Mike Johnson", svc.PhysiotherapistName(ctx, "3"))
	assert.Equal(t, "Unknown", svc.PhysiotherapistName(ctx, "99"))
	assert.Equal(t, "Dr. Mike Johnson", svc.AssignedPhysiotherapistName(ctx, "2"))

	require.NoError(t, repo.AddPatient(ctx, &types.Patient{ID: "10", Name: "Walk In"}))
	assert.Equal(t, "Unassigned", svc.AssignedPhysiotherapistName(ctx, "10"))
}

func TestService_Physiotherapists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	specialization := ""
	created, err := svc.AddPhysiotherapist(ctx, admin, &types.Physiotherapist{
		Name:           "Dr. Ana Costa",
		Email:          "physio6@clinic.com",
		Specialization: &specialization,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Nil(t, created.Specialization)

	_, err = svc.AddPhysiotherapist(ctx, admin, &types.Physiotherapist{Name: "No Email"})
	assert.True(t, types.IsValidation(err))

	_, err = svc.AddPhysiotherapist(ctx, receptionist, &types.Physiotherapist{Name: "X", Email: "x@clinic.com"})
	assert.True(t, types.IsAuthorization(err))

	physios, err := svc.ListPhysiotherapists(ctx)
	require.NoError(t, err)
	assert.Len(t, physios, 6)

	require.NoError(t, svc.RemovePhysiotherapist(ctx, admin, created.ID))
	assert.True(t, types.IsNotFound(svc.RemovePhysiotherapist(ctx, admin, created.ID)))
}

func TestService_RequestAppointment(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	require.NoError(t, svc.RequestAppointment(ctx, sarahPatient))

	reception, err := repo.ListNotifications(ctx, receptionInbox)
	require.NoError(t, err)
	require.Len(t, reception, 1)
	assert.Equal(t, types.NotificationAppointmentRequested, reception[0].Type)
	assert.Equal(t, "Sarah Williams has requested a new appointment", reception[0].Message)

	assert.True(t, types.IsAuthorization(svc.RequestAppointment(ctx, receptionist)))
}

func TestService_Notifications(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	apt, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)
	_, err = svc.ApproveAppointment(ctx, mikeJohnson, apt.ID)
	require.NoError(t, err)

	// receptionists read the shared reception inbox
	desk, err := svc.Notifications(ctx, receptionist)
	require.NoError(t, err)
	require.Len(t, desk, 1)
	assert.Equal(t, receptionInbox, desk[0].UserID)

	mine, err := svc.Notifications(ctx, mikeJohnson)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, svc.MarkNotificationRead(ctx, mikeJohnson, mine[0].ID))
	mine, err = svc.Notifications(ctx, mikeJohnson)
	require.NoError(t, err)
	assert.True(t, mine[0].Read)

	// a notification addressed to someone else is not found for this caller
	assert.True(t, types.IsNotFound(svc.MarkNotificationRead(ctx, sarahWilson, desk[0].ID)))
}

func TestService_ListAppointments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateAppointment(ctx, receptionist, bookingRequest())
	require.NoError(t, err)

	all, err := svc.ListAppointments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "2024-01-15", all[0].Date)

	pending, err := svc.ListAppointments(ctx, &types.AppointmentFilters{Status: types.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, testDate, pending[0].Date)

	_, err = svc.ListAppointments(ctx, &types.AppointmentFilters{Status: "cancelled"})
	assert.True(t, types.IsValidation(err))
}
