package interfaces

import (
	"context"
	"iter"

	"github.com/physiocare/clinic/pkg/types"
)

// SchedulingService defines the clinic's appointment scheduling operations
type SchedulingService interface {
	// Calendar
	BookableDates() iter.Seq[types.BookableDate]
	SlotsForDate(date string) ([]string, error)
	AvailableSlots(ctx context.Context, date string) ([]types.SlotAvailability, error)
	IsSlotBooked(ctx context.Context, date, timeSlot string) (bool, error)

	// Appointment lifecycle
	CreateAppointment(ctx context.Context, actor *types.Actor, req *types.AppointmentRequest) (*types.Appointment, error)
	ApproveAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error)
	DeclineAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error)
	CompleteAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error)
	GetAppointment(ctx context.Context, appointmentID string) (*types.Appointment, error)
	ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error)
	RequestAppointment(ctx context.Context, actor *types.Actor) error

	// Patients
	ListPatients(ctx context.Context) ([]*types.Patient, error)
	GetPatient(ctx context.Context, patientID string) (*types.Patient, error)
	PatientsAssignedTo(ctx context.Context, physiotherapistID string) ([]*types.Patient, error)
	UpdatePatient(ctx context.Context, actor *types.Actor, patient *types.Patient) error
	UpdatePatientProgram(ctx context.Context, actor *types.Actor, patientID string, homeProgram, comments string) (*types.Patient, error)

	// Physiotherapists
	ListPhysiotherapists(ctx context.Context) ([]*types.Physiotherapist, error)
	AddPhysiotherapist(ctx context.Context, actor *types.Actor, physio *types.Physiotherapist) (*types.Physiotherapist, error)
	RemovePhysiotherapist(ctx context.Context, actor *types.Actor, physiotherapistID string) error

	// Display name resolution
	PatientName(ctx context.Context, patientID string) string
	PhysiotherapistName(ctx context.Context, physiotherapistID string) string
	AssignedPhysiotherapistName(ctx context.Context, patientID string) string

	// Notifications
	Notifications(ctx context.Context, actor *types.Actor) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, actor *types.Actor, notificationID string) error

	// Service management
	Start(addr string) error
	Stop(ctx context.Context) error
}

// PatientRepository stores patient records
type PatientRepository interface {
	ListPatients(ctx context.Context) ([]*types.Patient, error)
	GetPatient(ctx context.Context, id string) (*types.Patient, error)
	ReplacePatient(ctx context.Context, patient *types.Patient) error
}

// PhysiotherapistRepository stores clinician records
type PhysiotherapistRepository interface {
	ListPhysiotherapists(ctx context.Context) ([]*types.Physiotherapist, error)
	GetPhysiotherapist(ctx context.Context, id string) (*types.Physiotherapist, error)
	CreatePhysiotherapist(ctx context.Context, physio *types.Physiotherapist) error
	DeletePhysiotherapist(ctx context.Context, id string) error
}

// AppointmentRepository stores appointments
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, apt *types.Appointment) error
	GetAppointment(ctx context.Context, id string) (*types.Appointment, error)
	UpdateAppointment(ctx context.Context, apt *types.Appointment) error
	ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error)
	FindSlotHolders(ctx context.Context, date, timeSlot string) ([]*types.Appointment, error)
}

// NotificationRepository stores the append-only notification log
type NotificationRepository interface {
	AppendNotification(ctx context.Context, n *types.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*types.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// ClinicRepository aggregates every store the scheduler needs
type ClinicRepository interface {
	PatientRepository
	PhysiotherapistRepository
	AppointmentRepository
	NotificationRepository
	Ping(ctx context.Context) error
}

// Notifier delivers notification records produced by lifecycle transitions
type Notifier interface {
	Notify(ctx context.Context, userID string, notificationType types.NotificationType, message string) (*types.Notification, error)
}
