package types

import "time"

// DateLayout is the calendar date format used for appointment dates
const DateLayout = "2006-01-02"

// UserRole represents the roles that can use the clinic
type UserRole string

const (
	RolePatient         UserRole = "patient"
	RolePhysiotherapist UserRole = "physiotherapist"
	RoleReceptionist    UserRole = "receptionist"
	RoleAdmin           UserRole = "admin"
)

// Valid reports whether the role is one the clinic knows about
func (r UserRole) Valid() bool {
	switch r {
	case RolePatient, RolePhysiotherapist, RoleReceptionist, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a scheduling operation
type Actor struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// Patient represents a clinic patient record
type Patient struct {
	ID                      string  `json:"id" db:"id"`
	Name                    string  `json:"name" db:"name" validate:"required"`
	Sex                     string  `json:"sex" db:"sex" validate:"omitempty,oneof=Male Female Other"`
	DateOfBirth             string  `json:"date_of_birth" db:"date_of_birth"`
	Age                     int     `json:"age" db:"age"`
	PhoneNumber             string  `json:"phone_number" db:"phone_number"`
	Complaint               string  `json:"complaint" db:"complaint"`
	HomeProgram             *string `json:"home_program,omitempty" db:"home_program"`
	Comments                *string `json:"comments,omitempty" db:"comments"`
	AssignedPhysiotherapist *string `json:"assigned_physiotherapist,omitempty" db:"assigned_physiotherapist"`
}

// Physiotherapist represents a treating clinician
type Physiotherapist struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name" validate:"required"`
	Email          string  `json:"email" db:"email" validate:"required,email"`
	Specialization *string `json:"specialization,omitempty" db:"specialization"`
}

// AppointmentStatus represents appointment status values
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusDeclined  AppointmentStatus = "declined"
	StatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether the status is a known appointment status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCompleted:
		return true
	}
	return false
}

// HoldsSlot reports whether an appointment in this status occupies its slot
func (s AppointmentStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo reports whether the state machine allows moving to next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusDeclined
	case StatusApproved:
		return next == StatusCompleted
	}
	return false
}

// Appointment represents a booked treatment slot
type Appointment struct {
	ID                string            `json:"id" db:"id"`
	PatientID         string            `json:"patient_id" db:"patient_id"`
	PhysiotherapistID string            `json:"physiotherapist_id" db:"physiotherapist_id"`
	Date              string            `json:"date" db:"date"`
	TimeSlot          string            `json:"time_slot" db:"time_slot"`
	Status            AppointmentStatus `json:"status" db:"status"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty" db:"approved_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// AppointmentRequest carries the fields a receptionist supplies when booking
type AppointmentRequest struct {
	PatientID         string `json:"patient_id" validate:"required"`
	PhysiotherapistID string `json:"physiotherapist_id" validate:"required"`
	Date              string `json:"date" validate:"required"`
	TimeSlot          string `json:"time_slot" validate:"required"`
}

// AppointmentFilters narrows appointment queries
type AppointmentFilters struct {
	PatientID         string            `json:"patient_id,omitempty"`
	PhysiotherapistID string            `json:"physiotherapist_id,omitempty"`
	Status            AppointmentStatus `json:"status,omitempty"`
	Date              string            `json:"date,omitempty"`
}

// Matches reports whether the appointment satisfies every set filter field
func (f *AppointmentFilters) Matches(apt *Appointment) bool {
	if f == nil {
		return true
	}
	if f.PatientID != "" && apt.PatientID != f.PatientID {
		return false
	}
	if f.PhysiotherapistID != "" && apt.PhysiotherapistID != f.PhysiotherapistID {
		return false
	}
	if f.Status != "" && apt.Status != f.Status {
		return false
	}
	if f.Date != "" && apt.Date != f.Date {
		return false
	}
	return true
}

// TimeSlot is a bookable (weekday, label) unit
type TimeSlot struct {
	Weekday time.Weekday `json:"weekday"`
	Label   string       `json:"label"`
}

// SlotAvailability pairs a slot label with its booked state on a date
type SlotAvailability struct {
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	Booked   bool   `json:"booked"`
}

// BookableDate is a candidate booking date within the horizon
type BookableDate struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Weekday string `json:"day"`
}

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationAppointmentRequested NotificationType = "appointment_requested"
	NotificationAppointmentApproved  NotificationType = "appointment_approved"
	NotificationAppointmentDeclined  NotificationType = "appointment_declined"
)

// Notification is an inbox message addressed to one user
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
