package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/physiocare/clinic/pkg/interfaces"
	"github.com/physiocare/clinic/pkg/types"
)

// MemoryRepository keeps every clinic record in process memory.
// Records are stored by id and returned as copies; insertion order is
// kept so listings match the order records were added.
type MemoryRepository struct {
	mu sync.RWMutex

	patients      map[string]*types.Patient
	patientOrder  []string
	physios       map[string]*types.Physiotherapist
	physioOrder   []string
	appointments  map[string]*types.Appointment
	aptOrder      []string
	notifications []*types.Notification
}

var _ interfaces.ClinicRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[string]*types.Patient),
		physios:      make(map[string]*types.Physiotherapist),
		appointments: make(map[string]*types.Appointment),
	}
}

// Ping always succeeds for the in-memory store
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// AddPatient registers a patient record. Registration itself happens
// outside the scheduler; this is used for seeding.
func (r *MemoryRepository) AddPatient(ctx context.Context, patient *types.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patients[patient.ID]; exists {
		return types.NewConflictError("PATIENT_EXISTS", fmt.Sprintf("patient already exists: %s", patient.ID), nil)
	}
	r.patients[patient.ID] = copyPatient(patient)
	r.patientOrder = append(r.patientOrder, patient.ID)
	return nil
}

// ListPatients returns all patients in registration order
func (r *MemoryRepository) ListPatients(ctx context.Context) ([]*types.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patients := make([]*types.Patient, 0, len(r.patientOrder))
	for _, id := range r.patientOrder {
		patients = append(patients, copyPatient(r.patients[id]))
	}
	return patients, nil
}

// GetPatient retrieves a patient by ID
func (r *MemoryRepository) GetPatient(ctx context.Context, id string) (*types.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", id))
	}
	return copyPatient(patient), nil
}

// ReplacePatient swaps the stored record for the one supplied
func (r *MemoryRepository) ReplacePatient(ctx context.Context, patient *types.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patient.ID]; !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", patient.ID))
	}
	r.patients[patient.ID] = copyPatient(patient)
	return nil
}

// ListPhysiotherapists returns all physiotherapists in creation order
func (r *MemoryRepository) ListPhysiotherapists(ctx context.Context) ([]*types.Physiotherapist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	physios := make([]*types.Physiotherapist, 0, len(r.physioOrder))
	for _, id := range r.physioOrder {
		physios = append(physios, copyPhysio(r.physios[id]))
	}
	return physios, nil
}

// GetPhysiotherapist retrieves a physiotherapist by ID
func (r *MemoryRepository) GetPhysiotherapist(ctx context.Context, id string) (*types.Physiotherapist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	physio, ok := r.physios[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("physiotherapist not found: %s", id))
	}
	return copyPhysio(physio), nil
}

// CreatePhysiotherapist stores a new physiotherapist
func (r *MemoryRepository) CreatePhysiotherapist(ctx context.Context, physio *types.Physiotherapist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.physios[physio.ID]; exists {
		return types.NewConflictError("PHYSIOTHERAPIST_EXISTS", fmt.Sprintf("physiotherapist already exists: %s", physio.ID), nil)
	}
	r.physios[physio.ID] = copyPhysio(physio)
	r.physioOrder = append(r.physioOrder, physio.ID)
	return nil
}

// DeletePhysiotherapist removes a physiotherapist. Appointments and patient
// assignments that reference it are left untouched.
func (r *MemoryRepository) DeletePhysiotherapist(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.physios[id]; !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("physiotherapist not found: %s", id))
	}
	delete(r.physios, id)
	r.physioOrder = removeID(r.physioOrder, id)
	return nil
}

// CreateAppointment stores a new appointment, rejecting a second active
// appointment for the same date and slot
func (r *MemoryRepository) CreateAppointment(ctx context.Context, apt *types.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appointments[apt.ID]; exists {
		return types.NewConflictError("APPOINTMENT_EXISTS", fmt.Sprintf("appointment already exists: %s", apt.ID), nil)
	}
	if apt.Status.HoldsSlot() {
		for _, id := range r.aptOrder {
			existing := r.appointments[id]
			if existing.Date == apt.Date && existing.TimeSlot == apt.TimeSlot && existing.Status.HoldsSlot() {
				return slotConflict(apt.Date, apt.TimeSlot, existing.ID)
			}
		}
	}

	r.appointments[apt.ID] = copyAppointment(apt)
	r.aptOrder = append(r.aptOrder, apt.ID)
	return nil
}

// GetAppointment retrieves an appointment by ID
func (r *MemoryRepository) GetAppointment(ctx context.Context, id string) (*types.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apt, ok := r.appointments[id]
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", id))
	}
	return copyAppointment(apt), nil
}

// UpdateAppointment replaces a stored appointment
func (r *MemoryRepository) UpdateAppointment(ctx context.Context, apt *types.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[apt.ID]; !ok {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", apt.ID))
	}
	r.appointments[apt.ID] = copyAppointment(apt)
	return nil
}

// ListAppointments returns appointments matching filters, ordered by date then creation
func (r *MemoryRepository) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var appointments []*types.Appointment
	for _, id := range r.aptOrder {
		apt := r.appointments[id]
		if filters.Matches(apt) {
			appointments = append(appointments, copyAppointment(apt))
		}
	}

	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].Date < appointments[j].Date
	})
	return appointments, nil
}

// FindSlotHolders returns pending or approved appointments for a date and slot
func (r *MemoryRepository) FindSlotHolders(ctx context.Context, date, timeSlot string) ([]*types.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var holders []*types.Appointment
	for _, id := range r.aptOrder {
		apt := r.appointments[id]
		if apt.Date == date && apt.TimeSlot == timeSlot && apt.Status.HoldsSlot() {
			holders = append(holders, copyAppointment(apt))
		}
	}
	return holders, nil
}

// AppendNotification adds a notification to the log
func (r *MemoryRepository) AppendNotification(ctx context.Context, n *types.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *n
	r.notifications = append(r.notifications, &copied)
	return nil
}

// ListNotifications returns the notifications addressed to userID, oldest first
func (r *MemoryRepository) ListNotifications(ctx context.Context, userID string) ([]*types.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notifications []*types.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			copied := *n
			notifications = append(notifications, &copied)
		}
	}
	return notifications, nil
}

// MarkNotificationRead flags one of userID's notifications as read
func (r *MemoryRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("notification not found: %s", id))
}

func slotConflict(date, timeSlot, holderID string) error {
	details := map[string]interface{}{
		"date":      date,
		"time_slot": timeSlot,
	}
	if holderID != "" {
		details["appointment_id"] = holderID
	}
	return types.NewConflictError(types.ErrCodeSlotUnavailable, "This time slot is already booked.", details)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyPatient(p *types.Patient) *types.Patient {
	c := *p
	c.HomeProgram = copyString(p.HomeProgram)
	c.Comments = copyString(p.Comments)
	c.AssignedPhysiotherapist = copyString(p.AssignedPhysiotherapist)
	return &c
}

func copyPhysio(p *types.Physiotherapist) *types.Physiotherapist {
	c := *p
	c.Specialization = copyString(p.Specialization)
	return &c
}

func copyAppointment(a *types.Appointment) *types.Appointment {
	c := *a
	if a.ApprovedAt != nil {
		t := *a.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}
