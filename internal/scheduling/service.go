package scheduling

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/physiocare/clinic/internal/auth"
	"github.com/physiocare/clinic/pkg/config"
	"github.com/physiocare/clinic/pkg/interfaces"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/monitoring"
	"github.com/physiocare/clinic/pkg/types"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const unknownName = "Unknown"

// Service implements the SchedulingService interface
type Service struct {
	config   *config.Config
	logger   *logger.Logger
	repo     interfaces.ClinicRepository
	calendar *Calendar
	notifier interfaces.Notifier
	metrics  *monitoring.MetricsCollector
	tracing  *monitoring.TracingManager
	health   *monitoring.HealthManager
	tokens   *auth.TokenValidator
	validate *validator.Validate
	server   *http.Server

	calendarOpts []CalendarOption

	// bookingMu serialises slot checks with the writes that depend on them
	bookingMu sync.Mutex

	now   func() time.Time
	newID func() string
}

var _ interfaces.SchedulingService = (*Service)(nil)

// Option customises a Service
type Option func(*Service)

// WithClock replaces the service clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithNotifier replaces the inbox notifier
func WithNotifier(n interfaces.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics replaces the metrics collector
func WithMetrics(m *monitoring.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracing enables operation spans
func WithTracing(tm *monitoring.TracingManager) Option {
	return func(s *Service) { s.tracing = tm }
}

// WithHealthManager replaces the health manager
func WithHealthManager(hm *monitoring.HealthManager) Option {
	return func(s *Service) { s.health = hm }
}

// WithCalendarOptions customises the slot calendar
func WithCalendarOptions(opts ...CalendarOption) Option {
	return func(s *Service) { s.calendarOpts = append(s.calendarOpts, opts...) }
}

// New creates a new scheduling service over repo
func New(cfg *config.Config, log *logger.Logger, repo interfaces.ClinicRepository, opts ...Option) (*Service, error) {
	s := &Service{
		config:   cfg,
		logger:   log,
		repo:     repo,
		tokens:   auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Second),
		validate: newValidator(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(s)
	}

	calendar, err := NewCalendar(cfg.Clinic, s.calendarOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar: %w", err)
	}
	s.calendar = calendar

	if s.metrics == nil {
		s.metrics = monitoring.NewMetricsCollector(cfg.Monitoring.ServiceName)
	}
	if s.notifier == nil {
		manager := NewAppointmentNotificationManager(repo, s.metrics, log)
		manager.now = s.now
		manager.newID = s.newID
		s.notifier = manager
	}
	if s.health == nil {
		s.health = monitoring.NewHealthManager(cfg.Monitoring.ServiceName, "1.0.0")
		s.health.RegisterChecker("store", monitoring.NewStoreHealthChecker(repo, cfg.Database.Driver))
	}

	return s, nil
}

// BookableDates lists the dates that can be booked starting today
func (s *Service) BookableDates() iter.Seq[types.BookableDate] {
	return s.calendar.BookableDates(s.now())
}

// SlotsForDate returns the slot labels offered on date
func (s *Service) SlotsForDate(date string) ([]string, error) {
	return s.calendar.SlotsForDate(date)
}

// AvailableSlots returns every slot offered on date with its booked flag
func (s *Service) AvailableSlots(ctx context.Context, date string) ([]types.SlotAvailability, error) {
	slots, err := s.calendar.SlotsForDate(date)
	if err != nil {
		return nil, err
	}

	held, err := s.repo.ListAppointments(ctx, &types.AppointmentFilters{Date: date})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for %s: %w", date, err)
	}

	booked := make(map[string]bool)
	for _, apt := range held {
		if apt.Status.HoldsSlot() {
			booked[apt.TimeSlot] = true
		}
	}

	availability := make([]types.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		availability = append(availability, types.SlotAvailability{
			Date:     date,
			TimeSlot: slot,
			Booked:   booked[slot],
		})
	}
	return availability, nil
}

// IsSlotBooked reports whether a pending or approved appointment holds the slot
func (s *Service) IsSlotBooked(ctx context.Context, date, timeSlot string) (bool, error) {
	holders, err := s.repo.FindSlotHolders(ctx, date, timeSlot)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return len(holders) > 0, nil
}

// CreateAppointment books a pending appointment and notifies the physiotherapist
func (s *Service) CreateAppointment(ctx context.Context, actor *types.Actor, req *types.AppointmentRequest) (*types.Appointment, error) {
	ctx, span := s.startSpan(ctx, "create_appointment")
	defer span.End()

	if err := s.authorize(ctx, actor, "create_appointment", types.RoleReceptionist, types.RoleAdmin); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "appointment request is required", nil)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationFailure("invalid appointment request", err)
	}

	offered, err := s.calendar.Offers(req.Date, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("time slot %q is not offered on %s", req.TimeSlot, req.Date),
			map[string]interface{}{"date": req.Date, "time_slot": req.TimeSlot})
	}

	now := s.now()
	apt := &types.Appointment{
		ID:                s.newID(),
		PatientID:         req.PatientID,
		PhysiotherapistID: req.PhysiotherapistID,
		Date:              req.Date,
		TimeSlot:          req.TimeSlot,
		Status:            types.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	span.SetAttributes(
		attribute.String("appointment.id", apt.ID),
		attribute.String("appointment.date", apt.Date),
		attribute.String("appointment.time_slot", apt.TimeSlot),
	)

	if err := s.insertIfFree(ctx, apt); err != nil {
		if types.IsConflict(err) {
			s.metrics.RecordSlotConflict()
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"date":      apt.Date,
				"time_slot": apt.TimeSlot,
			}).Info("Rejected booking for a held slot")
			return nil, err
		}
		s.recordFailure(span, "create_appointment", err)
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.metrics.RecordAppointmentBooked()

	message := appointmentRequestedMessage(s.PatientName(ctx, apt.PatientID), apt)
	if _, err := s.notifier.Notify(ctx, apt.PhysiotherapistID, types.NotificationAppointmentRequested, message); err != nil {
		// the booking stands even when the inbox write fails
		s.logger.WithContext(ctx).WithError(err).Error("Failed to notify physiotherapist of new appointment")
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"appointment_id":     apt.ID,
		"patient_id":         apt.PatientID,
		"physiotherapist_id": apt.PhysiotherapistID,
		"date":               apt.Date,
		"time_slot":          apt.TimeSlot,
	}).Info("Appointment created")

	return apt, nil
}

// insertIfFree re-checks the slot and inserts apt as one critical section
func (s *Service) insertIfFree(ctx context.Context, apt *types.Appointment) error {
	s.bookingMu.Lock()
	defer s.bookingMu.Unlock()

	holders, err := s.repo.FindSlotHolders(ctx, apt.Date, apt.TimeSlot)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if len(holders) > 0 {
		return types.NewConflictError(types.ErrCodeSlotUnavailable, "This time slot is already booked.", map[string]interface{}{
			"date":      apt.Date,
			"time_slot": apt.TimeSlot,
		})
	}

	return s.repo.CreateAppointment(ctx, apt)
}

// ApproveAppointment approves a pending appointment. The patient is told
// first, then the reception inbox.
func (s *Service) ApproveAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error) {
	ctx, span := s.startSpan(ctx, "approve_appointment", attribute.String("appointment.id", appointmentID))
	defer span.End()

	apt, err := s.transition(ctx, actor, "approve_appointment", appointmentID, types.StatusApproved)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, apt.PatientID, types.NotificationAppointmentApproved, appointmentApprovedPatientMessage(apt)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to notify patient of approval")
	}

	physioName := s.physiotherapistDisplayName(ctx, apt.PhysiotherapistID, actor)
	if _, err := s.notifier.Notify(ctx, s.config.Clinic.ReceptionInbox, types.NotificationAppointmentApproved, appointmentApprovedReceptionMessage(physioName, apt)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to notify reception of approval")
	}

	return apt, nil
}

// DeclineAppointment declines a pending appointment and releases its slot
func (s *Service) DeclineAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error) {
	ctx, span := s.startSpan(ctx, "decline_appointment", attribute.String("appointment.id", appointmentID))
	defer span.End()

	apt, err := s.transition(ctx, actor, "decline_appointment", appointmentID, types.StatusDeclined)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, apt.PatientID, types.NotificationAppointmentDeclined, appointmentDeclinedPatientMessage(apt)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to notify patient of decline")
	}

	physioName := s.physiotherapistDisplayName(ctx, apt.PhysiotherapistID, actor)
	if _, err := s.notifier.Notify(ctx, s.config.Clinic.ReceptionInbox, types.NotificationAppointmentDeclined, appointmentDeclinedReceptionMessage(physioName, apt)); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to notify reception of decline")
	}

	return apt, nil
}

// CompleteAppointment marks an approved appointment as completed
func (s *Service) CompleteAppointment(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error) {
	ctx, span := s.startSpan(ctx, "complete_appointment", attribute.String("appointment.id", appointmentID))
	defer span.End()

	return s.transition(ctx, actor, "complete_appointment", appointmentID, types.StatusCompleted)
}

// transition moves an appointment owned by actor into next
func (s *Service) transition(ctx context.Context, actor *types.Actor, operation, appointmentID string, next types.AppointmentStatus) (*types.Appointment, error) {
	if err := s.authorize(ctx, actor, operation, types.RolePhysiotherapist); err != nil {
		return nil, err
	}

	s.bookingMu.Lock()
	defer s.bookingMu.Unlock()

	apt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if apt.PhysiotherapistID != actor.ID {
		s.deny(ctx, actor, operation, "appointment assigned to another physiotherapist")
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "only the assigned physiotherapist can change this appointment")
	}

	if !apt.Status.CanTransitionTo(next) {
		return nil, types.NewValidationError(types.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, next),
			map[string]interface{}{"appointment_id": apt.ID, "status": apt.Status, "requested": next})
	}

	now := s.now()
	apt.Status = next
	apt.UpdatedAt = now
	if next == types.StatusApproved {
		apt.ApprovedAt = &now
	}

	if err := s.repo.UpdateAppointment(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	s.metrics.RecordTransition(string(next))

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"appointment_id": apt.ID,
		"status":         next,
		"actor_id":       actor.ID,
	}).Info("Appointment status changed")

	return apt, nil
}

// GetAppointment retrieves an appointment by ID
func (s *Service) GetAppointment(ctx context.Context, appointmentID string) (*types.Appointment, error) {
	return s.repo.GetAppointment(ctx, appointmentID)
}

// ListAppointments retrieves appointments matching filters
func (s *Service) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	if filters != nil && filters.Status != "" && !filters.Status.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown appointment status %q", filters.Status), nil)
	}

	appointments, err := s.repo.ListAppointments(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	if appointments == nil {
		appointments = []*types.Appointment{}
	}
	return appointments, nil
}

// RequestAppointment lets a patient ask reception for a booking
func (s *Service) RequestAppointment(ctx context.Context, actor *types.Actor) error {
	if err := s.authorize(ctx, actor, "request_appointment", types.RolePatient); err != nil {
		return err
	}

	name := s.PatientName(ctx, actor.ID)
	if name == unknownName && actor.Name != "" {
		name = actor.Name
	}

	if _, err := s.notifier.Notify(ctx, s.config.Clinic.ReceptionInbox, types.NotificationAppointmentRequested, appointmentRequestMessage(name)); err != nil {
		return fmt.Errorf("failed to send appointment request: %w", err)
	}
	return nil
}

// ListPatients returns every patient
func (s *Service) ListPatients(ctx context.Context) ([]*types.Patient, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	if patients == nil {
		patients = []*types.Patient{}
	}
	return patients, nil
}

// GetPatient retrieves a patient by ID
func (s *Service) GetPatient(ctx context.Context, patientID string) (*types.Patient, error) {
	return s.repo.GetPatient(ctx, patientID)
}

// PatientsAssignedTo returns the patients whose assigned physiotherapist is physiotherapistID
func (s *Service) PatientsAssignedTo(ctx context.Context, physiotherapistID string) ([]*types.Patient, error) {
	patients, err := s.ListPatients(ctx)
	if err != nil {
		return nil, err
	}

	assigned := make([]*types.Patient, 0)
	for _, p := range patients {
		if p.AssignedPhysiotherapist != nil && *p.AssignedPhysiotherapist == physiotherapistID {
			assigned = append(assigned, p)
		}
	}
	return assigned, nil
}

// UpdatePatient replaces the stored record with the same ID wholesale
func (s *Service) UpdatePatient(ctx context.Context, actor *types.Actor, patient *types.Patient) error {
	if err := s.authorize(ctx, actor, "update_patient", types.RolePhysiotherapist, types.RoleAdmin); err != nil {
		return err
	}

	if patient == nil || patient.ID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "patient id is required", nil)
	}
	if err := s.validate.Struct(patient); err != nil {
		return validationFailure("invalid patient record", err)
	}

	if err := s.repo.ReplacePatient(ctx, patient); err != nil {
		if types.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"patient_id": patient.ID,
		"actor_id":   actor.ID,
	}).Info("Patient record replaced")
	return nil
}

// UpdatePatientProgram sets the home program and comments on a patient
func (s *Service) UpdatePatientProgram(ctx context.Context, actor *types.Actor, patientID string, homeProgram, comments string) (*types.Patient, error) {
	if err := s.authorize(ctx, actor, "update_patient", types.RolePhysiotherapist, types.RoleAdmin); err != nil {
		return nil, err
	}

	patient, err := s.repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	patient.HomeProgram = optionalText(homeProgram)
	patient.Comments = optionalText(comments)

	if err := s.UpdatePatient(ctx, actor, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// ListPhysiotherapists returns every physiotherapist
func (s *Service) ListPhysiotherapists(ctx context.Context) ([]*types.Physiotherapist, error) {
	physios, err := s.repo.ListPhysiotherapists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list physiotherapists: %w", err)
	}
	if physios == nil {
		physios = []*types.Physiotherapist{}
	}
	return physios, nil
}

// AddPhysiotherapist registers a physiotherapist
func (s *Service) AddPhysiotherapist(ctx context.Context, actor *types.Actor, physio *types.Physiotherapist) (*types.Physiotherapist, error) {
	if err := s.authorize(ctx, actor, "add_physiotherapist", types.RoleAdmin); err != nil {
		return nil, err
	}

	if physio == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "physiotherapist is required", nil)
	}
	if err := s.validate.Struct(physio); err != nil {
		return nil, validationFailure("invalid physiotherapist", err)
	}

	created := *physio
	if created.ID == "" {
		created.ID = s.newID()
	}
	if created.Specialization != nil && *created.Specialization == "" {
		created.Specialization = nil
	}

	if err := s.repo.CreatePhysiotherapist(ctx, &created); err != nil {
		if types.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add physiotherapist: %w", err)
	}

	s.logger.WithContext(ctx).WithField("physiotherapist_id", created.ID).Info("Physiotherapist added")
	return &created, nil
}

// RemovePhysiotherapist deletes a physiotherapist. Existing appointments and
// assignments keep the dangling reference.
func (s *Service) RemovePhysiotherapist(ctx context.Context, actor *types.Actor, physiotherapistID string) error {
	if err := s.authorize(ctx, actor, "remove_physiotherapist", types.RoleAdmin); err != nil {
		return err
	}

	if err := s.repo.DeletePhysiotherapist(ctx, physiotherapistID); err != nil {
		if types.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to remove physiotherapist: %w", err)
	}

	s.logger.WithContext(ctx).WithField("physiotherapist_id", physiotherapistID).Info("Physiotherapist removed")
	return nil
}

// PatientName resolves a patient's display name
func (s *Service) PatientName(ctx context.Context, patientID string) string {
	p, err := s.repo.GetPatient(ctx, patientID)
	if err != nil {
		return unknownName
	}
	return p.Name
}

// PhysiotherapistName resolves a physiotherapist's display name
func (s *Service) PhysiotherapistName(ctx context.Context, physiotherapistID string) string {
	p, err := s.repo.GetPhysiotherapist(ctx, physiotherapistID)
	if err != nil {
		return unknownName
	}
	return p.Name
}

// AssignedPhysiotherapistName resolves the name of a patient's assigned physiotherapist
func (s *Service) AssignedPhysiotherapistName(ctx context.Context, patientID string) string {
	p, err := s.repo.GetPatient(ctx, patientID)
	if err != nil {
		return unknownName
	}
	if p.AssignedPhysiotherapist == nil || *p.AssignedPhysiotherapist == "" {
		return "Unassigned"
	}
	return s.PhysiotherapistName(ctx, *p.AssignedPhysiotherapist)
}

// physiotherapistDisplayName prefers the directory name and falls back to
// the caller's own name
func (s *Service) physiotherapistDisplayName(ctx context.Context, physiotherapistID string, actor *types.Actor) string {
	if name := s.PhysiotherapistName(ctx, physiotherapistID); name != unknownName {
		return name
	}
	if actor != nil && actor.Name != "" {
		return actor.Name
	}
	return unknownName
}

// Notifications lists the caller's inbox, oldest first
func (s *Service) Notifications(ctx context.Context, actor *types.Actor) ([]*types.Notification, error) {
	if err := s.authorize(ctx, actor, "list_notifications"); err != nil {
		return nil, err
	}

	notifications, err := s.repo.ListNotifications(ctx, s.inboxFor(actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*types.Notification{}
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the caller's notifications as read
func (s *Service) MarkNotificationRead(ctx context.Context, actor *types.Actor, notificationID string) error {
	if err := s.authorize(ctx, actor, "mark_notification_read"); err != nil {
		return err
	}
	return s.repo.MarkNotificationRead(ctx, s.inboxFor(actor), notificationID)
}

// inboxFor returns the notification recipient id an actor reads from
func (s *Service) inboxFor(actor *types.Actor) string {
	if actor.Role == types.RoleReceptionist {
		return s.config.Clinic.ReceptionInbox
	}
	return actor.ID
}

// authorize rejects a missing actor and, when roles are given, any actor
// whose role is not among them
func (s *Service) authorize(ctx context.Context, actor *types.Actor, operation string, roles ...types.UserRole) error {
	if actor == nil || actor.ID == "" {
		return types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "authentication required", nil)
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}

	s.deny(ctx, actor, operation, "role not permitted")
	return types.NewAuthorizationError(types.ErrCodeForbidden,
		fmt.Sprintf("role %s may not %s", actor.Role, operation))
}

func (s *Service) deny(ctx context.Context, actor *types.Actor, operation, reason string) {
	s.metrics.RecordAuthorizationDenied(operation)
	s.logger.Security(ctx, "authorization_denied", actor.ID, map[string]interface{}{
		"operation": operation,
		"role":      actor.Role,
		"reason":    reason,
	})
}

func (s *Service) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracing == nil {
		return noop.NewTracerProvider().Tracer("scheduling").Start(ctx, operation)
	}
	return s.tracing.StartOperationSpan(ctx, operation, attrs...)
}

func (s *Service) recordFailure(span trace.Span, component string, err error) {
	s.metrics.RecordSystemError("internal", component)
	if s.tracing != nil {
		s.tracing.RecordError(span, err)
	}
}

// Router builds the HTTP handler for the service
func (s *Service) Router() http.Handler {
	router := mux.NewRouter()
	if s.config.Monitoring.MetricsEnabled || s.tracing != nil {
		mm := monitoring.NewMonitoringMiddleware(s.metrics, s.tracing, s.logger)
		router.Use(mm.HTTPMiddleware)
	}
	s.setupRoutes(router)
	return router
}

// Start starts the scheduling service HTTP server
func (s *Service) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithComponent("scheduling").WithField("addr", addr).Info("Starting scheduling service")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the scheduling service
func (s *Service) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.WithComponent("scheduling").Info("Stopping scheduling service")
	return s.server.Shutdown(ctx)
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
