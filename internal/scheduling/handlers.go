package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/types"
	"github.com/sirupsen/logrus"
)

// setupRoutes configures HTTP routes for the scheduling service
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Calendar routes
	api.HandleFunc("/calendar/dates", s.bookableDatesHandler).Methods("GET")
	api.HandleFunc("/calendar/dates/{date}/slots", s.availableSlotsHandler).Methods("GET")

	// Appointment routes
	api.HandleFunc("/appointments", s.createAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments", s.listAppointmentsHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}", s.getAppointmentHandler).Methods("GET")
	api.HandleFunc("/appointments/{id}/approve", s.approveAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}/decline", s.declineAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointments/{id}/complete", s.completeAppointmentHandler).Methods("POST")
	api.HandleFunc("/appointment-requests", s.requestAppointmentHandler).Methods("POST")

	// Patient routes
	api.HandleFunc("/patients", s.listPatientsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.getPatientHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.updatePatientHandler).Methods("PUT")

	// Physiotherapist routes
	api.HandleFunc("/physiotherapists", s.listPhysiotherapistsHandler).Methods("GET")
	api.HandleFunc("/physiotherapists", s.addPhysiotherapistHandler).Methods("POST")
	api.HandleFunc("/physiotherapists/{id}", s.removePhysiotherapistHandler).Methods("DELETE")

	// Notification routes
	api.HandleFunc("/notifications", s.listNotificationsHandler).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", s.markNotificationReadHandler).Methods("POST")

	// Health and metrics
	router.HandleFunc("/health", s.health.HTTPHandler()).Methods("GET")
	if s.config.Monitoring.MetricsEnabled {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.WithComponent("scheduling").Info("Scheduling service routes configured")
}

// bookableDatesHandler lists the dates within the booking horizon
func (s *Service) bookableDatesHandler(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authenticate(w, r); !ok {
		return
	}

	dates := slices.Collect(s.BookableDates())
	if dates == nil {
		dates = []types.BookableDate{}
	}
	s.writeJSONResponse(w, http.StatusOK, dates)
}

// availableSlotsHandler lists the slots of a date with their booked flags
func (s *Service) availableSlotsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	slots, err := s.AvailableSlots(ctx, mux.Vars(r)["date"])
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to list slots", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, slots)
}

// createAppointmentHandler handles appointment creation
func (s *Service) createAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req types.AppointmentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	apt, err := s.CreateAppointment(ctx, actor, &req)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to create appointment", err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, apt)
}

// listAppointmentsHandler handles filtered appointment listing
func (s *Service) listAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	appointments, err := s.ListAppointments(ctx, parseAppointmentFilters(r))
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to list appointments", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, appointments)
}

// getAppointmentHandler handles appointment retrieval
func (s *Service) getAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	apt, err := s.GetAppointment(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to get appointment", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, apt)
}

func (s *Service) approveAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	s.transitionHandler(w, r, s.ApproveAppointment, "Failed to approve appointment")
}

func (s *Service) declineAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	s.transitionHandler(w, r, s.DeclineAppointment, "Failed to decline appointment")
}

func (s *Service) completeAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	s.transitionHandler(w, r, s.CompleteAppointment, "Failed to complete appointment")
}

type transitionFunc func(ctx context.Context, actor *types.Actor, appointmentID string) (*types.Appointment, error)

func (s *Service) transitionHandler(w http.ResponseWriter, r *http.Request, apply transitionFunc, failure string) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	apt, err := apply(ctx, actor, mux.Vars(r)["id"])
	if err != nil {
		s.writeErrorResponse(w, r, failure, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, apt)
}

// requestAppointmentHandler lets a patient ask reception for an appointment
func (s *Service) requestAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := s.RequestAppointment(ctx, actor); err != nil {
		s.writeErrorResponse(w, r, "Failed to request appointment", err)
		return
	}
	s.writeJSONResponse(w, http.StatusAccepted, map[string]string{"message": "Appointment request sent to reception"})
}

// listPatientsHandler lists patients, optionally only those assigned to one physiotherapist
func (s *Service) listPatientsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var (
		patients []*types.Patient
		err      error
	)
	if physioID := r.URL.Query().Get("physiotherapist_id"); physioID != "" {
		patients, err = s.PatientsAssignedTo(ctx, physioID)
	} else {
		patients, err = s.ListPatients(ctx)
	}
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to list patients", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, patients)
}

// getPatientHandler handles patient retrieval
func (s *Service) getPatientHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	patient, err := s.GetPatient(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to get patient", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, patient)
}

// updatePatientHandler replaces a patient record with the request body
func (s *Service) updatePatientHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var patient types.Patient
	if !s.decodeBody(w, r, &patient) {
		return
	}
	patient.ID = mux.Vars(r)["id"]

	if err := s.UpdatePatient(ctx, actor, &patient); err != nil {
		s.writeErrorResponse(w, r, "Failed to update patient", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, &patient)
}

// listPhysiotherapistsHandler lists the clinic's physiotherapists
func (s *Service) listPhysiotherapistsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	physios, err := s.ListPhysiotherapists(ctx)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to list physiotherapists", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, physios)
}

// addPhysiotherapistHandler registers a physiotherapist
func (s *Service) addPhysiotherapistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var physio types.Physiotherapist
	if !s.decodeBody(w, r, &physio) {
		return
	}

	created, err := s.AddPhysiotherapist(ctx, actor, &physio)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to add physiotherapist", err)
		return
	}
	s.writeJSONResponse(w, http.StatusCreated, created)
}

// removePhysiotherapistHandler deletes a physiotherapist
func (s *Service) removePhysiotherapistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := s.RemovePhysiotherapist(ctx, actor, mux.Vars(r)["id"]); err != nil {
		s.writeErrorResponse(w, r, "Failed to remove physiotherapist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listNotificationsHandler returns the caller's inbox
func (s *Service) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	notifications, err := s.Notifications(ctx, actor)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to list notifications", err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, notifications)
}

// markNotificationReadHandler flags one notification as read
func (s *Service) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	if err := s.MarkNotificationRead(ctx, actor, mux.Vars(r)["id"]); err != nil {
		s.writeErrorResponse(w, r, "Failed to mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

// authenticate resolves the bearer token into an actor and writes a 401 when it cannot
func (s *Service) authenticate(w http.ResponseWriter, r *http.Request) (context.Context, *types.Actor, bool) {
	actor, err := s.tokens.ActorFromRequest(r)
	if err != nil {
		s.writeErrorResponse(w, r, "Authentication required", err)
		return nil, nil, false
	}
	return logger.ContextWithUserID(r.Context(), actor.ID), actor, true
}

func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeErrorResponse(w, r, "Invalid request body",
			types.NewValidationError(types.ErrCodeInvalidInput, err.Error(), nil))
		return false
	}
	return true
}

// parseAppointmentFilters parses query parameters into appointment filters
func parseAppointmentFilters(r *http.Request) *types.AppointmentFilters {
	q := r.URL.Query()
	return &types.AppointmentFilters{
		PatientID:         q.Get("patient_id"),
		PhysiotherapistID: q.Get("physiotherapist_id"),
		Status:            types.AppointmentStatus(q.Get("status")),
		Date:              q.Get("date"),
	}
}

// statusFor maps an error onto its HTTP status code
func statusFor(err error) int {
	switch types.ErrorTypeOf(err) {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeAuthorization:
		return http.StatusForbidden
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response. Internal failures are logged
// and their details withheld from the client.
func (s *Service) writeErrorResponse(w http.ResponseWriter, r *http.Request, message string, err error) {
	statusCode := statusFor(err)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}

	var ce *types.ClinicError
	if errors.As(err, &ce) && statusCode != http.StatusInternalServerError {
		response["error"] = ce.Message
		response["code"] = ce.Code
		if len(ce.Details) > 0 {
			response["details"] = ce.Details
		}
	} else {
		response["code"] = types.ErrCodeInternalError
	}

	entry := s.logger.WithContext(r.Context()).WithFields(logrus.Fields{
		"status": statusCode,
		"path":   r.URL.Path,
	}).WithError(err)
	if statusCode >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}

	s.writeJSONResponse(w, statusCode, response)
}
