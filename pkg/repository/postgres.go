package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/physiocare/clinic/pkg/database"
	"github.com/physiocare/clinic/pkg/interfaces"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/types"
)

const (
	uniqueViolation     = "23505"
	activeSlotIndex     = "appointments_active_slot_idx"
	patientColumns      = "id, name, sex, date_of_birth, age, phone_number, complaint, home_program, comments, assigned_physiotherapist"
	physioColumns       = "id, name, email, specialization"
	appointmentColumns  = "id, patient_id, physiotherapist_id, date, time_slot, status, created_at, approved_at, updated_at"
	notificationColumns = "id, user_id, type, message, read, created_at"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PostgresRepository implements ClinicRepository on PostgreSQL
type PostgresRepository struct {
	db     *database.DB
	logger *logger.Logger
}

var _ interfaces.ClinicRepository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL backed repository
func NewPostgresRepository(db *database.DB, log *logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: log,
	}
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Health(ctx)
}

// AddPatient inserts a patient record
func (r *PostgresRepository) AddPatient(ctx context.Context, patient *types.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Sex,
		patient.DateOfBirth,
		patient.Age,
		patient.PhoneNumber,
		patient.Complaint,
		patient.HomeProgram,
		patient.Comments,
		patient.AssignedPhysiotherapist,
	)
	r.logger.DatabaseOperation(ctx, "insert", "patients", time.Since(start).Milliseconds(), 1, err == nil)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError("PATIENT_EXISTS", fmt.Sprintf("patient already exists: %s", patient.ID), nil)
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// ListPatients returns every patient in registration order
func (r *PostgresRepository) ListPatients(ctx context.Context) ([]*types.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []*types.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}
	return patients, nil
}

// GetPatient retrieves a patient by ID
func (r *PostgresRepository) GetPatient(ctx context.Context, id string) (*types.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// ReplacePatient overwrites every column of an existing patient row
func (r *PostgresRepository) ReplacePatient(ctx context.Context, patient *types.Patient) error {
	query := `
		UPDATE patients SET
			name = $2, sex = $3, date_of_birth = $4, age = $5, phone_number = $6,
			complaint = $7, home_program = $8, comments = $9, assigned_physiotherapist = $10
		WHERE id = $1`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Sex,
		patient.DateOfBirth,
		patient.Age,
		patient.PhoneNumber,
		patient.Complaint,
		patient.HomeProgram,
		patient.Comments,
		patient.AssignedPhysiotherapist,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "patients", time.Since(start).Milliseconds(), 0, false)
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	r.logger.DatabaseOperation(ctx, "update", "patients", time.Since(start).Milliseconds(), rowsAffected, true)

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", patient.ID))
	}
	return nil
}

// ListPhysiotherapists returns every physiotherapist in creation order
func (r *PostgresRepository) ListPhysiotherapists(ctx context.Context) ([]*types.Physiotherapist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+physioColumns+` FROM physiotherapists ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list physiotherapists: %w", err)
	}
	defer rows.Close()

	var physios []*types.Physiotherapist
	for rows.Next() {
		p, err := scanPhysio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan physiotherapist: %w", err)
		}
		physios = append(physios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate physiotherapists: %w", err)
	}
	return physios, nil
}

// GetPhysiotherapist retrieves a physiotherapist by ID
func (r *PostgresRepository) GetPhysiotherapist(ctx context.Context, id string) (*types.Physiotherapist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+physioColumns+` FROM physiotherapists WHERE id = $1`, id)
	p, err := scanPhysio(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("physiotherapist not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get physiotherapist: %w", err)
	}
	return p, nil
}

// CreatePhysiotherapist inserts a physiotherapist
func (r *PostgresRepository) CreatePhysiotherapist(ctx context.Context, physio *types.Physiotherapist) error {
	query := `INSERT INTO physiotherapists (` + physioColumns + `) VALUES ($1, $2, $3, $4)`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, physio.ID, physio.Name, physio.Email, physio.Specialization)
	r.logger.DatabaseOperation(ctx, "insert", "physiotherapists", time.Since(start).Milliseconds(), 1, err == nil)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewConflictError("PHYSIOTHERAPIST_EXISTS", fmt.Sprintf("physiotherapist already exists: %s", physio.ID), nil)
		}
		return fmt.Errorf("failed to create physiotherapist: %w", err)
	}
	return nil
}

// DeletePhysiotherapist removes a physiotherapist row
func (r *PostgresRepository) DeletePhysiotherapist(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM physiotherapists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete physiotherapist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("physiotherapist not found: %s", id))
	}
	return nil
}

// CreateAppointment inserts an appointment. A second active appointment
// for the same date and slot violates appointments_active_slot_idx.
func (r *PostgresRepository) CreateAppointment(ctx context.Context, apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.PhysiotherapistID,
		apt.Date,
		apt.TimeSlot,
		apt.Status,
		apt.CreatedAt,
		apt.ApprovedAt,
		apt.UpdatedAt,
	)
	r.logger.DatabaseOperation(ctx, "insert", "appointments", time.Since(start).Milliseconds(), 1, err == nil)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintOf(err) == activeSlotIndex {
				return slotConflict(apt.Date, apt.TimeSlot, "")
			}
			return types.NewConflictError("APPOINTMENT_EXISTS", fmt.Sprintf("appointment already exists: %s", apt.ID), nil)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by ID
func (r *PostgresRepository) GetAppointment(ctx context.Context, id string) (*types.Appointment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	apt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", id))
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

// UpdateAppointment persists status and timestamps of an appointment
func (r *PostgresRepository) UpdateAppointment(ctx context.Context, apt *types.Appointment) error {
	query := `
		UPDATE appointments SET
			patient_id = $2, physiotherapist_id = $3, date = $4, time_slot = $5,
			status = $6, approved_at = $7, updated_at = $8
		WHERE id = $1`

	start := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.PhysiotherapistID,
		apt.Date,
		apt.TimeSlot,
		apt.Status,
		apt.ApprovedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "update", "appointments", time.Since(start).Milliseconds(), 0, false)
		if isUniqueViolation(err) {
			return slotConflict(apt.Date, apt.TimeSlot, "")
		}
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	r.logger.DatabaseOperation(ctx, "update", "appointments", time.Since(start).Milliseconds(), rowsAffected, true)

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("appointment not found: %s", apt.ID))
	}
	return nil
}

// ListAppointments retrieves appointments based on filters
func (r *PostgresRepository) ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if filters != nil {
		if filters.PatientID != "" {
			query += fmt.Sprintf(" AND patient_id = $%d", argIndex)
			args = append(args, filters.PatientID)
			argIndex++
		}

		if filters.PhysiotherapistID != "" {
			query += fmt.Sprintf(" AND physiotherapist_id = $%d", argIndex)
			args = append(args, filters.PhysiotherapistID)
			argIndex++
		}

		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argIndex)
			args = append(args, string(filters.Status))
			argIndex++
		}

		if filters.Date != "" {
			query += fmt.Sprintf(" AND date = $%d", argIndex)
			args = append(args, filters.Date)
		}
	}

	query += " ORDER BY date, created_at, id"
	return r.queryAppointments(ctx, query, args...)
}

// FindSlotHolders returns pending or approved appointments for a date and slot
func (r *PostgresRepository) FindSlotHolders(ctx context.Context, date, timeSlot string) ([]*types.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE date = $1 AND time_slot = $2 AND status IN ('pending', 'approved')`
	return r.queryAppointments(ctx, query, date, timeSlot)
}

func (r *PostgresRepository) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*types.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return appointments, nil
}

// AppendNotification adds a notification to the log
func (r *PostgresRepository) AppendNotification(ctx context.Context, n *types.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// ListNotifications returns the notifications addressed to userID, oldest first
func (r *PostgresRepository) ListNotifications(ctx context.Context, userID string) ([]*types.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*types.Notification
	for rows.Next() {
		n := &types.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of userID's notifications as read
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("notification not found: %s", id))
	}
	return nil
}

func scanPatient(row rowScanner) (*types.Patient, error) {
	p := &types.Patient{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Sex,
		&p.DateOfBirth,
		&p.Age,
		&p.PhoneNumber,
		&p.Complaint,
		&p.HomeProgram,
		&p.Comments,
		&p.AssignedPhysiotherapist,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPhysio(row rowScanner) (*types.Physiotherapist, error) {
	p := &types.Physiotherapist{}
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Specialization); err != nil {
		return nil, err
	}
	return p, nil
}

func scanAppointment(row rowScanner) (*types.Appointment, error) {
	apt := &types.Appointment{}
	err := row.Scan(
		&apt.ID,
		&apt.PatientID,
		&apt.PhysiotherapistID,
		&apt.Date,
		&apt.TimeSlot,
		&apt.Status,
		&apt.CreatedAt,
		&apt.ApprovedAt,
		&apt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return apt, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func constraintOf(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
