package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/physiocare/clinic/pkg/interfaces"
	"github.com/physiocare/clinic/pkg/logger"
	"github.com/physiocare/clinic/pkg/monitoring"
	"github.com/physiocare/clinic/pkg/types"
	"github.com/sirupsen/logrus"
)

// displayDateLayout renders booking dates the way the front desk reads them (3/10/2025)
const displayDateLayout = "1/2/2006"

// AppointmentNotificationManager appends notifications to user inboxes
type AppointmentNotificationManager struct {
	store   interfaces.NotificationRepository
	metrics *monitoring.MetricsCollector
	logger  *logger.Logger
	now     func() time.Time
	newID   func() string
}

var _ interfaces.Notifier = (*AppointmentNotificationManager)(nil)

// NewAppointmentNotificationManager creates a notifier backed by store
func NewAppointmentNotificationManager(store interfaces.NotificationRepository, metrics *monitoring.MetricsCollector, log *logger.Logger) *AppointmentNotificationManager {
	return &AppointmentNotificationManager{
		store:   store,
		metrics: metrics,
		logger:  log,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Notify appends one unread notification addressed to userID
func (anm *AppointmentNotificationManager) Notify(ctx context.Context, userID string, notificationType types.NotificationType, message string) (*types.Notification, error) {
	n := &types.Notification{
		ID:        anm.newID(),
		UserID:    userID,
		Type:      notificationType,
		Message:   message,
		Read:      false,
		CreatedAt: anm.now(),
	}

	if err := anm.store.AppendNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to append notification: %w", err)
	}

	if anm.metrics != nil {
		anm.metrics.RecordNotification(string(notificationType))
	}
	anm.logger.WithContext(ctx).WithFields(logrus.Fields{
		"notification_id": n.ID,
		"recipient":       userID,
		"type":            notificationType,
	}).Info("Notification queued")

	return n, nil
}

// formatDisplayDate renders a YYYY-MM-DD date as M/D/YYYY, falling back to
// the raw value when it does not parse
func formatDisplayDate(date string) string {
	d, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(displayDateLayout)
}

// withDoctorPrefix adds "Dr. " unless the name already carries it
func withDoctorPrefix(name string) string {
	if strings.HasPrefix(name, "Dr. ") || strings.HasPrefix(name, "Dr ") {
		return name
	}
	return "Dr. " + name
}

func appointmentRequestedMessage(patientName string, apt *types.Appointment) string {
	return fmt.Sprintf("New appointment scheduled for %s on %s at %s. Please review and approve.",
		patientName, formatDisplayDate(apt.Date), apt.TimeSlot)
}

func appointmentApprovedPatientMessage(apt *types.Appointment) string {
	return fmt.Sprintf("Your appointment on %s at %s has been approved.", apt.Date, apt.TimeSlot)
}

func appointmentApprovedReceptionMessage(physioName string, apt *types.Appointment) string {
	return fmt.Sprintf("%s approved appointment for patient on %s at %s.",
		withDoctorPrefix(physioName), apt.Date, apt.TimeSlot)
}

func appointmentDeclinedPatientMessage(apt *types.Appointment) string {
	return fmt.Sprintf("Your appointment on %s at %s has been declined.", apt.Date, apt.TimeSlot)
}

func appointmentDeclinedReceptionMessage(physioName string, apt *types.Appointment) string {
	return fmt.Sprintf("%s declined appointment for patient on %s at %s.",
		withDoctorPrefix(physioName), apt.Date, apt.TimeSlot)
}

func appointmentRequestMessage(patientName string) string {
	return fmt.Sprintf("%s has requested a new appointment", patientName)
}
