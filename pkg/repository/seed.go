package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/physiocare/clinic/pkg/types"
)

// Seeder is implemented by stores that can be loaded with demo data
type Seeder interface {
	AddPatient(ctx context.Context, patient *types.Patient) error
	CreatePhysiotherapist(ctx context.Context, physio *types.Physiotherapist) error
	CreateAppointment(ctx context.Context, apt *types.Appointment) error
}

func strPtr(s string) *string { return &s }

// DemoPatients returns the clinic's demo patient records
func DemoPatients() []*types.Patient {
	return []*types.Patient{
		{
			ID:                      "1",
			Name:                    "John Patient",
			Sex:                     "Male",
			DateOfBirth:             "1985-05-15",
			Age:                     39,
			PhoneNumber:             "+1234567890",
			Complaint:               "Lower back pain for 3 months, worsens with sitting",
			HomeProgram:             strPtr("Daily walking 30 minutes, core strengthening exercises"),
			Comments:                strPtr("Patient shows good compliance with exercises"),
			AssignedPhysiotherapist: strPtr("2"),
		},
		{
			ID:                      "2",
			Name:                    "Sarah Williams",
			Sex:                     "Female",
			DateOfBirth:             "1990-08-22",
			Age:                     34,
			PhoneNumber:             "+1987654321",
			Complaint:               "Right shoulder pain after sports injury",
			AssignedPhysiotherapist: strPtr("3"),
		},
		{
			ID:                      "3",
			Name:                    "Michael Brown",
			Sex:                     "Male",
			DateOfBirth:             "1978-12-10",
			Age:                     45,
			PhoneNumber:             "+1122334455",
			Complaint:               "Knee pain and stiffness, difficulty with stairs",
			AssignedPhysiotherapist: strPtr("4"),
		},
	}
}

// DemoPhysiotherapists returns the clinic's demo clinicians
func DemoPhysiotherapists() []*types.Physiotherapist {
	return []*types.Physiotherapist{
		{ID: "2", Name: "Dr. Sarah Wilson", Email: "physio1@clinic.com", Specialization: strPtr("Sports Medicine")},
		{ID: "3", Name: "Dr. Mike Johnson", Email: "physio2@clinic.com", Specialization: strPtr("Orthopedics")},
		{ID: "4", Name: "Dr. Emily Davis", Email: "physio3@clinic.com", Specialization: strPtr("Neurological")},
		{ID: "5", Name: "Dr. James Brown", Email: "physio4@clinic.com", Specialization: strPtr("Pediatric")},
		{ID: "6", Name: "Dr. Lisa Garcia", Email: "physio5@clinic.com", Specialization: strPtr("Geriatric")},
	}
}

// DemoAppointments returns the historical appointment shipped with the demo data
func DemoAppointments() []*types.Appointment {
	createdAt := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	approvedAt := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)
	return []*types.Appointment{
		{
			ID:                "1",
			PatientID:         "1",
			PhysiotherapistID: "2",
			Date:              "2024-01-15",
			TimeSlot:          "9:00 AM - 10:30 AM",
			Status:            types.StatusApproved,
			CreatedAt:         createdAt,
			ApprovedAt:        &approvedAt,
			UpdatedAt:         approvedAt,
		},
	}
}

// Seed loads the demo records into store
func Seed(ctx context.Context, store Seeder) error {
	for _, p := range DemoPatients() {
		if err := store.AddPatient(ctx, p); err != nil {
			return fmt.Errorf("failed to seed patient %s: %w", p.ID, err)
		}
	}
	for _, p := range DemoPhysiotherapists() {
		if err := store.CreatePhysiotherapist(ctx, p); err != nil {
			return fmt.Errorf("failed to seed physiotherapist %s: %w", p.ID, err)
		}
	}
	for _, a := range DemoAppointments() {
		if err := store.CreateAppointment(ctx, a); err != nil {
			return fmt.Errorf("failed to seed appointment %s: %w", a.ID, err)
		}
	}
	return nil
}
