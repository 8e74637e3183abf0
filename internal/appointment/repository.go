package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
)

var (
	ErrAvailabilityNotFound = errors.New("doctor availability not found for this date")
	ErrAvailabilityExists   = errors.New("doctor availability already exists for this date")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrSlotNotAvailable     = errors.New("time slot not available")
	ErrSlotAlreadyBooked    = errors.New("appointment already exists for this time slot")
	ErrStatusChanged        = errors.New("appointment status changed concurrently")
)

// Directory is the read-only view of the account records the scheduler
// depends on. account.PgRepository satisfies it.
type Directory interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*account.Doctor, error)
	GetPetByID(ctx context.Context, id uuid.UUID) (*account.Pet, error)
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Day availability
	GetDayAvailability(ctx context.Context, doctorID uuid.UUID, day Date) (*DayAvailability, error)
	// CreateDayAvailability returns ErrAvailabilityExists when another writer
	// created the record first.
	CreateDayAvailability(ctx context.Context, doctorID uuid.UUID, day Date, slots []string) (*DayAvailability, error)

	// For conflict checks
	FindActiveAppointment(ctx context.Context, doctorID uuid.UUID, day Date, slot string) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// BookSlot removes the slot from the day and inserts the appointment in
	// one transaction. Fails with ErrSlotNotAvailable or ErrSlotAlreadyBooked
	// and leaves nothing behind.
	BookSlot(ctx context.Context, appt NewAppointment) (*Appointment, error)
	// ChangeStatus moves an appointment from one status to another and, when
	// from holds the slot and to does not, puts the slot back into the day in
	// the same transaction. Fails with ErrStatusChanged if the stored status
	// is no longer from.
	ChangeStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Display
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error)

	// Reconciliation
	ReconcileAvailability(ctx context.Context) (int, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
