package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/config"
	"github.com/hackgods/clinic-appointment-booking/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-booking/internal/redis"
)

const (
	EventAvailabilityGenerated = "AVAILABILITY_GENERATED"
	EventAppointmentCreated    = "APPOINTMENT_CREATED"
	EventStatusChanged         = "APPOINTMENT_STATUS_CHANGED"
)

// maxStatusAttempts bounds compare-and-set retries when two status updates
// race on the same appointment.
const maxStatusAttempts = 3

var (
	ErrDoctorNotFound          = errors.New("doctor not found")
	ErrPetNotOwned             = errors.New("you can only create appointments for your own pets")
	ErrNotAssignedDoctor       = errors.New("you are not authorized to update this appointment")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo      Repository
	directory Directory
	locker    redisclient.Locker
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       config.Config
}

func NewService(
	repo Repository,
	directory Directory,
	locker redisclient.Locker,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg config.Config,
) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		locker:    locker,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// BookingRequest is a booking as submitted by an authenticated user.
type BookingRequest struct {
	UserID   uuid.UUID
	PetID    uuid.UUID
	DoctorID uuid.UUID
	Day      Date
	TimeSlot string
}

// CreateAppointment reserves a slot for a pet. The slot leaves the day's
// availability and the appointment is written in one transaction. Repeating a
// booking that already succeeded returns the existing appointment.
func (s *Service) CreateAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	appt, err := s.createAppointment(ctx, req)

	switch {
	case err == nil:
		s.metrics.Booking(metrics.OutcomeBooked)
	case errors.Is(err, ErrSlotAlreadyBooked):
		s.metrics.Booking(metrics.OutcomeConflict)
	case errors.Is(err, ErrSlotNotAvailable):
		s.metrics.Booking(metrics.OutcomeUnavailable)
	case errors.Is(err, ErrSlotBeingBooked):
		s.metrics.Booking(metrics.OutcomeContended)
	case errors.Is(err, ErrPetNotOwned), errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrAvailabilityNotFound), errors.Is(err, ErrInvalidSlot),
		errors.Is(err, ErrInvalidDate):
		s.metrics.Booking(metrics.OutcomeRejected)
	default:
		s.metrics.Booking(metrics.OutcomeError)
	}

	return appt, err
}

func (s *Service) createAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.Day.IsZero() {
		return nil, ErrInvalidDate
	}
	if !ValidSlotLabel(req.TimeSlot) {
		return nil, ErrInvalidSlot
	}

	// Pet must exist and belong to the caller
	pet, err := s.directory.GetPetByID(ctx, req.PetID)
	if err != nil {
		if errors.Is(err, account.ErrPetNotFound) {
			return nil, ErrPetNotOwned
		}
		return nil, fmt.Errorf("load pet: %w", err)
	}
	if pet.OwnerID != req.UserID {
		return nil, ErrPetNotOwned
	}

	if _, err := s.directory.GetDoctorByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, account.ErrDoctorNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	day, err := s.repo.GetDayAvailability(ctx, req.DoctorID, req.Day)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load day availability: %w", err)
	}

	if !day.HasSlot(req.TimeSlot) {
		return s.replayOr(ctx, req, ErrSlotNotAvailable)
	}

	existing, err := s.repo.FindActiveAppointment(ctx, req.DoctorID, req.Day, req.TimeSlot)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("check active appointment: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotAlreadyBooked
	}

	status := StatusPending
	if s.cfg.AutoConfirm {
		status = StatusConfirmed
	}

	var created *Appointment
	lockKey := redisclient.SlotLockKey(req.DoctorID, req.Day.String(), req.TimeSlot)

	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		appt, err := s.repo.BookSlot(lockCtx, NewAppointment{
			UserID:   req.UserID,
			PetID:    req.PetID,
			DoctorID: req.DoctorID,
			Day:      req.Day,
			TimeSlot: req.TimeSlot,
			Status:   status,
		})
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrSlotBeingBooked
		case errors.Is(err, ErrSlotAlreadyBooked), errors.Is(err, ErrSlotNotAvailable):
			return s.replayOr(ctx, req, err)
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", req.DoctorID.String()),
		zap.String("date", req.Day.String()),
		zap.String("time_slot", req.TimeSlot),
		zap.String("status", string(created.Status)),
	)

	s.logEvent(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"user_id":   req.UserID.String(),
		"pet_id":    req.PetID.String(),
		"doctor_id": req.DoctorID.String(),
		"date":      req.Day.String(),
		"time_slot": req.TimeSlot,
	})

	return created, nil
}

// replayOr returns the caller's own active appointment for the requested
// slot when there is one, so a retried booking sees its original outcome.
// Otherwise it returns fallback, upgraded to a conflict if someone else
// holds the slot.
func (s *Service) replayOr(ctx context.Context, req BookingRequest, fallback error) (*Appointment, error) {
	holder, err := s.repo.FindActiveAppointment(ctx, req.DoctorID, req.Day, req.TimeSlot)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fallback
		}
		return nil, fmt.Errorf("check active appointment: %w", err)
	}

	if holder.UserID == req.UserID && holder.PetID == req.PetID {
		s.logger.Info("booking replayed",
			zap.String("appointment_id", holder.ID.String()),
			zap.String("user_id", req.UserID.String()),
		)
		return holder, nil
	}

	return nil, ErrSlotAlreadyBooked
}

// UpdateAppointmentStatus applies a doctor's status change. Releasing
// statuses put the slot back into the day's availability. Setting the status
// an appointment already has is a no-op.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, doctorID, appointmentID uuid.UUID, status string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.DoctorID != doctorID {
		return nil, ErrNotAssignedDoctor
	}

	target, ok := ParseTargetStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	for attempt := 1; ; attempt++ {
		if appt.Status == target {
			return appt, nil
		}
		if !appt.Status.CanTransitionTo(target) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, appt.Status, target)
		}

		updated, err := s.repo.ChangeStatus(ctx, appt.ID, appt.Status, target)
		if err == nil {
			s.metrics.StatusChange(string(target))
			s.logger.Info("appointment status changed",
				zap.String("appointment_id", appt.ID.String()),
				zap.String("from", string(appt.Status)),
				zap.String("to", string(target)),
				zap.Bool("slot_released", appt.Status.HoldsSlot() && !target.HoldsSlot()),
			)
			s.logEvent(ctx, appt.ID, EventStatusChanged, map[string]any{
				"from": appt.Status,
				"to":   target,
			})
			return updated, nil
		}
		if !errors.Is(err, ErrStatusChanged) || attempt == maxStatusAttempts {
			return nil, fmt.Errorf("change status: %w", err)
		}

		// Lost a race with another update; re-read and re-check.
		appt, err = s.repo.GetAppointmentByID(ctx, appointmentID)
		if err != nil {
			return nil, fmt.Errorf("reload appointment: %w", err)
		}
	}
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentDetail, error) {
	appointments, err := s.repo.ListAppointmentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by user: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	appointments, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	var apptID *uuid.UUID
	if appointmentID != uuid.Nil {
		apptID = &appointmentID
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.Stringer("appointment_id", appointmentID),
			zap.Error(err),
		)
	}
}
