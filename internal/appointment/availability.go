package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
)

// GetAvailableSlots returns the free slots of a doctor's day. The first call
// for a day generates them from the doctor's working hours and stores the
// result; later calls return the stored list even if the working hours have
// changed since.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, day Date) ([]string, error) {
	if day.IsZero() {
		return nil, ErrInvalidDate
	}

	existing, err := s.repo.GetDayAvailability(ctx, doctorID, day)
	if err == nil {
		return cloneSlots(existing.AvailableSlots), nil
	}
	if !errors.Is(err, ErrAvailabilityNotFound) {
		return nil, fmt.Errorf("load day availability: %w", err)
	}

	doctor, err := s.directory.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, account.ErrDoctorNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	slots, err := GenerateSlots(doctor.StartTime, doctor.EndTime)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, err)
	}

	created, err := s.repo.CreateDayAvailability(ctx, doctorID, day, slots)
	if err != nil {
		if !errors.Is(err, ErrAvailabilityExists) {
			return nil, fmt.Errorf("create day availability: %w", err)
		}

		// A concurrent caller created the day first; its record wins.
		winner, err := s.repo.GetDayAvailability(ctx, doctorID, day)
		if err != nil {
			return nil, fmt.Errorf("reload day availability: %w", err)
		}
		return cloneSlots(winner.AvailableSlots), nil
	}

	s.metrics.DayGenerated()
	s.logger.Info("day availability generated",
		zap.String("doctor_id", doctorID.String()),
		zap.String("date", day.String()),
		zap.Int("slots", len(slots)),
	)
	s.logEvent(ctx, uuid.Nil, EventAvailabilityGenerated, map[string]any{
		"doctor_id": doctorID.String(),
		"date":      day.String(),
		"slots":     slots,
	})

	return cloneSlots(created.AvailableSlots), nil
}

// ReconcileAvailability repairs day records whose free list no longer
// matches the appointments holding their slots. Run by the reconcile worker.
func (s *Service) ReconcileAvailability(ctx context.Context) (int, error) {
	fixed, err := s.repo.ReconcileAvailability(ctx)
	if err != nil {
		return fixed, fmt.Errorf("reconcile availability: %w", err)
	}

	s.metrics.DaysReconciled(fixed)
	if fixed > 0 {
		s.logger.Warn("day availability drift repaired", zap.Int("days", fixed))
	}

	return fixed, nil
}

func cloneSlots(slots []string) []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}
