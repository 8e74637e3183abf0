package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidWorkingHours = errors.New("working hours must be HH:MM with start before end")

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) RegisterUser(ctx context.Context, u NewUser) (*User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	user, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) RegisterDoctor(ctx context.Context, d NewDoctor) (*Doctor, error) {
	if err := checkWorkingHours(d.StartTime, d.EndTime); err != nil {
		return nil, err
	}
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))

	doctor, err := s.repo.CreateDoctor(ctx, d)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register doctor: %w", err)
	}

	s.logger.Info("doctor registered",
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("start_time", doctor.StartTime),
		zap.String("end_time", doctor.EndTime),
	)
	return doctor, nil
}

// RegisterPet creates a pet owned by ownerID, which must be a known user.
func (s *Service) RegisterPet(ctx context.Context, p NewPet) (*Pet, error) {
	if _, err := s.repo.GetUserByID(ctx, p.OwnerID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}

	pet, err := s.repo.CreatePet(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("register pet: %w", err)
	}

	s.logger.Info("pet registered",
		zap.String("pet_id", pet.ID.String()),
		zap.String("owner_id", p.OwnerID.String()),
	)
	return pet, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pet, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load owner: %w", err)
	}

	pets, err := s.repo.ListPetsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	return pets, nil
}

func checkWorkingHours(start, end string) error {
	from, err := time.Parse("15:04", start)
	if err != nil {
		return ErrInvalidWorkingHours
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return ErrInvalidWorkingHours
	}
	if !from.Before(to) {
		return ErrInvalidWorkingHours
	}
	return nil
}
