package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrPetNotFound    = errors.New("pet not found")
	ErrEmailTaken     = errors.New("email already registered")
)

// Repository contains all DB interactions needed by the account service.
type Repository interface {
	CreateUser(ctx context.Context, u NewUser) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CreateDoctor(ctx context.Context, d NewDoctor) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)

	CreatePet(ctx context.Context, p NewPet) (*Pet, error)
	GetPetByID(ctx context.Context, id uuid.UUID) (*Pet, error)
	ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pet, error)
}
