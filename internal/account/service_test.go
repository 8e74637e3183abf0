package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockRepository) CreateDoctor(ctx context.Context, d NewDoctor) (*Doctor, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Doctor), args.Error(1)
}

func (m *MockRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Doctor), args.Error(1)
}

func (m *MockRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Doctor), args.Error(1)
}

func (m *MockRepository) CreatePet(ctx context.Context, p NewPet) (*Pet, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pet), args.Error(1)
}

func (m *MockRepository) GetPetByID(ctx context.Context, id uuid.UUID) (*Pet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pet), args.Error(1)
}

func (m *MockRepository) ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Pet, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]Pet), args.Error(1)
}

func setupTestService() (*Service, *MockRepository) {
	repo := &MockRepository{}
	return NewService(repo, zap.NewNop()), repo
}

func TestRegisterUser_NormalizesEmail(t *testing.T) {
	svc, repo := setupTestService()
	ctx := context.Background()

	in := NewUser{Name: "Ana", Email: "  Ana@Example.COM ", Phone: "555", City: "Lisbon"}
	want := NewUser{Name: "Ana", Email: "ana@example.com", Phone: "555", City: "Lisbon"}
	repo.On("CreateUser", ctx, want).Return(&User{ID: uuid.New(), Email: want.Email}, nil)

	user, err := svc.RegisterUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	repo.AssertExpectations(t)
}

func TestRegisterUser_EmailTaken(t *testing.T) {
	svc, repo := setupTestService()
	ctx := context.Background()

	repo.On("CreateUser", ctx, mock.Anything).Return(nil, ErrEmailTaken)

	_, err := svc.RegisterUser(ctx, NewUser{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterDoctor_WorkingHours(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"regular day", "09:00", "17:00", false},
		{"equal bounds", "09:00", "09:00", true},
		{"reversed", "17:00", "09:00", true},
		{"bad start", "9am", "17:00", true},
		{"bad end", "09:00", "25:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupTestService()
			ctx := context.Background()
			repo.On("CreateDoctor", ctx, mock.Anything).Return(&Doctor{ID: uuid.New()}, nil)

			_, err := svc.RegisterDoctor(ctx, NewDoctor{Email: "doc@vet.test", StartTime: tt.start, EndTime: tt.end})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWorkingHours)
				repo.AssertNotCalled(t, "CreateDoctor", mock.Anything, mock.Anything)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegisterPet_UnknownOwner(t *testing.T) {
	svc, repo := setupTestService()
	ctx := context.Background()
	ownerID := uuid.New()

	repo.On("GetUserByID", ctx, ownerID).Return(nil, ErrUserNotFound)

	_, err := svc.RegisterPet(ctx, NewPet{OwnerID: ownerID, Name: "Rex"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	repo.AssertNotCalled(t, "CreatePet", mock.Anything, mock.Anything)
}

func TestRegisterPet_Success(t *testing.T) {
	svc, repo := setupTestService()
	ctx := context.Background()
	ownerID := uuid.New()
	in := NewPet{OwnerID: ownerID, Name: "Rex", Type: "dog"}

	repo.On("GetUserByID", ctx, ownerID).Return(&User{ID: ownerID}, nil)
	repo.On("CreatePet", ctx, in).Return(&Pet{ID: uuid.New(), OwnerID: ownerID, Name: "Rex"}, nil)

	pet, err := svc.RegisterPet(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, ownerID, pet.OwnerID)
	repo.AssertExpectations(t)
}

func TestListPetsByOwner_StorageError(t *testing.T) {
	svc, repo := setupTestService()
	ctx := context.Background()
	ownerID := uuid.New()

	repo.On("GetUserByID", ctx, ownerID).Return(&User{ID: ownerID}, nil)
	repo.On("ListPetsByOwner", ctx, ownerID).Return([]Pet(nil), errors.New("connection reset"))

	_, err := svc.ListPetsByOwner(ctx, ownerID)
	assert.ErrorContains(t, err, "list pets")
}
