package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/auth"
)

func registerUserHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, err := svc.RegisterUser(r.Context(), req.toNewUser())
		if err != nil {
			handleAccountError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

func listUsersHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		if err != nil {
			writeInternal(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func registerDoctorHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoctorRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		doctor, err := svc.RegisterDoctor(r.Context(), req.toNewDoctor())
		if err != nil {
			handleAccountError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, doctor)
	}
}

func listDoctorsHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeInternal(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	}
}

// registerPetHandler creates a pet owned by the caller.
func registerPetHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.FromContext(r.Context())

		var req CreatePetRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		pet, err := svc.RegisterPet(r.Context(), account.NewPet{
			OwnerID: principal.ID,
			Name:    req.Name,
			Type:    req.Type,
			Breed:   req.Breed,
			Age:     req.Age,
		})
		if err != nil {
			handleAccountError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, pet)
	}
}

func userPetsHandler(svc AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a valid UUID")
			return
		}

		pets, err := svc.ListPetsByOwner(r.Context(), userID)
		if err != nil {
			handleAccountError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, pets)
	}
}

func handleAccountError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, account.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, account.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, account.ErrPetNotFound):
		writeError(w, http.StatusNotFound, "pet_not_found", err.Error())
	case errors.Is(err, account.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, account.ErrInvalidWorkingHours):
		writeError(w, http.StatusBadRequest, "invalid_working_hours", err.Error())
	default:
		writeInternal(w, r, logger, err)
	}
}
