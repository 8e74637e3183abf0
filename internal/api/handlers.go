package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/auth"
)

func availableSlotsHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		raw := r.URL.Query().Get("date")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date is required")
			return
		}
		day, err := appointment.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		slots, err := svc.GetAvailableSlots(r.Context(), doctorID, day)
		if err != nil {
			switch {
			case errors.Is(err, appointment.ErrDoctorNotFound):
				writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
			case errors.Is(err, appointment.ErrInvalidDate):
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			default:
				writeInternal(w, r, logger, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			DoctorID:       doctorID.String(),
			Date:           day.String(),
			AvailableSlots: slots,
		})
	}
}

func createAppointmentHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.FromContext(r.Context())

		var req CreateAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		day, err := appointment.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), appointment.BookingRequest{
			UserID:   principal.ID,
			PetID:    uuid.MustParse(req.PetID),
			DoctorID: uuid.MustParse(req.DoctorID),
			Day:      day,
			TimeSlot: req.TimeSlot,
		})
		if err != nil {
			handleCreateError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentResponse{
			Message:     "Appointment created successfully",
			Appointment: appt,
		})
	}
}

func updateStatusHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := auth.FromContext(r.Context())

		var req UpdateStatusRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.UpdateAppointmentStatus(r.Context(), principal.ID, uuid.MustParse(req.AppointmentID), req.Status)
		if err != nil {
			handleUpdateStatusError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{
			Message:     "Appointment " + string(appt.Status),
			Appointment: appt,
		})
	}
}

func getAppointmentHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, appointment.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeInternal(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, detail)
	}
}

func userAppointmentsHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a valid UUID")
			return
		}

		list, err := svc.ListAppointmentsByUser(r.Context(), userID)
		if err != nil {
			writeInternal(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}

func doctorAppointmentsHandler(svc AppointmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		list, err := svc.ListAppointmentsByDoctor(r.Context(), doctorID)
		if err != nil {
			writeInternal(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreateError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, appointment.ErrPetNotOwned):
		writeError(w, http.StatusForbidden, "pet_not_owned", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "availability_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotNotAvailable):
		writeError(w, http.StatusBadRequest, "slot_not_available", err.Error())
	case errors.Is(err, appointment.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_time_slot", err.Error())
	case errors.Is(err, appointment.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, appointment.ErrSlotAlreadyBooked):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeInternal(w, r, logger, err)
	}
}

func handleUpdateStatusError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrNotAssignedDoctor):
		writeError(w, http.StatusForbidden, "not_assigned_doctor", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeInternal(w, r, logger, err)
	}
}
