package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return appointment.ValidSlotLabel(fl.Field().String())
	})
	return v
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
	City  string `json:"city" validate:"omitempty,max=100"`
}

func (r CreateUserRequest) toNewUser() account.NewUser {
	return account.NewUser{Name: r.Name, Email: r.Email, Phone: r.Phone, City: r.City}
}

type CreateDoctorRequest struct {
	Name              string  `json:"name" validate:"required,min=2,max=100"`
	Email             string  `json:"email" validate:"required,email"`
	Phone             string  `json:"phone" validate:"omitempty,max=20"`
	AppointmentCharge float64 `json:"appointmentCharge" validate:"gte=0"`
	StartTime         string  `json:"startTime" validate:"required,hhmm"`
	EndTime           string  `json:"endTime" validate:"required,hhmm"`
}

func (r CreateDoctorRequest) toNewDoctor() account.NewDoctor {
	return account.NewDoctor{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		AppointmentCharge: r.AppointmentCharge,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
	}
}

type CreatePetRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Type  string `json:"type" validate:"required,max=50"`
	Breed string `json:"breed" validate:"omitempty,max=100"`
	Age   int    `json:"age" validate:"gte=0,lte=100"`
}

type CreateAppointmentRequest struct {
	PetID    string `json:"petId" validate:"required,uuid"`
	DoctorID string `json:"doctorId" validate:"required,uuid"`
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"timeSlot" validate:"required"`
}

type UpdateStatusRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required,uuid"`
	Status        string `json:"status" validate:"required"`
}

type AppointmentResponse struct {
	Message     string                   `json:"message"`
	Appointment *appointment.Appointment `json:"appointment"`
}

type SlotsResponse struct {
	DoctorID       string   `json:"doctorId"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
