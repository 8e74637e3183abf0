package account

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Doctor carries the working hours slot generation is derived from.
// StartTime and EndTime are HH:MM labels.
type Doctor struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	AppointmentCharge float64   `json:"appointmentCharge"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Pet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Breed     string    `json:"breed"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NewUser struct {
	Name  string
	Email string
	Phone string
	City  string
}

type NewDoctor struct {
	Name              string
	Email             string
	Phone             string
	AppointmentCharge float64
	StartTime         string
	EndTime           string
}

type NewPet struct {
	OwnerID uuid.UUID
	Name    string
	Type    string
	Breed   string
	Age     int
}
