package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// transitions lists the statuses reachable from each status. completed is
// only reachable through confirmed.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// ParseTargetStatus accepts the statuses a doctor may set.
func ParseTargetStatus(s string) (AppointmentStatus, bool) {
	switch st := AppointmentStatus(s); st {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, true
	}
	return "", false
}

// HoldsSlot reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DayAvailability is the free-slot record of one doctor on one day.
// GeneratedSlots is the list computed from working hours when the record was
// created and never changes; AvailableSlots shrinks on booking and grows back
// on release.
type DayAvailability struct {
	DoctorID       uuid.UUID
	Day            Date
	GeneratedSlots []string
	AvailableSlots []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (d *DayAvailability) HasSlot(slot string) bool {
	for _, s := range d.AvailableSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user"`
	PetID     uuid.UUID         `json:"pet"`
	DoctorID  uuid.UUID         `json:"doctor"`
	Day       Date              `json:"date"`
	TimeSlot  string            `json:"timeSlot"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewAppointment is what the allocator asks the repository to commit.
type NewAppointment struct {
	UserID   uuid.UUID
	PetID    uuid.UUID
	DoctorID uuid.UUID
	Day      Date
	TimeSlot string
	Status   AppointmentStatus
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AppointmentDetail is an appointment joined with the records it points to,
// for display only.
type AppointmentDetail struct {
	Appointment
	User   *account.User   `json:"userDetails"`
	Pet    *account.Pet    `json:"petDetails"`
	Doctor *account.Doctor `json:"doctorDetails"`
}
