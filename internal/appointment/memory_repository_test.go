package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
)

type dayKey struct {
	doctorID uuid.UUID
	day      string
}

// memRepository is an in-memory Repository and Directory that enforces the
// same constraints as the Postgres schema: one record per doctor day and one
// holding appointment per slot.
type memRepository struct {
	mu sync.Mutex

	doctors      map[uuid.UUID]*account.Doctor
	pets         map[uuid.UUID]*account.Pet
	users        map[uuid.UUID]*account.User
	days         map[dayKey]*DayAvailability
	appointments map[uuid.UUID]*Appointment
	order        []uuid.UUID
	events       []EventLog

	dayCreates int

	// beforeCreateDay runs before CreateDayAvailability takes the lock.
	beforeCreateDay func()
	// changeStatusErrs are returned, in order, by ChangeStatus before it
	// does any work.
	changeStatusErrs []error
	eventErr         error
	bookErr          error
}

func newMemRepository() *memRepository {
	return &memRepository{
		doctors:      map[uuid.UUID]*account.Doctor{},
		pets:         map[uuid.UUID]*account.Pet{},
		users:        map[uuid.UUID]*account.User{},
		days:         map[dayKey]*DayAvailability{},
		appointments: map[uuid.UUID]*Appointment{},
	}
}

func (r *memRepository) addDoctor(start, end string) *account.Doctor {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &account.Doctor{ID: uuid.New(), Name: "Dr. Vet", StartTime: start, EndTime: end}
	r.doctors[d.ID] = d
	return d
}

func (r *memRepository) setHours(doctorID uuid.UUID, start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[doctorID].StartTime = start
	r.doctors[doctorID].EndTime = end
}

func (r *memRepository) addOwnerWithPet() (*account.User, *account.Pet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &account.User{ID: uuid.New(), Name: "Owner"}
	p := &account.Pet{ID: uuid.New(), OwnerID: u.ID, Name: "Rex", Type: "dog"}
	r.users[u.ID] = u
	r.pets[p.ID] = p
	return u, p
}

func (r *memRepository) day(doctorID uuid.UUID, day Date) *DayAvailability {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.days[dayKey{doctorID, day.String()}]
	if !ok {
		return nil
	}
	cp := *d
	cp.AvailableSlots = cloneSlots(d.AvailableSlots)
	cp.GeneratedSlots = cloneSlots(d.GeneratedSlots)
	return &cp
}

func (r *memRepository) setAvailable(doctorID uuid.UUID, day Date, slots []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[dayKey{doctorID, day.String()}].AvailableSlots = slots
}

func (r *memRepository) activeHolders(doctorID uuid.UUID, day Date, slot string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Day.Equal(day) && a.TimeSlot == slot && a.Status.HoldsSlot() {
			n++
		}
	}
	return n
}

// Directory

func (r *memRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*account.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, account.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepository) GetPetByID(_ context.Context, id uuid.UUID) (*account.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, account.ErrPetNotFound
	}
	cp := *p
	return &cp, nil
}

// Repository

func (r *memRepository) GetDayAvailability(_ context.Context, doctorID uuid.UUID, day Date) (*DayAvailability, error) {
	d := r.day(doctorID, day)
	if d == nil {
		return nil, ErrAvailabilityNotFound
	}
	return d, nil
}

func (r *memRepository) CreateDayAvailability(_ context.Context, doctorID uuid.UUID, day Date, slots []string) (*DayAvailability, error) {
	if r.beforeCreateDay != nil {
		r.beforeCreateDay()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey{doctorID, day.String()}
	if _, ok := r.days[key]; ok {
		return nil, ErrAvailabilityExists
	}

	now := time.Now()
	d := &DayAvailability{
		DoctorID:       doctorID,
		Day:            day,
		GeneratedSlots: cloneSlots(slots),
		AvailableSlots: cloneSlots(slots),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.days[key] = d
	r.dayCreates++

	cp := *d
	cp.AvailableSlots = cloneSlots(slots)
	return &cp, nil
}

func (r *memRepository) findActiveLocked(doctorID uuid.UUID, day Date, slot string) *Appointment {
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Day.Equal(day) && a.TimeSlot == slot && a.Status.HoldsSlot() {
			return a
		}
	}
	return nil
}

func (r *memRepository) FindActiveAppointment(_ context.Context, doctorID uuid.UUID, day Date, slot string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.findActiveLocked(doctorID, day, slot)
	if a == nil {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepository) BookSlot(_ context.Context, in NewAppointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bookErr != nil {
		return nil, r.bookErr
	}

	d, ok := r.days[dayKey{in.DoctorID, in.Day.String()}]
	if !ok || !d.HasSlot(in.TimeSlot) {
		if r.findActiveLocked(in.DoctorID, in.Day, in.TimeSlot) != nil {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, ErrSlotNotAvailable
	}
	if r.findActiveLocked(in.DoctorID, in.Day, in.TimeSlot) != nil {
		return nil, ErrSlotAlreadyBooked
	}

	remaining := make([]string, 0, len(d.AvailableSlots))
	for _, s := range d.AvailableSlots {
		if s != in.TimeSlot {
			remaining = append(remaining, s)
		}
	}
	d.AvailableSlots = remaining

	now := time.Now()
	a := &Appointment{
		ID:        uuid.New(),
		UserID:    in.UserID,
		PetID:     in.PetID,
		DoctorID:  in.DoctorID,
		Day:       in.Day,
		TimeSlot:  in.TimeSlot,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.appointments[a.ID] = a
	r.order = append(r.order, a.ID)

	cp := *a
	return &cp, nil
}

func (r *memRepository) ChangeStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.changeStatusErrs) > 0 {
		err := r.changeStatusErrs[0]
		r.changeStatusErrs = r.changeStatusErrs[1:]
		return nil, err
	}

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrStatusChanged
	}
	a.Status = to
	a.UpdatedAt = time.Now()

	if from.HoldsSlot() && !to.HoldsSlot() {
		if d, ok := r.days[dayKey{a.DoctorID, a.Day.String()}]; ok && !d.HasSlot(a.TimeSlot) {
			d.AvailableSlots = append(d.AvailableSlots, a.TimeSlot)
			sort.Strings(d.AvailableSlots)
		}
	}

	cp := *a
	return &cp, nil
}

func (r *memRepository) detailLocked(a *Appointment) AppointmentDetail {
	return AppointmentDetail{
		Appointment: *a,
		User:        r.users[a.UserID],
		Pet:         r.pets[a.PetID],
		Doctor:      r.doctors[a.DoctorID],
	}
}

func (r *memRepository) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := r.detailLocked(a)
	return &d, nil
}

func (r *memRepository) list(match func(*Appointment) bool) []AppointmentDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []AppointmentDetail{}
	for i := len(r.order) - 1; i >= 0; i-- {
		a := r.appointments[r.order[i]]
		if match(a) {
			out = append(out, r.detailLocked(a))
		}
	}
	return out
}

func (r *memRepository) ListAppointmentsByUser(_ context.Context, userID uuid.UUID) ([]AppointmentDetail, error) {
	return r.list(func(a *Appointment) bool { return a.UserID == userID }), nil
}

func (r *memRepository) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *memRepository) ReconcileAvailability(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fixed := 0
	for _, d := range r.days {
		expected := []string{}
		for _, s := range d.GeneratedSlots {
			if r.findActiveLocked(d.DoctorID, d.Day, s) == nil {
				expected = append(expected, s)
			}
		}
		if !equalSlots(expected, d.AvailableSlots) {
			d.AvailableSlots = expected
			fixed++
		}
	}
	return fixed, nil
}

func (r *memRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventErr != nil {
		return r.eventErr
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepository) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

func equalSlots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
