package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/db"
)

const activeSlotIndex = "uq_appointments_active_slot"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDayAvailability(row pgx.Row) (*DayAvailability, error) {
	var d DayAvailability
	var day time.Time

	err := row.Scan(
		&d.DoctorID,
		&day,
		&d.GeneratedSlots,
		&d.AvailableSlots,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	d.Day = NewDate(day)
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var day time.Time

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.PetID,
		&a.DoctorID,
		&day,
		&a.TimeSlot,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Day = NewDate(day)
	return &a, nil
}

const appointmentColumns = `id, user_id, pet_id, doctor_id, day, time_slot, status, created_at, updated_at`

const detailSelect = `
	SELECT a.id, a.user_id, a.pet_id, a.doctor_id, a.day, a.time_slot, a.status, a.created_at, a.updated_at,
	       u.id, u.name, u.email, u.phone, u.city, u.created_at, u.updated_at,
	       p.id, p.owner_id, p.name, p.type, p.breed, p.age, p.created_at, p.updated_at,
	       d.id, d.name, d.email, d.phone, d.appointment_charge, d.start_time, d.end_time, d.created_at, d.updated_at
	FROM appointments a
	JOIN users u ON u.id = a.user_id
	JOIN pets p ON p.id = a.pet_id
	JOIN doctors d ON d.id = a.doctor_id
`

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var (
		det    AppointmentDetail
		day    time.Time
		user   account.User
		pet    account.Pet
		doctor account.Doctor
	)

	err := row.Scan(
		&det.ID, &det.UserID, &det.PetID, &det.DoctorID, &day, &det.TimeSlot, &det.Status, &det.CreatedAt, &det.UpdatedAt,
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.City, &user.CreatedAt, &user.UpdatedAt,
		&pet.ID, &pet.OwnerID, &pet.Name, &pet.Type, &pet.Breed, &pet.Age, &pet.CreatedAt, &pet.UpdatedAt,
		&doctor.ID, &doctor.Name, &doctor.Email, &doctor.Phone, &doctor.AppointmentCharge,
		&doctor.StartTime, &doctor.EndTime, &doctor.CreatedAt, &doctor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	det.Day = NewDate(day)
	det.User = &user
	det.Pet = &pet
	det.Doctor = &doctor
	return &det, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	result := []AppointmentDetail{}
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) GetDayAvailability(ctx context.Context, doctorID uuid.UUID, day Date) (*DayAvailability, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT doctor_id, day, generated_slots, available_slots, created_at, updated_at
		FROM day_availability
		WHERE doctor_id = $1 AND day = $2
	`, doctorID, day.Time())
	return scanDayAvailability(row)
}

func (r *PgRepository) CreateDayAvailability(ctx context.Context, doctorID uuid.UUID, day Date, slots []string) (*DayAvailability, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO day_availability (doctor_id, day, generated_slots, available_slots, created_at, updated_at)
		VALUES ($1, $2, $3, $3, now(), now())
		ON CONFLICT (doctor_id, day) DO NOTHING
		RETURNING doctor_id, day, generated_slots, available_slots, created_at, updated_at
	`, doctorID, day.Time(), slots)

	d, err := scanDayAvailability(row)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			// DO NOTHING returns no row: someone else won the insert
			return nil, ErrAvailabilityExists
		}
		return nil, fmt.Errorf("insert day availability: %w", err)
	}
	return d, nil
}

func (r *PgRepository) FindActiveAppointment(ctx context.Context, doctorID uuid.UUID, day Date, slot string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND day = $2 AND time_slot = $3
		  AND status IN ('pending', 'confirmed')
	`, doctorID, day.Time(), slot)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) BookSlot(ctx context.Context, in NewAppointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The slot must still be listed; the row lock taken here serialises
	// bookings for the same doctor and day.
	tag, err := tx.Exec(ctx, `
		UPDATE day_availability
		SET available_slots = array_remove(available_slots, $3::text),
		    updated_at = now()
		WHERE doctor_id = $1 AND day = $2
		  AND $3::text = ANY(available_slots)
	`, in.DoctorID, in.Day.Time(), in.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("remove slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var held bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE doctor_id = $1 AND day = $2 AND time_slot = $3
				  AND status IN ('pending', 'confirmed')
			)
		`, in.DoctorID, in.Day.Time(), in.TimeSlot).Scan(&held)
		if err != nil {
			return nil, fmt.Errorf("check slot holder: %w", err)
		}
		if held {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, ErrSlotNotAvailable
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, pet_id, doctor_id, day, time_slot, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, uuid.New(), in.UserID, in.PetID, in.DoctorID, in.Day.Time(), in.TimeSlot, in.Status)

	appt, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotIndex) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return appt, nil
}

func (r *PgRepository) ChangeStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	if from.HoldsSlot() && !to.HoldsSlot() {
		// set union, kept sorted; HH:MM sorts chronologically
		_, err := tx.Exec(ctx, `
			UPDATE day_availability
			SET available_slots = ARRAY(
			        SELECT DISTINCT s
			        FROM unnest(array_append(available_slots, $3::text)) AS s
			        ORDER BY s
			    ),
			    updated_at = now()
			WHERE doctor_id = $1 AND day = $2
		`, appt.DoctorID, appt.Day.Time(), appt.TimeSlot)
		if err != nil {
			return nil, fmt.Errorf("restore slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return appt, nil
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailSelect+`WHERE a.id = $1`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.user_id = $1
		ORDER BY a.day DESC, a.time_slot DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.doctor_id = $1
		ORDER BY a.day DESC, a.time_slot DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// expectedSlots is the free list a day should have: its generated slots
// minus those held by a pending or confirmed appointment.
const expectedSlots = `
	ARRAY(
		SELECT g
		FROM unnest(da.generated_slots) WITH ORDINALITY AS t(g, ord)
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.doctor_id = da.doctor_id AND a.day = da.day AND a.time_slot = g
			  AND a.status IN ('pending', 'confirmed')
		)
		ORDER BY ord
	)
`

// ReconcileAvailability rewrites the free list of every current or future
// day that disagrees with its appointments. Each day is fixed under its row
// lock so in-flight bookings finish first.
func (r *PgRepository) ReconcileAvailability(ctx context.Context) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT da.doctor_id, da.day
		FROM day_availability da
		WHERE da.day >= CURRENT_DATE
		  AND da.available_slots IS DISTINCT FROM `+expectedSlots)
	if err != nil {
		return 0, fmt.Errorf("find drifted days: %w", err)
	}

	type dayKey struct {
		doctorID uuid.UUID
		day      time.Time
	}
	var drifted []dayKey
	for rows.Next() {
		var k dayKey
		if err := rows.Scan(&k.doctorID, &k.day); err != nil {
			rows.Close()
			return 0, err
		}
		drifted = append(drifted, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	fixed := 0
	for _, k := range drifted {
		ok, err := r.reconcileDay(ctx, k.doctorID, k.day)
		if err != nil {
			return fixed, err
		}
		if ok {
			fixed++
		}
	}

	return fixed, nil
}

func (r *PgRepository) reconcileDay(ctx context.Context, doctorID uuid.UUID, day time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		SELECT 1 FROM day_availability WHERE doctor_id = $1 AND day = $2 FOR UPDATE
	`, doctorID, day); err != nil {
		return false, fmt.Errorf("lock day availability: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE day_availability da
		SET available_slots = `+expectedSlots+`,
		    updated_at = now()
		WHERE da.doctor_id = $1 AND da.day = $2
		  AND da.available_slots IS DISTINCT FROM `+expectedSlots, doctorID, day)
	if err != nil {
		return false, fmt.Errorf("rewrite day availability: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
