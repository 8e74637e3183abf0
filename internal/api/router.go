package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/appointment"
	"github.com/hackgods/clinic-appointment-booking/internal/auth"
	"github.com/hackgods/clinic-appointment-booking/internal/metrics"
)

type AppointmentService interface {
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, day appointment.Date) ([]string, error)
	CreateAppointment(ctx context.Context, req appointment.BookingRequest) (*appointment.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, doctorID, appointmentID uuid.UUID, status string) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.AppointmentDetail, error)
	ListAppointmentsByUser(ctx context.Context, userID uuid.UUID) ([]appointment.AppointmentDetail, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.AppointmentDetail, error)
}

type AccountService interface {
	RegisterUser(ctx context.Context, u account.NewUser) (*account.User, error)
	RegisterDoctor(ctx context.Context, d account.NewDoctor) (*account.Doctor, error)
	RegisterPet(ctx context.Context, p account.NewPet) (*account.Pet, error)
	ListUsers(ctx context.Context) ([]account.User, error)
	ListDoctors(ctx context.Context) ([]account.Doctor, error)
	ListPetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]account.Pet, error)
}

type RouterConfig struct {
	Appointments AppointmentService
	Accounts     AccountService
	Issuer       *auth.Issuer
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	Logger       *zap.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Registry != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Registry))
	}

	authenticated := auth.Middleware(cfg.Issuer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", registerUserHandler(cfg.Accounts, logger))
		r.Get("/users", listUsersHandler(cfg.Accounts, logger))
		r.Post("/doctors", registerDoctorHandler(cfg.Accounts, logger))
		r.Get("/doctors", listDoctorsHandler(cfg.Accounts, logger))

		r.Route("/pets", func(r chi.Router) {
			r.Use(authenticated)
			r.With(RequireRole(auth.RoleUser)).Post("/", registerPetHandler(cfg.Accounts, logger))
			r.Get("/user/{userId}", userPetsHandler(cfg.Accounts, logger))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/doctor/{doctorId}/slots", availableSlotsHandler(cfg.Appointments, logger))
			r.With(authenticated, RequireRole(auth.RoleUser)).
				Post("/create", createAppointmentHandler(cfg.Appointments, logger))
			r.With(authenticated, RequireRole(auth.RoleDoctor)).
				Patch("/update-status", updateStatusHandler(cfg.Appointments, logger))
			r.Get("/user/{userId}", userAppointmentsHandler(cfg.Appointments, logger))
			r.Get("/doctor/{doctorId}", doctorAppointmentsHandler(cfg.Appointments, logger))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments, logger))
		})
	})

	return r
}
