package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-appointment-booking/internal/account"
	"github.com/hackgods/clinic-appointment-booking/internal/auth"
	"github.com/hackgods/clinic-appointment-booking/internal/config"
	"github.com/hackgods/clinic-appointment-booking/internal/db"
	"github.com/hackgods/clinic-appointment-booking/internal/logging"
)

var workingHours = [][2]string{
	{"08:00", "16:00"},
	{"09:00", "17:00"},
	{"10:00", "18:00"},
	{"09:30", "13:30"},
	{"14:00", "20:00"},
}

var petTypes = []string{"dog", "cat", "rabbit", "parrot", "hamster"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.Env).Named("seed")
	defer func() { _ = logger.Sync() }()

	doctorCount := getInt("SEED_DOCTORS", 10)
	userCount := getInt("SEED_USERS", 200)
	petsPerUser := getInt("SEED_PETS_PER_USER", 2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	svc := account.NewService(account.NewPgRepository(pool), zap.NewNop())
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	doctors, err := seedDoctors(ctx, svc, doctorCount)
	if err != nil {
		logger.Fatal("seed doctors", zap.Error(err))
	}
	logger.Info("doctors seeded", zap.Int("count", len(doctors)))

	users, err := seedUsers(ctx, svc, userCount, petsPerUser)
	if err != nil {
		logger.Fatal("seed users", zap.Error(err))
	}
	logger.Info("users and pets seeded", zap.Int("users", len(users)), zap.Int("pets_per_user", petsPerUser))

	// One token per role is enough to drive the API by hand.
	if len(doctors) > 0 {
		printToken(issuer, "doctor", auth.Principal{ID: doctors[0].ID, Role: auth.RoleDoctor})
	}
	if len(users) > 0 {
		printToken(issuer, "user", auth.Principal{ID: users[0].ID, Role: auth.RoleUser})
	}

	logger.Info("seed complete")
}

func seedDoctors(ctx context.Context, svc *account.Service, count int) ([]account.Doctor, error) {
	doctors := make([]account.Doctor, 0, count)

	for i := 0; i < count; i++ {
		hours := workingHours[gofakeit.Number(0, len(workingHours)-1)]

		d, err := svc.RegisterDoctor(ctx, account.NewDoctor{
			Name:              "Dr. " + gofakeit.Name(),
			Email:             gofakeit.Email(),
			Phone:             gofakeit.Phone(),
			AppointmentCharge: float64(gofakeit.Number(20, 150)),
			StartTime:         hours[0],
			EndTime:           hours[1],
		})
		if errors.Is(err, account.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return doctors, err
		}
		doctors = append(doctors, *d)
	}

	return doctors, nil
}

func seedUsers(ctx context.Context, svc *account.Service, count, petsPerUser int) ([]account.User, error) {
	users := make([]account.User, 0, count)

	for i := 0; i < count; i++ {
		u, err := svc.RegisterUser(ctx, account.NewUser{
			Name:  gofakeit.Name(),
			Email: gofakeit.Email(),
			Phone: gofakeit.Phone(),
			City:  gofakeit.City(),
		})
		if errors.Is(err, account.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return users, err
		}
		users = append(users, *u)

		for j := 0; j < petsPerUser; j++ {
			if _, err := svc.RegisterPet(ctx, account.NewPet{
				OwnerID: u.ID,
				Name:    gofakeit.PetName(),
				Type:    petTypes[gofakeit.Number(0, len(petTypes)-1)],
				Breed:   gofakeit.Animal(),
				Age:     gofakeit.Number(0, 15),
			}); err != nil {
				return users, err
			}
		}
	}

	return users, nil
}

func printToken(issuer *auth.Issuer, label string, p auth.Principal) {
	token, err := issuer.Issue(p)
	if err != nil {
		log.Printf("issue %s token: %v", label, err)
		return
	}
	fmt.Printf("%s %s\n  Authorization: Bearer %s\n", label, p.ID, token)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
