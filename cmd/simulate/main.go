package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointment-booking/internal/auth"
	"github.com/hackgods/clinic-appointment-booking/internal/config"
	"github.com/hackgods/clinic-appointment-booking/internal/db"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	ReadRatio    float64
	DoctorLimit  int
	OwnerLimit   int
	Days         int
	PostgresDSN  string
	JWTSecret    string
}

type owner struct {
	ID    uuid.UUID
	Pets  []uuid.UUID
	Token string
}

type doctor struct {
	ID    uuid.UUID
	Token string
}

type booked struct {
	ID       uuid.UUID
	DoctorID uuid.UUID
}

type DataPool struct {
	Owners  []owner
	Doctors []doctor
	Dates   []string

	mu           sync.RWMutex
	appointments []booked
}

func (dp *DataPool) AddAppointment(b booked) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, b)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (booked, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return booked{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

func (dp *DataPool) doctorToken(id uuid.UUID) string {
	for _, d := range dp.Doctors {
		if d.ID == id {
			return d.Token
		}
	}
	return ""
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

// Record counts one call. 409 is a conflict, other 4xx a rejection.
func (om *OperationMetrics) Record(latency time.Duration, status int, ok bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case ok:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Slots        OperationMetrics
	Booking      OperationMetrics
	StatusUpdate OperationMetrics
	ReadByID     OperationMetrics
	ListByUser   OperationMetrics
	ListByDoctor OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f status=%.2f read=%.2f days=%d",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.StatusRatio, cfg.ReadRatio, cfg.Days)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.Duration+time.Hour)

	dataPool, err := loadDataPool(ctx, pgPool, issuer, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d owners, %d doctors, dates %v", len(dataPool.Owners), len(dataPool.Doctors), dataPool.Dates)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	checkCtx, cancelCheck := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelCheck()
	if err := checkConsistency(checkCtx, pgPool, dataPool.Dates); err != nil {
		log.Fatalf("consistency check failed: %v", err)
	}
	log.Println("consistency check passed: every slot is either free or held once")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 20),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 5),
		OwnerLimit:   getInt("SIM_OWNER_LIMIT", 200),
		Days:         getInt("SIM_DAYS", 2),
		PostgresDSN:  baseCfg.PostgresDSN,
		JWTSecret:    baseCfg.JWTSecret,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, issuer *auth.Issuer, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM doctors ORDER BY created_at LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		token, err := issuer.Issue(auth.Principal{ID: id, Role: auth.RoleDoctor})
		if err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, doctor{ID: id, Token: token})
	}
	rows.Close()

	rows, err = pool.Query(ctx, `
		SELECT p.owner_id, array_agg(p.id)
		FROM pets p
		GROUP BY p.owner_id
		LIMIT $1
	`, cfg.OwnerLimit)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	for rows.Next() {
		var o owner
		if err := rows.Scan(&o.ID, &o.Pets); err != nil {
			rows.Close()
			return nil, err
		}
		o.Token, err = issuer.Issue(auth.Principal{ID: o.ID, Role: auth.RoleUser})
		if err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Owners = append(dataPool.Owners, o)
	}
	rows.Close()

	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded, run cmd/seed first")
	}
	if len(dataPool.Owners) == 0 {
		return nil, fmt.Errorf("no pets loaded, run cmd/seed first")
	}

	for i := 1; i <= cfg.Days; i++ {
		dataPool.Dates = append(dataPool.Dates, time.Now().UTC().AddDate(0, 0, i).Format("2006-01-02"))
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			if r < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else if r < s.config.BookingRatio+s.config.StatusRatio {
				s.doStatusUpdate(ctx, rng)
			} else {
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByUser(ctx, rng)
				case 2:
					s.doListByDoctor(ctx, rng)
				}
			}
		}
	}
}

// call sends one request and returns the status code and body. status is 0
// when the request itself failed.
func (s *Simulator) call(ctx context.Context, method, path, token string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	d := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	o := s.pool.Owners[rng.Intn(len(s.pool.Owners))]
	date := s.pool.Dates[rng.Intn(len(s.pool.Dates))]

	start := time.Now()
	status, data := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/api/appointments/doctor/%s/slots?date=%s", d.ID, date), "", nil)
	s.metrics.Slots.Record(time.Since(start), status, status == http.StatusOK)
	if status != http.StatusOK {
		return
	}

	var slots struct {
		AvailableSlots []string `json:"availableSlots"`
	}
	if err := json.Unmarshal(data, &slots); err != nil || len(slots.AvailableSlots) == 0 {
		return
	}

	// Pick from the first few free slots so workers collide on purpose.
	n := len(slots.AvailableSlots)
	if n > 3 {
		n = 3
	}
	slot := slots.AvailableSlots[rng.Intn(n)]

	start = time.Now()
	status, data = s.call(ctx, http.MethodPost, "/api/appointments/create", o.Token, map[string]string{
		"petId":    o.Pets[rng.Intn(len(o.Pets))].String(),
		"doctorId": d.ID.String(),
		"date":     date,
		"timeSlot": slot,
	})
	s.metrics.Booking.Record(time.Since(start), status, status == http.StatusCreated)

	if status == http.StatusCreated {
		var resp struct {
			Appointment struct {
				ID uuid.UUID `json:"id"`
			} `json:"appointment"`
		}
		if err := json.Unmarshal(data, &resp); err == nil && resp.Appointment.ID != uuid.Nil {
			s.pool.AddAppointment(booked{ID: resp.Appointment.ID, DoctorID: d.ID})
		}
	}
}

func (s *Simulator) doStatusUpdate(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	statuses := []string{"confirmed", "cancelled", "completed"}

	start := time.Now()
	status, _ := s.call(ctx, http.MethodPatch, "/api/appointments/update-status", s.pool.doctorToken(b.DoctorID), map[string]string{
		"appointmentId": b.ID.String(),
		"status":        statuses[rng.Intn(len(statuses))],
	})
	s.metrics.StatusUpdate.Record(time.Since(start), status, status == http.StatusOK)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	b, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, _ := s.call(ctx, http.MethodGet, "/api/appointments/"+b.ID.String(), "", nil)
	s.metrics.ReadByID.Record(time.Since(start), status, status == http.StatusOK)
}

func (s *Simulator) doListByUser(ctx context.Context, rng *rand.Rand) {
	o := s.pool.Owners[rng.Intn(len(s.pool.Owners))]

	start := time.Now()
	status, _ := s.call(ctx, http.MethodGet, "/api/appointments/user/"+o.ID.String(), "", nil)
	s.metrics.ListByUser.Record(time.Since(start), status, status == http.StatusOK)
}

func (s *Simulator) doListByDoctor(ctx context.Context, rng *rand.Rand) {
	d := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	start := time.Now()
	status, _ := s.call(ctx, http.MethodGet, "/api/appointments/doctor/"+d.ID.String(), "", nil)
	s.metrics.ListByDoctor.Record(time.Since(start), status, status == http.StatusOK)
}

// checkConsistency verifies that no slot of the simulated days is both listed
// free and held by an active appointment, and that no generated slot is lost.
func checkConsistency(ctx context.Context, pool *pgxpool.Pool, dates []string) error {
	var broken int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM day_availability da
		CROSS JOIN LATERAL unnest(da.generated_slots) AS g
		WHERE da.day::text = ANY($1::text[])
		  AND (g = ANY(da.available_slots)) = EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.doctor_id = da.doctor_id AND a.day = da.day AND a.time_slot = g
			  AND a.status IN ('pending', 'confirmed')
		  )
	`, dates).Scan(&broken)
	if err != nil {
		return fmt.Errorf("query consistency: %w", err)
	}
	if broken > 0 {
		return fmt.Errorf("%d slots are both free and held, or neither", broken)
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Slots", &s.metrics.Slots)
	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status update", &s.metrics.StatusUpdate)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by user", &s.metrics.ListByUser)
	printOperationReport("List by doctor", &s.metrics.ListByDoctor)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	rejected := atomic.LoadInt64(&om.Rejected)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if rejected > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", rejected, float64(rejected)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
