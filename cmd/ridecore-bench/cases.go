// README: Bench cases covering connectivity, schema, the ride flow, booking races and offer throughput.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridecore/internal/infra"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"

	benchRider    = "bench@example.com"
	benchFleetLen = 10
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func benchVehicleID(i int) string {
	return fmt.Sprintf("bench-%02d", i)
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.Migrate {
					return Result{Status: statusSkip, Note: "migrate=false"}
				}
				version, err := infra.Migrate(r.cfg.MigrationsDir, r.cfg.DSN)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("version=%d", version)}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationsDir)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
			},
		},
		{
			Name: "Seed: bench fleet",
			Run:  seedFleet,
		},
		httpCase("API: health", http.MethodGet, base+"/health", nil, http.StatusOK),
		httpCase("Fleet: list vehicles", http.MethodGet, base+"/api/vehicles", nil, http.StatusOK),
		httpCase("Fleet: unknown vehicle -> 404", http.MethodGet, base+"/api/vehicles/bench-none", nil, http.StatusNotFound),

		httpCase("Offers: valid request", http.MethodPost, base+"/api/offers", map[string]any{
			"lat": 25.033, "lng": 121.565, "destination_km": 5, "count": 3,
		}, http.StatusOK),
		httpCase("Offers: missing position -> 400", http.MethodPost, base+"/api/offers", map[string]any{
			"destination_km": 5,
		}, http.StatusBadRequest),
		httpCase("Offers: negative count -> 400", http.MethodPost, base+"/api/offers", map[string]any{
			"lat": 25.033, "lng": 121.565, "destination_km": 5, "count": -1,
		}, http.StatusBadRequest),

		httpCase("Ride: book", http.MethodPost, base+"/api/vehicles/"+benchVehicleID(0)+"/book", map[string]any{
			"email": benchRider,
		}, http.StatusOK),
		httpCase("Ride: book again -> 409", http.MethodPost, base+"/api/vehicles/"+benchVehicleID(0)+"/book", map[string]any{
			"email": benchRider,
		}, http.StatusConflict),
		httpCase("Ride: finish", http.MethodPost, base+"/api/vehicles/"+benchVehicleID(0)+"/finish", map[string]any{
			"email": benchRider, "lat": 25.0478, "lng": 121.5318, "destination_km": 4.2,
		}, http.StatusOK),
		httpCase("Ride: finish again -> 409", http.MethodPost, base+"/api/vehicles/"+benchVehicleID(0)+"/finish", map[string]any{
			"email": benchRider, "lat": 25.0478, "lng": 121.5318,
		}, http.StatusConflict),
		httpCase("Reviews: rider reviews", http.MethodGet, base+"/api/users/"+benchRider+"/reviews", nil, http.StatusOK),
		httpCase("Location: nearby", http.MethodGet, base+"/api/vehicles/nearby?lat=25.04&lng=121.55&radius_km=5", nil, http.StatusOK),

		{
			Name: "Concurrency: many riders book one vehicle",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentBook(ctx, r, base+"/api/vehicles/"+benchVehicleID(1)+"/book")
			},
		},
		{
			Name: "Perf: offer throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/offers", map[string]any{
					"lat": 25.033, "lng": 121.565, "destination_km": 5, "count": 5,
				})
			},
		},
	}
}

// seedFleet replaces the bench vehicles in Postgres and asks the server to
// reload its fleet cache.
func seedFleet(ctx context.Context, r *Runner) Result {
	if !r.cfg.Seed {
		return Result{Status: statusSkip, Note: "seed=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE vehicle_id LIKE 'bench-%'`); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id LIKE 'bench-%'`); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	store := vehicle.NewStore(r.db)
	for i := 0; i < benchFleetLen; i++ {
		err := store.Insert(ctx, vehicle.Vehicle{
			ID:             types.ID(benchVehicleID(i)),
			Brand:          "Bench",
			OwnerFirstName: "Bench",
			OwnerLastName:  fmt.Sprintf("Owner%d", i),
			Position:       types.Point{Lat: 25.03 + float64(i)*0.002, Lng: 121.56 + float64(i)*0.002},
			PricePerKm:     15,
			StartPrice:     70,
		})
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/api/admin/fleet/reload", nil)
	req.Header.Set("Authorization", "Bearer "+r.cfg.AdminToken)
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{Status: statusFail, Note: fmt.Sprintf("reload status=%d", resp.StatusCode)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("vehicles=%d", benchFleetLen)}
}

func httpCase(name, method, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			latency := time.Since(start)

			if resp.StatusCode == want {
				return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", resp.StatusCode, want)}
		},
	}
}

// concurrentBook fires cfg.Concurrency bookings at one vehicle at once.
// Exactly one of them may succeed.
func concurrentBook(ctx context.Context, r *Runner, url string) Result {
	b, _ := json.Marshal(map[string]any{"email": benchRider})
	start := make(chan struct{})
	var wg sync.WaitGroup
	var succ, conflicts atomic.Int32

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				succ.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d", succ.Load(), conflicts.Load())
	if succ.Load() == 1 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

var createTable = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

// extractTables lists the tables created by the up migrations in dir.
func extractTables(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no up migrations in %s", dir)
	}
	var tables []string
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, m := range createTable.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	return tables, nil
}
