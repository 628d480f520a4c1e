//go:build stress

// Package stress contains stress tests for concurrency safety validation on PostgreSQL.
// A throwaway postgres container is started with dockertest and the API is served
// in-process on a real listener, so requests go through net/http, fiber and pgx.
//
// Usage:
//   go test -v -race -tags stress ./tests/stress/...
package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/fairyhunter13/credicambios/internal/auth"
	"github.com/fairyhunter13/credicambios/internal/feed"
	"github.com/fairyhunter13/credicambios/internal/handler"
	"github.com/fairyhunter13/credicambios/internal/middleware"
	"github.com/fairyhunter13/credicambios/internal/repository"
	"github.com/fairyhunter13/credicambios/internal/service"
	appvalidator "github.com/fairyhunter13/credicambios/internal/validator"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

var (
	testDB     *database.DB
	testServer string
	httpClient *http.Client

	customerRepo *repository.CustomerRepository
	txnRepo      *repository.TransactionRepository
	adminService *service.AdminService
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://testuser:testpass@%s/testdb?sslmode=disable", hostAndPort)

	log.Println("Connecting to database on url:", databaseURL)

	_ = resource.Expire(180) // Tell docker to kill the container after 180 seconds

	// Retry connection
	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		var err error
		testDB, err = database.Open(context.Background(), database.Options{
			Dialect:      database.DialectPostgres,
			DSN:          databaseURL,
			MaxOpenConns: 25,
			MaxRetries:   1,
		})
		return err
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	if err := testDB.Migrate(context.Background()); err != nil {
		log.Fatalf("Could not run migrations: %s", err)
	}

	customerRepo = repository.NewCustomerRepository(testDB)
	txnRepo = repository.NewTransactionRepository(testDB)
	adminService = service.NewAdminService(testDB, customerRepo, txnRepo, nil, 50)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("Could not listen: %s", err)
	}
	app := newApp()
	go func() {
		if err := app.Listener(ln); err != nil {
			log.Printf("server stopped: %s", err)
		}
	}()
	testServer = "http://" + ln.Addr().String()
	httpClient = &http.Client{Timeout: 30 * time.Second}

	code := m.Run()

	// Cleanup
	_ = app.Shutdown()
	_ = testDB.Close()
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

// newLoyaltyService builds a service with its own keyed lock, so two instances
// only serialize on the database row lock.
func newLoyaltyService() *service.LoyaltyService {
	return service.NewLoyaltyService(testDB, customerRepo, txnRepo, service.Options{
		DefaultBranch: "principal",
		HistoryLimit:  20,
	})
}

func newApp() *fiber.App {
	loyalty := newLoyaltyService()
	tokens, err := auth.NewManager("", "", time.Hour)
	if err != nil {
		log.Fatalf("Could not create token manager: %s", err)
	}
	v := appvalidator.New()

	app := fiber.New()
	handler.Routes{
		Health:     handler.NewHealthHandler(testDB, "credicambios", "stress"),
		Customers:  handler.NewCustomerHandler(loyalty, v),
		Purchases:  handler.NewPurchaseHandler(loyalty, v),
		Auth:       handler.NewAuthHandler(tokens, v),
		Admin:      handler.NewAdminHandler(adminService),
		Feed:       handler.NewFeedHandler(adminService, feed.NewBroker(0), 0),
		AdminGuard: middleware.AdminAuth(tokens),
	}.Register(app)
	return app
}

func cleanupTables(t *testing.T) {
	t.Helper()
	if _, err := adminService.Reset(context.Background()); err != nil {
		t.Fatalf("Failed to cleanup tables: %v", err)
	}
}

// Helper function to make POST requests with JSON body
func postJSON(url string, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return httpClient.Do(req)
}

func readJSONResponse(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// formatURL creates a full URL from the test server base and a path
func formatURL(path string) string {
	return fmt.Sprintf("%s%s", testServer, path)
}

// getCustomerFromDB reads a customer's totals and transaction count straight from postgres.
func getCustomerFromDB(t *testing.T, id string) (points float64, visits int, tier string, txnCount int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := testDB.QueryRowContext(ctx,
		"SELECT points, visits, tier FROM customers WHERE id = $1", id).
		Scan(&points, &visits, &tier)
	if err != nil {
		t.Fatalf("Failed to get customer: %v", err)
	}

	err = testDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE customer_id = $1", id).Scan(&txnCount)
	if err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	return points, visits, tier, txnCount
}
