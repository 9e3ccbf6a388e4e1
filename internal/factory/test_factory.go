package factory

import (
	"context"
	"time"

	"github.com/quijoterun/tracker/internal/backend"
	membackend "github.com/quijoterun/tracker/internal/backend/memory"
	"github.com/quijoterun/tracker/internal/dependencies/mocks"
	"github.com/quijoterun/tracker/internal/model"
	"github.com/quijoterun/tracker/internal/services/session"
	"github.com/quijoterun/tracker/internal/storage/memory"
	"github.com/quijoterun/tracker/internal/testutil"
)

// Test accounts created by Seed
const (
	TestOperatorEmail    = model.DefaultOperatorEmail
	TestOperatorPassword = "operator-pass"
	TestRunnerEmail      = "runner1@quijoterun.com"
	TestRunnerPassword   = "runner-pass"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App over an empty in-process backend with mocked
// dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	store := memory.New(0, mockClock)

	mem := membackend.New(membackend.Config{
		JWTSecret: "test-secret-0123456789abcdef0123",
		TokenTTL:  time.Hour,
	}, mockClock, mockRandom)

	app := newWithDependencies(store, mem, mem, true, mockClock, mockRandom, Config{
		Session: session.DefaultConfig(),
	}, testutil.NopLogger())
	app.Memory = mem

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// Seed loads the demo events and plans plus an operator and a runner account
func (t *TestApp) Seed() error {
	ctx := context.Background()
	err := membackend.SeedDemo(ctx, t.Memory, membackend.SeedConfig{
		OperatorEmail:    TestOperatorEmail,
		OperatorPassword: TestOperatorPassword,
	}, t.MockClock.Now())
	if err != nil {
		return err
	}
	_, err = t.CreateRunner(TestRunnerEmail, TestRunnerPassword)
	return err
}

// CreateRunner registers a plain runner account
func (t *TestApp) CreateRunner(email, password string) (*backend.User, error) {
	return t.Memory.CreateUser(context.Background(), backend.Credentials{
		Email:    email,
		Password: password,
	}, "")
}

// Events returns the seeded events in date order
func (t *TestApp) Events() ([]model.Event, error) {
	return t.Catalog.Events(context.Background())
}
