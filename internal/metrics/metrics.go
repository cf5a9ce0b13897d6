package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sean-huni/store-sub000/pkg/telemetry"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	// Gate outcomes
	GateAnonymous     = "anonymous"
	GateAuthenticated = "authenticated"
	GateRejected      = "rejected"
)

var (
	RegisterTotal *telemetry.Counter
	LoginTotal    *telemetry.Counter
	RefreshTotal  *telemetry.Counter
	GateTotal     *telemetry.Counter

	OperationDuration *telemetry.Histogram

	initOnce sync.Once
	initErr  error
)

// Init registers the auth instruments. Until it runs every recorder is a no-op.
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	RegisterTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "auth_register_total",
		Description: "Registration attempts by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	LoginTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "auth_login_total",
		Description: "Authentication attempts by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RefreshTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "auth_refresh_total",
		Description: "Token refresh attempts by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	GateTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "auth_gate_total",
		Description: "Requests seen by the authentication gate by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	OperationDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "auth_operation_duration_ms",
		Description: "Duration of auth use cases",
		Unit:        "ms",
	})
	return err
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// RecordRegister counts a registration and its duration
func RecordRegister(ctx context.Context, start time.Time, err error) {
	record(ctx, RegisterTotal, "register", start, err)
}

// RecordLogin counts an authentication and its duration
func RecordLogin(ctx context.Context, start time.Time, err error) {
	record(ctx, LoginTotal, "authenticate", start, err)
}

// RecordRefresh counts a token refresh and its duration
func RecordRefresh(ctx context.Context, start time.Time, err error) {
	record(ctx, RefreshTotal, "refresh_token", start, err)
}

// RecordGate counts a gate decision
func RecordGate(ctx context.Context, result string) {
	GateTotal.Inc(ctx, attribute.String("outcome", result))
}

func record(ctx context.Context, counter *telemetry.Counter, op string, start time.Time, err error) {
	result := outcome(err)
	counter.Inc(ctx, attribute.String("outcome", result))
	OperationDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
		attribute.String("operation", op),
		attribute.String("outcome", result),
	)
}
