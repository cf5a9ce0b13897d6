package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders_NoopBeforeInit(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRegister(ctx, time.Now(), nil)
		RecordGate(ctx, GateAnonymous)
	})
}

func TestInit_RegistersInstruments(t *testing.T) {
	require.NoError(t, Init())
	require.NoError(t, Init())

	assert.NotNil(t, RegisterTotal)
	assert.NotNil(t, LoginTotal)
	assert.NotNil(t, RefreshTotal)
	assert.NotNil(t, GateTotal)
	assert.NotNil(t, OperationDuration)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordLogin(ctx, time.Now(), errors.New("bad credentials"))
		RecordRefresh(ctx, time.Now(), nil)
		RecordGate(ctx, GateAuthenticated)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcome(nil))
	assert.Equal(t, OutcomeFailure, outcome(errors.New("x")))
}
