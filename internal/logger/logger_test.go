package logger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Levels(t *testing.T) {
	app := &config.AppConfig{Name: "RFQ Pricing API", Environment: "production"}

	log, err := logger.NewLogger(&config.LoggingConfig{Level: "warn", Format: "console"}, app, "api")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = logger.NewLogger(&config.LoggingConfig{Level: "loud"}, &config.AppConfig{Environment: "development"}, "admin")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestForRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tenantID, runID := uuid.New(), uuid.New()

	logger.ForRun(zap.New(core), tenantID, runID).Info("pricing run repriced")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
	assert.Equal(t, runID.String(), fields["pricing_run_id"])
}
