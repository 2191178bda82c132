package logger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the logger for one binary. component names the binary ("api", "admin")
// so lines from the operator CLI can be told apart from the service in shared sinks.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig, component string) (*zap.Logger, error) {
	zapCfg := encoderFor(cfg, appCfg)

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
		"component":   component,
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// encoderFor returns JSON with ISO8601 timestamps for production or the json format,
// and the colored console encoder otherwise
func encoderFor(cfg *config.LoggingConfig, appCfg *config.AppConfig) zap.Config {
	if cfg.Format == "json" || appCfg.IsProduction() {
		zapCfg := zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapCfg
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapCfg
}

// ForRun scopes log to one pricing run of a tenant
func ForRun(log *zap.Logger, tenantID, runID uuid.UUID) *zap.Logger {
	return log.With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("pricing_run_id", runID.String()),
	)
}
