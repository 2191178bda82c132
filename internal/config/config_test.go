package config_test

import (
	"testing"
	"time"

	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "rfq_pricing", cfg.Database.Name)
	assert.Equal(t, "tid", cfg.Auth.TenantClaim)
	assert.Equal(t, "roles", cfg.Auth.RolesClaim)
	assert.True(t, cfg.Approval.RequireFourEyes)
	assert.True(t, cfg.Approval.ArchiveSnapshots)
	assert.False(t, cfg.Pricing.DegradedDutyMode)
	assert.False(t, cfg.Admin.PurgeEnabled)
	assert.Equal(t, time.Hour, cfg.Regulatory.CacheTTLDuration())
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-Tenant-ID")
	assert.Contains(t, cfg.RateLimit.WhitelistPaths, "/health")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SERVICE_API_KEY", "ingestion-key")
	t.Setenv("REGULATORY_API_KEY", "reg-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "ingestion-key", cfg.ApiKey.Value)
	assert.Equal(t, "reg-key", cfg.Regulatory.APIKey)
}

func TestLoad_RejectsDegradedDutyModeInProduction(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("PRICING_DEGRADEDDUTYMODE", "true")

	_, err := config.Load()
	assert.ErrorContains(t, err, "degradedDutyMode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name: "development with degraded duty",
			cfg: config.Config{
				App:     config.AppConfig{Environment: "development"},
				Pricing: config.PricingConfig{DegradedDutyMode: true},
			},
		},
		{
			name: "production with degraded duty",
			cfg: config.Config{
				App:     config.AppConfig{Environment: "Production"},
				Pricing: config.PricingConfig{DegradedDutyMode: true},
			},
			wantErr: "degradedDutyMode",
		},
		{
			name: "production with purge",
			cfg: config.Config{
				App:   config.AppConfig{Environment: "production"},
				Admin: config.AdminConfig{PurgeEnabled: true},
			},
			wantErr: "purgeEnabled",
		},
		{
			name: "purge environments naming production",
			cfg: config.Config{
				App:   config.AppConfig{Environment: "staging"},
				Admin: config.AdminConfig{PurgeEnvironments: []string{"staging", "production"}},
			},
			wantErr: "purgeEnvironments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPurgeAllowed(t *testing.T) {
	base := func(env string, enabled bool) *config.Config {
		return &config.Config{
			App:   config.AppConfig{Environment: env},
			Admin: config.AdminConfig{PurgeEnabled: enabled, PurgeEnvironments: []string{"development", "test"}},
		}
	}

	assert.True(t, base("test", true).PurgeAllowed())
	assert.True(t, base("Development", true).PurgeAllowed())
	assert.False(t, base("test", false).PurgeAllowed())
	assert.False(t, base("staging", true).PurgeAllowed())
	assert.False(t, base("production", true).PurgeAllowed())
}

func TestDurations(t *testing.T) {
	server := config.ServerConfig{ReadTimeout: 30, WriteTimeout: 15, RequestTimeout: 60}
	assert.Equal(t, 30*time.Second, server.ReadTimeoutDuration())
	assert.Equal(t, 15*time.Second, server.WriteTimeoutDuration())
	assert.Equal(t, time.Minute, server.RequestTimeoutDuration())

	db := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "rfq", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rfq sslmode=require", db.ConnectionString())
}
