package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/rfq-pricing-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Warehouse  WarehouseConfig
	Regulatory RegulatoryConfig
	Redis      RedisConfig
	Auth       AuthConfig
	ApiKey     ApiKeyConfig
	Storage    StorageConfig
	Secrets    SecretsConfig
	Logging    LoggingConfig
	Server     ServerConfig
	CORS       CORSConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
	Pricing    PricingConfig
	Approval   ApprovalConfig
	Admin      AdminConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// WarehouseConfig holds the read-only MS SQL connection used as the materials catalog source.
// When disabled the API serves the catalog from CatalogFile (static JSON).
type WarehouseConfig struct {
	Enabled         bool
	URL             string // host:port/database, from WAREHOUSE-URL secret
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	QueryTimeout    int // seconds
	CatalogFile     string
}

// RegulatoryConfig configures the HS code / duty rate lookup service
type RegulatoryConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  int // seconds
	CacheTTL int // seconds, 0 disables the redis cache
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// AuthConfig holds token validation settings. Tokens are issued by an external identity provider.
type AuthConfig struct {
	JWKSURL     string
	Issuer      string
	Audience    string
	TenantClaim string
	RolesClaim  string
}

type ApiKeyConfig struct {
	SecretName string
	Value      string // Loaded from secrets or environment
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
	EnableMetrics  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	WhitelistPaths        []string
}

// PricingConfig controls the pricing engine
type PricingConfig struct {
	// DegradedDutyMode treats failed duty lookups as zero duty instead of failing the run.
	// Rejected by Validate in production.
	DegradedDutyMode bool
}

type ApprovalConfig struct {
	// RequireFourEyes forbids the submitter from deciding on their own submission
	RequireFourEyes  bool
	ArchiveSnapshots bool
}

// AdminConfig gates the audit purge capability
type AdminConfig struct {
	PurgeEnabled      bool
	PurgeEnvironments []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (w *WarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(w.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (w *WarehouseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(w.QueryTimeout) * time.Second
}

func (r *RegulatoryConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

func (r *RegulatoryConfig) CacheTTLDuration() time.Duration {
	return time.Duration(r.CacheTTL) * time.Second
}

// IsProduction reports whether the app runs in the production environment
func (a *AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Environment, "production")
}

// PurgeAllowed reports whether the audit purge capability may be constructed in this environment
func (c *Config) PurgeAllowed() bool {
	if !c.Admin.PurgeEnabled || c.App.IsProduction() {
		return false
	}
	return slices.Contains(c.Admin.PurgeEnvironments, strings.ToLower(c.App.Environment))
}

// Validate rejects settings that must never reach production
func (c *Config) Validate() error {
	if c.App.IsProduction() && c.Pricing.DegradedDutyMode {
		return fmt.Errorf("pricing.degradedDutyMode is not allowed in production")
	}
	if c.App.IsProduction() && c.Admin.PurgeEnabled {
		return fmt.Errorf("admin.purgeEnabled is not allowed in production")
	}
	if slices.Contains(c.Admin.PurgeEnvironments, "production") {
		return fmt.Errorf("admin.purgeEnvironments must not include production")
	}
	return nil
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("SERVICE_API_KEY")
	}
	if cfg.Regulatory.APIKey == "" {
		cfg.Regulatory.APIKey = v.GetString("REGULATORY_API_KEY")
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("WAREHOUSE_ENABLED") {
		cfg.Warehouse.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is staging or production.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	bindings := []secrets.Binding{
		{Secret: secrets.SecretDatabaseHost, Env: "DATABASE_HOST", Target: &cfg.Database.Host},
		{Secret: secrets.SecretDatabaseUser, Env: "DATABASE_USER", Target: &cfg.Database.User},
		{Secret: secrets.SecretDatabasePassword, Env: "DATABASE_PASSWORD", Target: &cfg.Database.Password},
		{Secret: secrets.SecretServiceAPIKey, Env: "SERVICE_API_KEY", Target: &cfg.ApiKey.Value},
		{Secret: secrets.SecretRegulatoryAPIKey, Env: "REGULATORY_API_KEY", Target: &cfg.Regulatory.APIKey},
		{Secret: secrets.SecretRedisPassword, Env: "REDIS_PASSWORD", Target: &cfg.Redis.Password},
		{Secret: secrets.SecretStorageConnection, Env: "STORAGE_CLOUDCONNECTIONSTRING", Target: &cfg.Storage.CloudConnectionString},
	}
	// Warehouse credentials only ever come from the vault
	if cfg.Warehouse.Enabled {
		bindings = append(bindings,
			secrets.Binding{Secret: secrets.SecretWarehouseURL, Target: &cfg.Warehouse.URL, Required: true},
			secrets.Binding{Secret: secrets.SecretWarehouseUser, Target: &cfg.Warehouse.User, Required: true},
			secrets.Binding{Secret: secrets.SecretWarehousePassword, Target: &cfg.Warehouse.Password, Required: true},
		)
	}
	if err := provider.Resolve(ctx, bindings...); err != nil {
		return nil, fmt.Errorf("failed to load secrets from Key Vault: %w", err)
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "RFQ Pricing API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "rfq_pricing")
	v.SetDefault("database.user", "rfq_pricing")
	v.SetDefault("database.password", "rfq_pricing")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("warehouse.enabled", false)
	v.SetDefault("warehouse.maxOpenConns", 10)
	v.SetDefault("warehouse.maxIdleConns", 2)
	v.SetDefault("warehouse.connMaxLifetime", 300)
	v.SetDefault("warehouse.queryTimeout", 30)
	v.SetDefault("warehouse.catalogFile", "./config/catalog.json")

	v.SetDefault("regulatory.baseURL", "http://localhost:8090")
	v.SetDefault("regulatory.timeout", 10)
	v.SetDefault("regulatory.cacheTTL", 3600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.tenantClaim", "tid")
	v.SetDefault("auth.rolesClaim", "roles")

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "pricing-snapshots")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)
	v.SetDefault("server.enableMetrics", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Tenant-ID", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	v.SetDefault("pricing.degradedDutyMode", false)

	v.SetDefault("approval.requireFourEyes", true)
	v.SetDefault("approval.archiveSnapshots", true)

	v.SetDefault("admin.purgeEnabled", false)
	v.SetDefault("admin.purgeEnvironments", []string{"development", "test"})
}
