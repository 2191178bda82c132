package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	// SourceEnvironment loads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault loads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto uses the vault everywhere except development, local and test
	SourceAuto SecretSource = "auto"
)

// Key Vault secret names used by the pricing service
const (
	SecretDatabaseHost      = "POSTGRES-MAIN-HOST"
	SecretDatabaseUser      = "POSTGRES-MAIN-USER"
	SecretDatabasePassword  = "POSTGRES-MAIN-PASSWORD"
	SecretServiceAPIKey     = "service-api-key"
	SecretRegulatoryAPIKey  = "regulatory-api-key"
	SecretRedisPassword     = "redis-password"
	SecretStorageConnection = "storage-connection-string"
	SecretWarehouseURL      = "WAREHOUSE-URL"
	SecretWarehouseUser     = "WAREHOUSE-USERNAME"
	SecretWarehousePassword = "WAREHOUSE-PASSWORD"
)

// Store is a backend secrets can be read from
type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Provider reads secrets from the configured source
type Provider struct {
	source SecretSource
	store  Store
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider creates a provider, connecting to Key Vault when the resolved source is the vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	provider := &Provider{source: source, logger: logger}
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		provider.store = vault
	}

	logger.Info("secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return provider, nil
}

// NewProviderWithStore creates a vault sourced provider over an existing store
func NewProviderWithStore(store Store, logger *zap.Logger) *Provider {
	return &Provider{source: SourceVault, store: store, logger: logger}
}

// ResolveSource turns SourceAuto into a concrete source for environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch strings.ToLower(environment) {
	case "development", "local", "test", "":
		return SourceEnvironment
	}
	return SourceVault
}

// GetSecret retrieves a secret by name. For the environment source name is the variable name.
func (p *Provider) GetSecret(ctx context.Context, name string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", name)
		}
		return value, nil
	case SourceVault:
		if p.store == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.store.GetSecret(ctx, name)
	}
	return "", fmt.Errorf("unknown secret source: %s", p.source)
}

// GetSecretOrEnv prefers an explicitly set environment variable over the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, name, envName string) (string, error) {
	if envName != "" {
		if value := os.Getenv(envName); value != "" {
			p.logger.Debug("using environment override for secret", zap.String("env_name", envName))
			return value, nil
		}
	}
	return p.GetSecret(ctx, name)
}

// Binding maps a secret onto a configuration field
type Binding struct {
	Secret string
	// Env overrides the secret when set. Empty means the secret source only.
	Env      string
	Target   *string
	Required bool
}

// Resolve fills every binding target it can. A missing required secret fails the whole call.
// Optional secrets that cannot be read leave their target untouched.
func (p *Provider) Resolve(ctx context.Context, bindings ...Binding) error {
	for _, b := range bindings {
		value, err := p.GetSecretOrEnv(ctx, b.Secret, b.Env)
		if err != nil || value == "" {
			if b.Required {
				if err == nil {
					err = fmt.Errorf("empty value")
				}
				return fmt.Errorf("failed to get %s: %w", b.Secret, err)
			}
			p.logger.Debug("optional secret not available", zap.String("secret_name", b.Secret))
			continue
		}
		*b.Target = value
	}
	return nil
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}
