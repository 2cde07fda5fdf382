// Package secrets resolves credentials from the environment or Azure Key Vault.
package secrets

import (
	"context"
	"fmt"
	"os"
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
	// SourceAuto uses the environment in development and the vault elsewhere
	SourceAuto SecretSource = "auto"
)

// Lookup fetches a named secret from a remote store
type Lookup interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider abstracts secret retrieval from different sources
type Provider struct {
	source      SecretSource
	vault       Lookup
	logger      *zap.Logger
	environment string
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string // "development", "staging", "production"
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a new secrets provider
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var vault Lookup
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}

		client, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		vault = client
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return &Provider{
		source:      source,
		vault:       vault,
		logger:      logger,
		environment: cfg.Environment,
	}, nil
}

// NewVaultProvider creates a vault-backed provider around an existing lookup
func NewVaultProvider(vault Lookup, environment string, logger *zap.Logger) *Provider {
	return &Provider{
		source:      SourceVault,
		vault:       vault,
		logger:      logger,
		environment: environment,
	}
}

// NewEnvironmentProvider creates a provider reading environment variables
func NewEnvironmentProvider(logger *zap.Logger) *Provider {
	return &Provider{source: SourceEnvironment, logger: logger}
}

// GetSecret retrieves a secret by name. For the vault source secretName is
// the Key Vault secret name, for the environment source a variable name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil

	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, secretName)

	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv prefers an explicitly set environment variable and falls
// back to the configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override",
			zap.String("env_name", envName),
		)
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Binding ties a secret to the config field it fills
type Binding struct {
	SecretName string
	EnvName    string
	Target     *string
}

// Resolve fills every binding it can. Missing secrets leave the target
// untouched and are reported by name.
func (p *Provider) Resolve(ctx context.Context, bindings []Binding) []string {
	var missing []string
	for _, b := range bindings {
		var (
			value string
			err   error
		)
		if b.EnvName != "" {
			value, err = p.GetSecretOrEnv(ctx, b.SecretName, b.EnvName)
		} else {
			value, err = p.GetSecret(ctx, b.SecretName)
		}
		if err != nil || value == "" {
			p.logger.Debug("Secret not resolved",
				zap.String("secret_name", b.SecretName),
				zap.Error(err),
			)
			missing = append(missing, b.SecretName)
			continue
		}
		*b.Target = value
	}
	return missing
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
