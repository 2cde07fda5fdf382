package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/jobsite-crm/internal/secrets"
	"go.uber.org/zap"
)

// Load reads config.json (from . or ./config), then .env and the process
// environment on top of the defaults. Secrets are not resolved.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Flat names used by deployment manifests
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("DATAWAREHOUSE_ENABLED") {
		cfg.DataWarehouse.Enabled = true
	}
	return cfg, nil
}

// secretSource picks the concrete secret source. An explicit "environment"
// or "vault" wins; otherwise the vault is used only when USE_AZURE_KEY_VAULT
// opts in and the environment is not a development one.
func secretSource(cfg *Config, useKeyVault bool) secrets.SecretSource {
	switch src := secrets.SecretSource(cfg.Secrets.Source); src {
	case secrets.SourceEnvironment, secrets.SourceVault:
		return src
	}
	if !useKeyVault {
		return secrets.SourceEnvironment
	}
	return secrets.ResolveSource(secrets.SourceAuto, cfg.App.Environment)
}

// LoadWithSecrets loads configuration and fills the credentials listed by
// SecretBindings from the environment or Azure Key Vault.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.EqualFold(os.Getenv("USE_AZURE_KEY_VAULT"), "true")
	source := secretSource(cfg, useKeyVault)

	var provider *secrets.Provider
	if source == secrets.SourceEnvironment {
		provider = secrets.NewEnvironmentProvider(logger)
	} else {
		if cfg.Secrets.KeyVaultName == "" {
			return nil, errors.New("AZURE_KEY_VAULT_NAME is required when secrets come from Key Vault")
		}
		provider, err = secrets.NewProvider(&secrets.ProviderConfig{
			Source:       secrets.SourceVault,
			VaultName:    cfg.Secrets.KeyVaultName,
			Environment:  cfg.App.Environment,
			CacheEnabled: cfg.Secrets.CacheEnabled,
			CacheTTL:     cfg.Secrets.CacheTTLDuration(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
		}
	}

	logger.Info("Resolving secrets",
		zap.String("source", string(source)),
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	resolveSecrets(ctx, cfg, provider, logger)
	return cfg, nil
}

// SecretBindings lists the secrets the service consumes and the config
// fields they fill
func SecretBindings(cfg *Config) []secrets.Binding {
	bindings := []secrets.Binding{
		{SecretName: "PREFERENCES-DB-PASSWORD", EnvName: "PREFERENCES_DATABASE_PASSWORD", Target: &cfg.Preferences.Database.Password},
		{SecretName: "STORAGE-CONNECTION-STRING", EnvName: "STORAGE_CLOUDCONNECTIONSTRING", Target: &cfg.Storage.CloudConnectionString},
	}
	if cfg.DataWarehouse.Enabled {
		bindings = append(bindings,
			secrets.Binding{SecretName: "WAREHOUSE-URL", EnvName: "DATAWAREHOUSE_URL", Target: &cfg.DataWarehouse.URL},
			secrets.Binding{SecretName: "WAREHOUSE-USERNAME", EnvName: "DATAWAREHOUSE_USER", Target: &cfg.DataWarehouse.User},
			secrets.Binding{SecretName: "WAREHOUSE-PASSWORD", EnvName: "DATAWAREHOUSE_PASSWORD", Target: &cfg.DataWarehouse.Password},
		)
	}
	return bindings
}

func resolveSecrets(ctx context.Context, cfg *Config, provider *secrets.Provider, logger *zap.Logger) {
	bindings := SecretBindings(cfg)
	if provider.Source() == secrets.SourceEnvironment {
		// Environment names double as secret names when no vault is in use
		for i := range bindings {
			if bindings[i].EnvName != "" {
				bindings[i].SecretName = bindings[i].EnvName
			}
		}
	}

	if missing := provider.Resolve(ctx, bindings); len(missing) > 0 {
		logger.Debug("Some optional secrets were not resolved", zap.Strings("secrets", missing))
	}
}
