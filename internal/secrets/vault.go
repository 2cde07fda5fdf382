package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// VaultConfig holds configuration for the vault client
type VaultConfig struct {
	VaultName    string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// secretCache keeps fetched secrets for a fixed TTL. A nil cache never hits.
type secretCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   string
	expires time.Time
}

func newSecretCache(ttl time.Duration, now func() time.Time) *secretCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &secretCache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

func (c *secretCache) get(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return "", false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, name)
		return "", false
	}
	return e.value, true
}

func (c *secretCache) put(name, value string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[name] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *secretCache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// VaultClient reads secrets from Azure Key Vault
type VaultClient struct {
	client *azsecrets.Client
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultClient creates a Key Vault client authenticated with
// DefaultAzureCredential (environment, managed identity or Azure CLI)
func NewVaultClient(cfg *VaultConfig, logger *zap.Logger) (*VaultClient, error) {
	if cfg.VaultName == "" {
		return nil, errors.New("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	v := &VaultClient{client: client, logger: logger}
	if cfg.CacheEnabled {
		v.cache = newSecretCache(cfg.CacheTTL, time.Now)
	}
	logger.Info("Azure Key Vault client initialized",
		zap.String("vault_url", vaultURL),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
	)
	return v, nil
}

// GetSecret returns the latest version of a secret
func (v *VaultClient) GetSecret(ctx context.Context, secretName string) (string, error) {
	if value, ok := v.cache.get(secretName); ok {
		return value, nil
	}

	resp, err := v.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret %q: %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", secretName)
	}

	v.cache.put(secretName, *resp.Value)
	v.logger.Debug("Secret fetched from Key Vault", zap.String("secret_name", secretName))
	return *resp.Value, nil
}

// ClearCache drops every cached secret
func (v *VaultClient) ClearCache() {
	v.cache.clear()
}
