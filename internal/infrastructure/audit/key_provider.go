package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// SigningKeyProvider resolves the HMAC key used to sign ledger records.
type SigningKeyProvider interface {
	SigningKey() ([]byte, error)
}

// StaticKeyProvider serves the key from configuration. Used when Vault is
// disabled, and in tests.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a provider around a fixed secret.
func NewStaticKeyProvider(secret string) (*StaticKeyProvider, error) {
	if secret == "" {
		return nil, fmt.Errorf("ledger signing secret is empty")
	}
	return &StaticKeyProvider{key: []byte(secret)}, nil
}

// SigningKey returns the configured secret.
func (p *StaticKeyProvider) SigningKey() ([]byte, error) {
	return p.key, nil
}

// VaultKeyProvider reads the signing key from a Vault KV-v2 secret and
// caches it briefly, so ledger appends do not hit Vault on every write.
type VaultKeyProvider struct {
	client *vault.Client
	cfg    config.VaultConfig
	log    logger.Logger

	mu        sync.Mutex
	cached    []byte
	fetchedAt time.Time
	cacheTTL  time.Duration
}

// NewVaultKeyProvider creates a Vault-backed signing key provider.
func NewVaultKeyProvider(client *vault.Client, cfg config.VaultConfig, log logger.Logger) *VaultKeyProvider {
	return &VaultKeyProvider{
		client:   client,
		cfg:      cfg,
		log:      log.WithComponent("VaultKeyProvider"),
		cacheTTL: 5 * time.Minute,
	}
}

// SigningKey returns the current key, fetching from Vault when the cached
// copy is stale. A fetch failure falls back to the last known key so a Vault
// outage does not stop the ledger.
func (p *VaultKeyProvider) SigningKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.fetchedAt) < p.cacheTTL {
		return p.cached, nil
	}

	key, err := p.fetch()
	if err != nil {
		if p.cached != nil {
			p.log.Warn(context.Background(), "Vault key fetch failed, using cached signing key", logger.Error(err))
			return p.cached, nil
		}
		return nil, err
	}

	p.cached = key
	p.fetchedAt = time.Now()
	return key, nil
}

func (p *VaultKeyProvider) fetch() ([]byte, error) {
	path := fmt.Sprintf("%s/data/%s", p.cfg.MountPath, p.cfg.SecretKey)
	secret, err := p.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault secret %s is not a kv-v2 payload", path)
	}
	raw, ok := data["signing_key"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("vault secret %s has no signing_key field", path)
	}
	return []byte(raw), nil
}
