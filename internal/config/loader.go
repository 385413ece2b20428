package config

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// LoadConfig loads the configuration from file, environment variables, and defaults.
func LoadConfig(log logger.Logger) (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Warn(context.Background(), "No config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watcher exposes the hot-reloadable governance settings. Reads are safe from
// any goroutine; the viper watch goroutine swaps the snapshot on file change.
type Watcher struct {
	mu  sync.RWMutex
	gov GovernanceConfig
	log logger.Logger
}

// NewWatcher starts watching the config file and returns a handle serving the
// current governance section. Only the governance section is hot-reloaded;
// connection settings require a restart.
func NewWatcher(initial GovernanceConfig, log logger.Logger) *Watcher {
	w := &Watcher{gov: initial, log: log.WithComponent("ConfigWatcher")}

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		// No file to watch; the initial snapshot stays in effect.
		return w
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			w.log.Error(context.Background(), "Ignoring config change, unmarshal failed", err,
				logger.String("file", e.Name))
			return
		}
		if err := cfg.Validate(); err != nil {
			w.log.Error(context.Background(), "Ignoring config change, validation failed", err,
				logger.String("file", e.Name))
			return
		}
		w.mu.Lock()
		w.gov = cfg.Governance
		w.mu.Unlock()
		w.log.Info(context.Background(), "Governance configuration reloaded",
			logger.String("combination_policy", cfg.Governance.CombinationPolicy),
			logger.Int("allocator_max_attempts", cfg.Governance.AllocatorMaxAttempts))
	})
	v.WatchConfig()
	return w
}

// Governance returns the current governance settings snapshot.
func (w *Watcher) Governance() GovernanceConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gov
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("redis.residual_ttl", 300)
	v.SetDefault("kafka.transition_topic", "praxis.transitions")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("audit.signing_secret", "")
	v.SetDefault("governance.allocator_max_attempts", constants.DefaultAllocatorMaxAttempts)
	v.SetDefault("governance.code_padding", constants.DefaultCodePadding)
	v.SetDefault("governance.combination_policy", string(constants.CombinationPolicyMax))
	v.SetDefault("governance.policy_cache_ttl", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.service_name", "praxis-governance")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/praxis/")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}
