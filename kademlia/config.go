package kademlia

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tuning constants. K and CacheK must be even.
const (
	DefaultK              = 24
	DefaultCacheK         = 32
	DefaultAlpha          = 3
	DefaultRefreshTimeout = time.Hour
)

// Config holds the operational tuning of a RoutingTable, surfaced so tests
// (and deployments) can vary it instead of relying on unexported magic
// numbers.
type Config struct {
	// BitNodeIDLen is the width, in bits, of identifiers in this table's
	// ID space. Must be a positive multiple of 4.
	BitNodeIDLen int `yaml:"bit_node_id_len"`

	// K is the maximum number of contacts a KBucket holds.
	K int `yaml:"k"`

	// CacheK is the maximum number of contacts a CachingKBucket's
	// replacement cache holds.
	CacheK int `yaml:"cache_k"`

	// RefreshTimeout is how long a bucket may go untouched before
	// GetRefreshList considers it stale.
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`

	// Alpha is the lookup-parallelism degree. The routing table does not
	// consume it directly; it is surfaced purely for an iterative-lookup
	// caller built on top of this table.
	Alpha int `yaml:"alpha"`
}

// DefaultConfig returns the built-in default tuning.
func DefaultConfig() *Config {
	return &Config{
		BitNodeIDLen:   DefaultBitNodeIDLen,
		K:              DefaultK,
		CacheK:         DefaultCacheK,
		RefreshTimeout: DefaultRefreshTimeout,
		Alpha:          DefaultAlpha,
	}
}

// HexNodeIDLen returns the canonical hex-string length for this config's
// identifier width.
func (c *Config) HexNodeIDLen() int {
	return HexLen(c.BitNodeIDLen)
}

// configOrDefault returns cfg, or DefaultConfig() if cfg is nil.
func configOrDefault(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadConfig reads and parses a YAML configuration file into a Config,
// filling any field the file omits from DefaultConfig. A field the file sets
// explicitly, including to zero, overrides the default; LoadConfig then
// fails if bit_node_id_len is not a positive multiple of 4 or if k or
// cache_k is not positive.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kademlia: failed to read config file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("kademlia: failed to parse config file %q: %w", path, err)
	}

	if cfg.BitNodeIDLen <= 0 || cfg.BitNodeIDLen%4 != 0 {
		return nil, fmt.Errorf("kademlia: config file %q has invalid bit_node_id_len %d", path, cfg.BitNodeIDLen)
	}
	if cfg.K <= 0 || cfg.CacheK <= 0 {
		return nil, fmt.Errorf("kademlia: config file %q has non-positive k/cache_k", path)
	}

	return cfg, nil
}
