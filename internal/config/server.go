package config

import (
	"fmt"
	"strconv"
	"time"
)

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec"`
	Zstd        bool   `mapstructure:"zstd"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// CacheTTL returns how long computed reports stay cached
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSec) * time.Second
}

func (s ServerConfig) validate() error {
	port, err := strconv.Atoi(s.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server.port: %s", s.Port)
	}
	if s.CacheTTLSec < 1 {
		return fmt.Errorf("server.cache_ttl_sec must be >= 1")
	}
	return nil
}
