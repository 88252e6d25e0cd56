package settings

import (
	"os"
	"strconv"
	"strings"

	"github.com/chazu/provel/pkg/logger"
)

// Env is a namespaced view over environment variables.
type Env struct{ prefix string }

// NewEnv returns a root Env with no prefix.
func NewEnv() Env { return Env{} }

// Prefix returns a child Env with an additional prefix.
func (e Env) Prefix(p string) Env { return Env{prefix: e.prefix + p} }

func (e Env) key(k string) string { return e.prefix + k }

func (e Env) lookup(key string) string {
	return strings.TrimSpace(os.Getenv(e.key(key)))
}

// MayString returns the value or def if missing or empty.
func (e Env) MayString(key, def string) string {
	if v := e.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing; logs and returns def if invalid.
func (e Env) MayInt(key string, def int) int {
	s := e.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Named("settings").Warn().Str("key", e.key(key)).Str("value", s).Int("default", def).
		Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def if missing; logs and returns def if invalid.
func (e Env) MayFloat64(key string, def float64) float64 {
	s := e.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Named("settings").Warn().Str("key", e.key(key)).Str("value", s).Float64("default", def).
		Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def if missing; logs and returns def if invalid.
func (e Env) MayBool(key string, def bool) bool {
	s := e.lookup(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Named("settings").Warn().Str("key", e.key(key)).Str("value", s).Bool("default", def).
		Msg("invalid bool; using default")
	return def
}
