// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/satriahrh/callqa/adapters/llm"
	"github.com/satriahrh/callqa/domain"
)

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"

	defaultPort            = "8080"
	defaultAnalysisTimeout = 300 * time.Second
	// Gemini accepts inline request payloads up to 20 MiB
	defaultMaxAudioBytes = 20 << 20
)

// Config holds all runtime settings
type Config struct {
	Provider        string
	Gemini          llm.GeminiConfig
	RubricPath      string
	AnalysisTimeout time.Duration
	MaxAudioBytes   int64
	Port            string
	JWTSecret       string
	LogLevel        zapcore.Level
	LogDevelopment  bool
}

// Load reads .env (if present) and then the process environment. The Gemini
// credential is not checked here; it is checked when the client is built so
// mock runs work without one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, domain.WrapError(domain.KindConfiguration, err, "failed to read .env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Provider: strings.ToLower(p.str("LLM_PROVIDER", ProviderGemini)),
		Gemini: llm.GeminiConfig{
			APIKey:          strings.TrimSpace(getenv("GEMINI_API_KEY")),
			Model:           getenv("GEMINI_MODEL"),
			Temperature:     p.optionalFloat32("GEMINI_TEMPERATURE"),
			TopP:            p.optionalFloat32("GEMINI_TOP_P"),
			MaxOutputTokens: p.int("GEMINI_MAX_OUTPUT_TOKENS", 0),
			BaseURL:         getenv("GEMINI_BASE_URL"),
		},
		RubricPath:      getenv("RUBRIC_PATH"),
		AnalysisTimeout: time.Duration(p.int("ANALYSIS_TIMEOUT_SECONDS", int(defaultAnalysisTimeout/time.Second))) * time.Second,
		MaxAudioBytes:   int64(p.int("MAX_AUDIO_BYTES", defaultMaxAudioBytes)),
		Port:            p.str("PORT", defaultPort),
		JWTSecret:       getenv("API_JWT_SECRET"),
		LogLevel:        p.level("LOG_LEVEL", zapcore.InfoLevel),
		LogDevelopment:  p.bool("LOG_DEVELOPMENT", false),
	}

	if cfg.Provider != ProviderGemini && cfg.Provider != ProviderMock {
		p.fail("LLM_PROVIDER", cfg.Provider, "expected gemini or mock")
	}
	if cfg.AnalysisTimeout <= 0 {
		p.fail("ANALYSIS_TIMEOUT_SECONDS", getenv("ANALYSIS_TIMEOUT_SECONDS"), "must be positive")
	}
	if cfg.MaxAudioBytes <= 0 {
		p.fail("MAX_AUDIO_BYTES", getenv("MAX_AUDIO_BYTES"), "must be positive")
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, domain.WrapError(domain.KindConfiguration, err, "invalid configuration")
	}
	return cfg, nil
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) fail(key, value, reason string) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %s", key, value, reason))
}

func (p *parser) str(key, fallback string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (p *parser) int(key string, fallback int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, "not an integer")
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		p.fail(key, v, "not a number")
		return fallback
	}
	return f
}

// optionalFloat32 returns nil when key is unset so callers can tell an
// explicit zero from a missing value
func (p *parser) optionalFloat32(key string) *float32 {
	if strings.TrimSpace(p.getenv(key)) == "" {
		return nil
	}
	f := float32(p.float(key, 0))
	return &f
}

func (p *parser) bool(key string, fallback bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, "not a boolean")
		return fallback
	}
	return b
}

func (p *parser) level(key string, fallback zapcore.Level) zapcore.Level {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return fallback
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, "unknown log level")
		return fallback
	}
	return lvl
}
