package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("GENAI_API_KEY", "test-key-123")
	t.Setenv("GENAI_DISABLED", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("THROTTLE_LIMIT", "")
	t.Setenv("TRUSTED_PROXIES", "")
}

func TestFromEnvDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.GenAI.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.GenAI.CacheTTL)
	assert.Equal(t, 10, cfg.Throttle.Limit)
	assert.Equal(t, time.Minute, cfg.Throttle.Window)
	assert.NotEmpty(t, cfg.Auth.JWTSigningKey, "development gets a default signing key")
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromEnvRejectsPlaceholderKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GENAI_API_KEY", PlaceholderGenAIKey)

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestFromEnvRejectsMissingKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GENAI_API_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENAI_API_KEY is required")
}

func TestFromEnvAllowsDisabledGenAIInDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("GENAI_DISABLED", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.GenAI.Disabled)
}

func TestFromEnvReportsParseErrors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AI_TIMEOUT", "soon")
	t.Setenv("THROTTLE_LIMIT", "ten")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, nope")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_TIMEOUT")
	assert.Contains(t, err.Error(), "THROTTLE_LIMIT")
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

func TestValidate(t *testing.T) {
	valid := func() *Server {
		return &Server{
			Addr:        ":8080",
			Environment: EnvProduction,
			GenAI:       GenAIConfig{APIKey: "real-key", Model: "gemini-2.0-flash", Timeout: time.Second, BreakerThreshold: 5},
			Auth:        AuthConfig{JWTSigningKey: "0123456789abcdef0123456789abcdef", TokenTTL: time.Hour},
			Throttle:    ThrottleConfig{Limit: 10, Window: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr string
	}{
		{name: "valid production config"},
		{
			name:    "short signing key outside development",
			mutate:  func(s *Server) { s.Auth.JWTSigningKey = "short" },
			wantErr: "at least 32 bytes",
		},
		{
			name:    "genai disabled in production",
			mutate:  func(s *Server) { s.GenAI.Disabled = true },
			wantErr: "only allowed in development",
		},
		{
			name:    "placeholder key with surrounding whitespace",
			mutate:  func(s *Server) { s.GenAI.APIKey = " " + PlaceholderGenAIKey + " " },
			wantErr: "placeholder",
		},
		{
			name:    "non-positive throttle",
			mutate:  func(s *Server) { s.Throttle.Limit = 0 },
			wantErr: "THROTTLE_LIMIT",
		},
		{
			name:    "unknown environment",
			mutate:  func(s *Server) { s.Environment = "staging" },
			wantErr: "ENVIRONMENT",
		},
		{
			name:    "kafka without topic",
			mutate:  func(s *Server) { s.Kafka.Brokers = "localhost:9092" },
			wantErr: "KAFKA_AUDIT_TOPIC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
