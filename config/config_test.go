package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/robotics?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"SERVER_PORT", "DEFAULT_QUALIFICATION_COUNT", "POINTS_PER_WIN", "POINTS_PER_DRAW", "POINTS_PER_LOSS", "CORS_ALLOWED_ORIGINS", "R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 3, cfg.QualificationCount)
	assert.Equal(t, models.DefaultPointSystem(), cfg.Points)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("POINTS_PER_WIN", "2")
	t.Setenv("POINTS_PER_DRAW", "1")
	t.Setenv("POINTS_PER_LOSS", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, models.PointSystem{Win: 2, Draw: 1, Loss: 0}, cfg.Points)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing database", key: "DATABASE_URL", value: ""},
		{name: "missing secret", key: "JWT_SECRET_KEY", value: ""},
		{name: "port not a number", key: "SERVER_PORT", value: "http"},
		{name: "port out of range", key: "SERVER_PORT", value: "70000"},
		{name: "negative points", key: "POINTS_PER_LOSS", value: "-1"},
		{name: "negative qualification", key: "DEFAULT_QUALIFICATION_COUNT", value: "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
