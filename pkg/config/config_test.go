package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8083, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 30, cfg.Clinic.HorizonDays)
	assert.Equal(t, 5, cfg.Clinic.WeekdaySlots)
	assert.Equal(t, 3, cfg.Clinic.SaturdaySlots)
	assert.Equal(t, "reception@clinic.com", cfg.Clinic.ReceptionInbox)
	assert.True(t, cfg.Clinic.SeedDemoData)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8083", cfg.Server.Addr())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AUTH_JWT_SECRET", "from-viper-env")
	t.Setenv("PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLINIC_HORIZON_DAYS", "14")
	t.Setenv("CLINIC_RECEPTION_INBOX", "front-desk")
	t.Setenv("DATABASE_URL", "postgres://clinic:secret@db:5432/clinic?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-viper-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 14, cfg.Clinic.HorizonDays)
	assert.Equal(t, "front-desk", cfg.Clinic.ReceptionInbox)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://clinic:secret@db:5432/clinic?sslmode=disable", cfg.Database.URL)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET_KEY", "")
		t.Setenv("AUTH_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret key is required")
	})

	t.Run("postgres without credentials", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET_KEY", "s")
		t.Setenv("DATABASE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database password is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET_KEY", "s")
		t.Setenv("DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}
