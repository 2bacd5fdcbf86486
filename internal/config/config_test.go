package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "abc123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerConfig.Port)
	assert.Equal(t, "America/Lima", cfg.GymConfig.TimeZone)
	assert.Equal(t, 90, cfg.GymConfig.AverageStayMinutes)
	assert.Equal(t, 5*time.Second, cfg.KioskConfig.Debounce)
	assert.Equal(t, 9600, cfg.RelayConfig.BaudRate)
	assert.Empty(t, cfg.RelayConfig.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.AllowedOrigins())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=fromfile\nGYM_TIMEZONE=Europe/Madrid\nKIOSK_DEBOUNCE=2s\n"), 0o644))

	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("GYM_TIMEZONE")
	os.Unsetenv("KIOSK_DEBOUNCE")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("GYM_TIMEZONE")
		os.Unsetenv("KIOSK_DEBOUNCE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.AuthConfig.JWTSecret)
	assert.Equal(t, "Europe/Madrid", cfg.Location().String())
	assert.Equal(t, 2*time.Second, cfg.KioskConfig.Debounce)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", "abc123")
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.env"))
	require.NoError(t, err)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	t.Setenv("JWT_SECRET", "abc123")
	t.Setenv("GYM_TIMEZONE", "Mars/Olympus")
	_, err := Load("")
	require.Error(t, err)
}

func TestMaskSensitiveData(t *testing.T) {
	assert.Equal(t, "****", maskSensitiveData("ab"))
	assert.Equal(t, "s****t", maskSensitiveData("secret"))
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "1", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.DSN())
}
