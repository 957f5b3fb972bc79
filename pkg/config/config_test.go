package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "cfdi.xml", cfg.CFDI.OutputFile)
	assert.Equal(t, 30*time.Second, cfg.PAC.Timeout)
	assert.False(t, cfg.DB.Enabled())
	assert.False(t, cfg.PAC.Enabled())
}

func TestFromViper_Valores(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "9090")
	v.Set("DB_HOST", "db")
	v.Set("DB_PASSWORD", "p@ss:word")
	v.Set("CFDI_CERT_PATH", "/csd/eku.cer")
	v.Set("CFDI_KEY_FORMAT", "pem")
	v.Set("PAC_USER", "demo")
	v.Set("PAC_PASSWORD", "secreto")
	v.Set("PAC_TIMEOUT_SECONDS", 5)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "postgres://postgres:p%40ss%3Aword@db:5432/cfdi?sslmode=disable", cfg.DB.ConnectionString())
	assert.Equal(t, "/csd/eku.cer", cfg.CFDI.CertPath)
	assert.Equal(t, "pem", cfg.CFDI.KeyFormat)
	assert.True(t, cfg.PAC.Enabled())
	assert.Equal(t, 5*time.Second, cfg.PAC.Timeout)
}

func TestFromViper_DatabaseURLTienePrioridad(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_URL", "postgresql://u:p@h:6543/x?sslmode=require")
	v.Set("DB_HOST", "otro")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "postgresql://u:p@h:6543/x?sslmode=require", cfg.DB.ConnectionString())
}

func TestFromViper_PuertoInvalido(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "ocho mil")
	_, err := config.FromViper(v)
	assert.Error(t, err)
}
