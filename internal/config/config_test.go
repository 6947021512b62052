package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DEV_DB_DRIVER", "sqlite")
	t.Setenv("DATA_ENC_KEY", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	t.Setenv("KAFKA_BROKERS", " broker1:9092, ,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL())
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"bad mode":     {"APP_MODE": "staging"},
		"bad driver":   {"APP_MODE": "dev", "DEV_DB_DRIVER": "oracle", "DATA_ENC_KEY": "x"},
		"missing key":  {"APP_MODE": "dev", "DEV_DB_DRIVER": "sqlite"},
		"prod secrets": {"APP_MODE": "prod", "PROD_DB_DRIVER": "sqlite", "DATA_ENC_KEY": "x"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATA_ENC_KEY", "")
			t.Setenv("DEV_DATA_ENC_KEY", "")
			t.Setenv("DATA_ENC_KEY_KMS_BLOB", "")
			t.Setenv("PROD_JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
