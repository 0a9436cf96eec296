package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://datamall2.mytransport.sg/ltaodataservice/CarParkAvailabilityv2", cfg.DataMallURL)
	assert.Equal(t, 500, cfg.FeedPageSize)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "https://www.onemap.gov.sg", cfg.OneMapBaseURL)
	assert.Equal(t, 10*time.Second, cfg.OneMapTimeout)
	assert.Equal(t, "config/token_cache.json", cfg.TokenCachePath)
	assert.Equal(t, 30, cfg.CandidatePoolSize)
	assert.Equal(t, 100*time.Millisecond, cfg.RouteCallInterval)
	assert.Equal(t, 10, cfg.DefaultResultCount)
	assert.Equal(t, "data/carpark_data.csv", cfg.SnapshotPath)
	assert.Equal(t, "carpark_map.html", cfg.CityMapPath)
	assert.Equal(t, "nearest_carparks_map.html", cfg.NearestMapPath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "carpark-availability", cfg.KafkaTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LTA_DATAMALL_URL", "http://localhost:9000/feed")
	t.Setenv("LTA_DATAMALL_ACCOUNT_KEY", "test-key")
	t.Setenv("FEED_PAGE_SIZE", "100")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("ONEMAP_EMAIL", "dev@example.com")
	t.Setenv("ONEMAP_PASSWORD", "secret")
	t.Setenv("CANDIDATE_POOL_SIZE", "40")
	t.Setenv("ROUTE_CALL_INTERVAL", "250ms")
	t.Setenv("DEFAULT_RESULT_COUNT", "5")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/feed", cfg.DataMallURL)
	assert.Equal(t, "test-key", cfg.DataMallAccountKey)
	assert.Equal(t, 100, cfg.FeedPageSize)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 40, cfg.CandidatePoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.RouteCallInterval)
	assert.Equal(t, 5, cfg.DefaultResultCount)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, "text", cfg.LogFormat)

	require.NoError(t, cfg.RequireAccountKey())
	require.NoError(t, cfg.RequireOneMapCredentials())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ROUTE_CALL_INTERVAL", "fast")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROUTE_CALL_INTERVAL")
}

func TestLoad_InvalidPageSize(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_PAGE_SIZE")
}

func TestLoad_PoolSmallerThanResultCount(t *testing.T) {
	t.Setenv("CANDIDATE_POOL_SIZE", "5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CANDIDATE_POOL_SIZE")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestRequireCredentials_Missing(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Error(t, cfg.RequireAccountKey())
	assert.Error(t, cfg.RequireOneMapCredentials())
}
