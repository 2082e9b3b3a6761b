// Package integration exercises the k-mer tools against real backends
// (PostgreSQL, Redis, Kafka). Each test skips when its backend is not
// reachable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/redis"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 4,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func skipIfNoKafka(t *testing.T) config.KafkaConfig {
	t.Helper()
	cfg := config.KafkaConfig{
		Brokers:       []string{envOrDefault("TEST_KAFKA_BROKER", "localhost:9092")},
		ConsumerGroup: fmt.Sprintf("kmer-it-%d", time.Now().UnixNano()),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := kafka.Ping(ctx, cfg); err != nil {
		t.Skipf("skipping integration test: kafka unavailable: %v", err)
	}
	return cfg
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "kmersearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "kmersearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
