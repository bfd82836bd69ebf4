// Package config builds per-service configuration from environment
// variables so each main stays lean. Defaults target local development;
// deployments override everything.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Broker carries the shared event-bus connection settings.
type Broker struct {
	Seeds []string
}

// Identity configures the identity domain service.
type Identity struct {
	Addr          string
	PostgresDSN   string
	Broker        Broker
	JWTSigningKey string
	TokenTTL      time.Duration
}

// Users configures the user-registry domain service.
type Users struct {
	Addr        string
	PostgresDSN string
	Broker      Broker
}

// Devices configures the device-registry domain service.
type Devices struct {
	Addr        string
	PostgresDSN string
	RedisURL    string
	Broker      Broker
}

// Monitoring configures one aggregation replica. ReplicaID is 1-based to
// match operator-facing queue naming; the consumed partition is ReplicaID-1.
type Monitoring struct {
	Addr         string
	PostgresDSN  string
	RedisURL     string
	Broker       Broker
	ReplicaID    int
	ReplicaCount int
}

// Router configures the partitioned ingestion router. Addr only serves
// health and metrics; the router has no domain API.
type Router struct {
	Addr         string
	Broker       Broker
	ReplicaCount int
}

// Validate rejects replica settings the partitioner cannot work with. The
// partition function takes the device hash mod ReplicaCount, so a
// non-positive count must never reach the ingest path.
func (r Router) Validate() error {
	if r.ReplicaCount < 1 {
		return fmt.Errorf("replica count %d must be at least 1", r.ReplicaCount)
	}
	return nil
}

// Validate rejects replica settings outside the partition range.
func (m Monitoring) Validate() error {
	if m.ReplicaCount < 1 {
		return fmt.Errorf("replica count %d must be at least 1", m.ReplicaCount)
	}
	if m.ReplicaID < 1 || m.ReplicaID > m.ReplicaCount {
		return fmt.Errorf("replica id %d out of range for %d replicas", m.ReplicaID, m.ReplicaCount)
	}
	return nil
}

// Notifier configures the notification push service.
type Notifier struct {
	Addr   string
	Broker Broker
}

// IdentityFromEnv builds the identity service configuration.
func IdentityFromEnv() Identity {
	return Identity{
		Addr:          envStr("WATTGRID_IDENTITY_ADDR", ":8081"),
		PostgresDSN:   envStr("WATTGRID_IDENTITY_POSTGRES_DSN", ""),
		Broker:        brokerFromEnv(),
		JWTSigningKey: envStr("WATTGRID_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      envDur("WATTGRID_TOKEN_TTL", time.Hour),
	}
}

// UsersFromEnv builds the user-registry service configuration.
func UsersFromEnv() Users {
	return Users{
		Addr:        envStr("WATTGRID_USERS_ADDR", ":8082"),
		PostgresDSN: envStr("WATTGRID_USERS_POSTGRES_DSN", ""),
		Broker:      brokerFromEnv(),
	}
}

// DevicesFromEnv builds the device-registry service configuration.
func DevicesFromEnv() Devices {
	return Devices{
		Addr:        envStr("WATTGRID_DEVICES_ADDR", ":8083"),
		PostgresDSN: envStr("WATTGRID_DEVICES_POSTGRES_DSN", ""),
		RedisURL:    envStr("WATTGRID_DEVICES_REDIS_URL", ""),
		Broker:      brokerFromEnv(),
	}
}

// MonitoringFromEnv builds one aggregation replica's configuration.
func MonitoringFromEnv() Monitoring {
	return Monitoring{
		Addr:         envStr("WATTGRID_MONITORING_ADDR", ":8084"),
		PostgresDSN:  envStr("WATTGRID_MONITORING_POSTGRES_DSN", ""),
		RedisURL:     envStr("WATTGRID_MONITORING_REDIS_URL", ""),
		Broker:       brokerFromEnv(),
		ReplicaID:    envInt("WATTGRID_MONITORING_REPLICA_ID", 1),
		ReplicaCount: envInt("WATTGRID_REPLICA_COUNT", 3),
	}
}

// RouterFromEnv builds the ingestion router configuration.
func RouterFromEnv() Router {
	return Router{
		Addr:         envStr("WATTGRID_ROUTER_ADDR", ":8086"),
		Broker:       brokerFromEnv(),
		ReplicaCount: envInt("WATTGRID_REPLICA_COUNT", 3),
	}
}

// NotifierFromEnv builds the notification service configuration.
func NotifierFromEnv() Notifier {
	return Notifier{
		Addr:   envStr("WATTGRID_NOTIFIER_ADDR", ":8085"),
		Broker: brokerFromEnv(),
	}
}

func brokerFromEnv() Broker {
	seeds := envStr("WATTGRID_BROKER_SEEDS", "localhost:9092")
	return Broker{Seeds: strings.Split(seeds, ",")}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
