package config

// Redis backs rate limiting, the response cache and token revocation.  When
// the server cannot be reached at startup NewRedisClient returns nil and the
// caller degrades: limiter and cache turn into pass-throughs and revocation
// falls back to process memory.

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings read from REDIS_* variables.
type RedisConfig struct {
    Addr             string
    Password         string
    DB               int
    TLS              bool
    RevocationPrefix string
}

// LoadRedisConfig reads:
//   REDIS_ADDR – host:port (REDIS_HOST and REDIS_PORT take precedence when both set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_REVOCATION_PREFIX – key prefix for revoked token ids
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:             addr,
        Password:         os.Getenv("REDIS_PASSWORD"),
        DB:               envInt("REDIS_DB", 0),
        TLS:              strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
        RevocationPrefix: envStr("REDIS_REVOCATION_PREFIX", "revoked"),
    }
}

// NewRedisClient connects using cfg and pings the server with a short
// timeout.  It returns nil when the server is unreachable.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if cfg.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      cfg.Addr,
        Password:  cfg.Password,
        DB:        cfg.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
