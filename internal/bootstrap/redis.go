package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/config"
)

// ConnectRedis establishes a connection to Redis.
// A single client, a sentinel failover client, or a cluster client is chosen from config.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.newClient()

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", target.desc)
	}
	return client, nil
}

// redisTarget is a resolved connection plan. desc is safe to log.
type redisTarget struct {
	opts    *redis.UniversalOptions
	cluster bool
	desc    string
}

// newClient builds the client kind the config asked for. A cluster with a single seed
// address must still get a cluster client.
//
//nolint:ireturn // returning redis.UniversalClient keeps client selection flexible.
func (t redisTarget) newClient() redis.UniversalClient {
	switch {
	case t.cluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case t.opts.MasterName != "":
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

// redisOptions maps RedisConfig onto UniversalOptions.
func redisOptions(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		return clusterOptions(cfg)
	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return redisTarget{
			opts: &redis.UniversalOptions{
				Addrs:            nodes,
				MasterName:       cfg.SentinelMasterName,
				Password:         cfg.Password,
				SentinelPassword: cfg.SentinelPassword,
			},
			desc: "sentinel:" + cfg.SentinelMasterName,
		}, nil
	default:
		return directOptions(cfg)
	}
}

func clusterOptions(cfg config.RedisConfig) (redisTarget, error) {
	opts := &redis.UniversalOptions{
		Addrs:    normalizeAddrs(cfg.ClusterNodes),
		Password: cfg.Password,
	}

	// Without explicit nodes, the URI seeds the cluster.
	if len(opts.Addrs) == 0 {
		uri := strings.TrimSpace(cfg.URI)
		if isRedisURL(uri) {
			parsed, err := redis.ParseURL(uri)
			if err != nil {
				return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
			}
			applyParsedURL(opts, parsed)
		} else if uri != "" {
			opts.Addrs = []string{uri}
		}
	}

	if len(opts.Addrs) == 0 {
		return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
	}
	return redisTarget{opts: opts, cluster: true, desc: "cluster:" + strings.Join(opts.Addrs, ",")}, nil
}

func directOptions(cfg config.RedisConfig) (redisTarget, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return redisTarget{}, errors.New("redis direct configuration requires a URI")
	}

	opts := &redis.UniversalOptions{Password: cfg.Password}
	if !isRedisURL(uri) {
		opts.Addrs = []string{uri}
		return redisTarget{opts: opts, desc: uri}, nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
	}
	applyParsedURL(opts, parsed)
	opts.DB = parsed.DB
	return redisTarget{opts: opts, desc: parsed.Addr}, nil
}

// applyParsedURL copies address, credentials and TLS from a redis:// or rediss:// URL.
// Credentials in the URL win over REDIS_PASSWORD.
func applyParsedURL(dst *redis.UniversalOptions, parsed *redis.Options) {
	dst.Addrs = []string{parsed.Addr}
	dst.Username = parsed.Username
	if parsed.Password != "" {
		dst.Password = parsed.Password
	}
	dst.TLSConfig = parsed.TLSConfig
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
