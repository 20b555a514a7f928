package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/config"
	"github.com/target/quizgate/internal/adapters/clock"
	"github.com/target/quizgate/internal/adapters/memory"
	"github.com/target/quizgate/internal/adapters/postgres"
	redisadapter "github.com/target/quizgate/internal/adapters/redis"
	"github.com/target/quizgate/internal/ports"
	"github.com/target/quizgate/internal/service"
)

// Stores groups the adapters backing the service ports.
type Stores struct {
	Rate        ports.RateCounterStore
	Revocations ports.RevocationStore // nil when revocation is disabled
	// Sweep lists stores that keep expired entries until swept. Redis stores expire
	// keys on their own and never appear here.
	Sweep []service.SweepTarget
}

// StoreDeps groups dependencies for store construction.
type StoreDeps struct {
	Config *config.AppConfig
	DB     *sql.DB               // Required when the postgres revocation store is selected
	Redis  redis.UniversalClient // Required when a redis store is selected
	Clock  ports.Clock
}

// BuildStores selects the rate counter and revocation stores named in config.
func BuildStores(deps StoreDeps) (Stores, error) {
	if deps.Config == nil {
		return Stores{}, errors.New("config is required")
	}
	cfg := deps.Config
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	var stores Stores

	switch cfg.RateLimit.Store {
	case config.RateLimitStoreRedis:
		if deps.Redis == nil {
			return Stores{}, errors.New("redis rate limit store selected but redis is not connected")
		}
		stores.Rate = redisadapter.NewRateCounterStoreWithPrefix(deps.Redis, cfg.RateLimit.KeyPrefix)
	case config.RateLimitStoreMemory, "":
		mem := memory.NewRateCounterStore()
		stores.Rate = mem
		stores.Sweep = append(stores.Sweep, service.SweepTarget{Name: "rate_counters", Sweeper: mem})
	default:
		return Stores{}, fmt.Errorf("unsupported rate limit store: %q", cfg.RateLimit.Store)
	}

	switch cfg.Auth.RevocationStore {
	case config.RevocationStoreNone, "":
	case config.RevocationStoreMemory:
		list := memory.NewRevocationList(deps.Clock)
		stores.Revocations = list
		stores.Sweep = append(stores.Sweep, service.SweepTarget{Name: "revocations", Sweeper: list})
	case config.RevocationStoreRedis:
		if deps.Redis == nil {
			return Stores{}, errors.New("redis revocation store selected but redis is not connected")
		}
		stores.Revocations = redisadapter.NewRevocationStore(deps.Redis, redisadapter.WithRevocationClock(deps.Clock))
	case config.RevocationStorePostgres:
		if deps.DB == nil {
			return Stores{}, errors.New("postgres revocation store selected but the database is not connected")
		}
		pg := postgres.NewRevocationStore(deps.DB, deps.Clock)
		stores.Revocations = pg
		stores.Sweep = append(stores.Sweep, service.SweepTarget{Name: "revocations", Sweeper: pg})
	default:
		return Stores{}, fmt.Errorf("unsupported revocation store: %q", cfg.Auth.RevocationStore)
	}

	return stores, nil
}
