package scheduler

import (
	"crypto/tls"
	"errors"

	"power_dialer_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultQueue = "default"

var errNoRedis = errors.New("scheduler: REDIS_URL not configured")

// conn is what the client, the worker and the periodic scheduler share.
type conn struct {
	opt   asynq.RedisClientOpt
	queue string
}

func connFromConfig(cfg config.SchedulerConfig) (conn, error) {
	if cfg.GetRedisURL() == "" {
		return conn{}, errNoRedis
	}
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return conn{}, err
	}
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}
	return conn{opt: opt, queue: queue}, nil
}

// redisClientOpt turns a redis:// or rediss:// URL into asynq options.
// tlsInsecure skips certificate checks, for managed redis behind self-signed certs.
func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	tlsConfig := parsed.TLSConfig
	if tlsInsecure {
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		} else {
			tlsConfig = tlsConfig.Clone()
		}
		tlsConfig.InsecureSkipVerify = true
	}

	return asynq.RedisClientOpt{
		Addr:      parsed.Addr,
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: tlsConfig,
	}, nil
}
