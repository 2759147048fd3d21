package record

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLeaderboardKey = "rummikub:leaderboard"
	recentRounds          = 100
)

type RedisConf struct {
	Addr           string
	Password       string
	DB             int
	LeaderboardKey string
}

// RedisSink adds score deltas to a sorted-set leaderboard and keeps the last
// rounds as JSON in a capped list.
type RedisSink struct {
	cli *redis.Client
	key string
}

func NewRedisSink(ctx context.Context, conf RedisConf) (*RedisSink, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("ping redis %s: %w", conf.Addr, err)
	}
	key := conf.LeaderboardKey
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &RedisSink{cli: cli, key: key}, nil
}

func (s *RedisSink) roundsKey() string { return s.key + ":rounds" }

func (s *RedisSink) Record(ctx context.Context, r RoundResult) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	pipe := s.cli.TxPipeline()
	for player, delta := range r.Deltas {
		if delta != 0 {
			pipe.ZIncrBy(ctx, s.key, float64(delta), player)
		}
	}
	pipe.LPush(ctx, s.roundsKey(), data)
	pipe.LTrim(ctx, s.roundsKey(), 0, recentRounds-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record round %s: %w", r.ID, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.cli.Close()
}
