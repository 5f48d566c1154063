// chatwarden/pkg/store/redis_store.go

package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"

	"chatwarden/pkg/logging"
)

var ctx = context.Background()

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given Redis server and returns a store
// keyed as player:<name>:data and player:<name>:points hashes.
func NewRedisStore(addr, password string, db int) *RedisStore {
	logging.Logger.Info().Str("addr", addr).Int("db", db).Msg("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	_, err := client.Ping(ctx).Result()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	logging.Logger.Info().Msg("Successfully connected to Redis")

	return &RedisStore{client: client}
}

// NewRedisStoreFromClient wraps an existing client, mainly for tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func dataKey(player string) string   { return "player:" + player + ":data" }
func pointsKey(player string) string { return "player:" + player + ":points" }

func (s *RedisStore) GetData(player, key string) (interface{}, bool, error) {
	data, err := s.client.HGet(ctx, dataKey(player), key).Result()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Str("player", player).Str("key", key).Msg("Failed to get player data")
		return nil, false, err
	}

	var value interface{}
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		logging.Logger.Error().Err(err).Str("player", player).Str("key", key).Str("data", data).Msg("Failed to unmarshal player data")
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) SetData(player, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, dataKey(player), key, data).Err()
}

func (s *RedisStore) GetPoints(player, set string) (int, error) {
	total, err := s.client.HGet(ctx, pointsKey(player), set).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *RedisStore) AddPoints(player, set string, delta int) (int, error) {
	total, err := s.client.HIncrBy(ctx, pointsKey(player), set, int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	if total < 0 {
		// Decay floors at zero.
		if err := s.client.HSet(ctx, pointsKey(player), set, 0).Err(); err != nil {
			return 0, err
		}
		total = 0
	}
	return int(total), nil
}

// Subscribe opens a pub/sub subscription on the given channels, used
// by the daemon to ingest chat events and by the bungee relay.
func (s *RedisStore) Subscribe(channels ...string) *redis.PubSub {
	return s.client.Subscribe(ctx, channels...)
}

// Publish sends one payload on a pub/sub channel.
func (s *RedisStore) Publish(channel, payload string) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

func (s *RedisStore) AllPoints(player string) (map[string]int, error) {
	fields, err := s.client.HGetAll(ctx, pointsKey(player)).Result()
	if err != nil {
		return nil, err
	}
	points := make(map[string]int, len(fields))
	for set, v := range fields {
		total, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		points[set] = total
	}
	return points, nil
}
