package session

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"beacon/internal/constants"
)

// RedisStore keeps session tokens in Redis so logins survive restarts and
// can be shared by multiple instances behind a load balancer. Keys carry no
// TTL: a session is only ever ended by an explicit logout.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	cancel func()
}

func NewRedisStore(host, port, username, password string) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     host + ":" + port,
		Username: username,
		Password: password,
		DB:       0,
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())

	store := &RedisStore{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := store.client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, err
	}

	return store, nil
}

func (st *RedisStore) Save(token string) {
	key := constants.RedisKeyPrefix + token
	if err := st.client.Set(st.ctx, key, "1", 0).Err(); err != nil {
		log.Printf("Failed to save session to Redis: %v", err)
	}
}

func (st *RedisStore) Valid(token string) bool {
	key := constants.RedisKeyPrefix + token

	_, err := st.client.Get(st.ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.Printf("Failed to get session from Redis: %v", err)
		return false
	}
	return true
}

func (st *RedisStore) Delete(token string) {
	key := constants.RedisKeyPrefix + token
	if err := st.client.Del(st.ctx, key).Err(); err != nil {
		log.Printf("Failed to delete session from Redis: %v", err)
	}
}

func (st *RedisStore) Close() error {
	st.cancel()
	return st.client.Close()
}
