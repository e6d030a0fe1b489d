package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These cover Redis failure paths that miniredis cannot produce on demand.

func TestManager_Get_RedisFailure(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	manager := NewManager(redisClient)

	key := Key{Endpoint: "/api/v1/search", Body: []byte(`{"limit":50}`)}
	redisMock.ExpectGet(key.String()).SetErr(errors.New("connection reset by peer"))

	_, err := manager.Get(context.Background(), key)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
	assert.Contains(t, err.Error(), "redis get")
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestManager_Get_Nil(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	manager := NewManager(redisClient)

	key := Key{Endpoint: "/api/v1/search/only_ids", Body: []byte(`{"limit":1000}`)}
	redisMock.ExpectGet(key.String()).RedisNil()

	_, err := manager.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestManager_Get_CorruptEntry(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	manager := NewManager(redisClient)

	key := Key{Endpoint: "/api/v1/search", Body: []byte(`{"query":"tea","limit":50}`)}
	redisMock.ExpectGet(key.String()).SetVal("not json")

	_, err := manager.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestManager_Delete_RedisFailure(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	manager := NewManager(redisClient)

	key := Key{Endpoint: "/api/v1/search", Body: []byte(`{}`)}
	redisMock.ExpectDel(key.String()).SetErr(errors.New("READONLY"))

	err := manager.Delete(context.Background(), key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis del")
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
