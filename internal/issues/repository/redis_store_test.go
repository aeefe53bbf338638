package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func TestRedisProjectStore_GetOrCreate(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisProjectStore(client)
	ctx := context.Background()

	t.Run("creates missing project", func(t *testing.T) {
		p, err := store.GetOrCreate(ctx, "apitest")
		require.NoError(t, err)
		assert.Equal(t, "apitest", p.Title)
		assert.NotNil(t, p.Issues)
		assert.Empty(t, p.Issues)
		assert.False(t, p.CreatedAt.IsZero())
		assert.True(t, mr.Exists("tracker:project:apitest"))
	})

	t.Run("returns existing project", func(t *testing.T) {
		p, err := store.GetOrCreate(ctx, "apitest")
		require.NoError(t, err)
		p.Issues = append(p.Issues, domain.Issue{ID: "i1", IssueTitle: "first"})
		require.NoError(t, store.Save(ctx, p))

		again, err := store.GetOrCreate(ctx, "apitest")
		require.NoError(t, err)
		require.Len(t, again.Issues, 1)
		assert.Equal(t, "i1", again.Issues[0].ID)
		assert.Equal(t, p.CreatedAt.Unix(), again.CreatedAt.Unix())
	})

	t.Run("titles are exact", func(t *testing.T) {
		p, err := store.GetOrCreate(ctx, "APITEST")
		require.NoError(t, err)
		assert.Empty(t, p.Issues)
	})

	t.Run("propagates store failure", func(t *testing.T) {
		mr.SetError("server down")
		defer mr.SetError("")

		_, err := store.GetOrCreate(ctx, "other")
		assert.Error(t, err)
	})
}

func TestRedisProjectStore_SavePreservesOrder(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisProjectStore(client)
	ctx := context.Background()

	p, err := store.GetOrCreate(ctx, "ordered")
	require.NoError(t, err)
	for _, id := range []string{"c", "a", "b"} {
		p.Issues = append(p.Issues, domain.Issue{ID: id})
	}
	require.NoError(t, store.Save(ctx, p))

	loaded, err := store.GetOrCreate(ctx, "ordered")
	require.NoError(t, err)
	require.Len(t, loaded.Issues, 3)
	assert.Equal(t, "c", loaded.Issues[0].ID)
	assert.Equal(t, "a", loaded.Issues[1].ID)
	assert.Equal(t, "b", loaded.Issues[2].ID)
	assert.False(t, loaded.UpdatedAt.Before(loaded.CreatedAt))
}

func TestRedisProjectStore_PruneEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisProjectStore(client)
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "empty-one")
	require.NoError(t, err)
	_, err = store.GetOrCreate(ctx, "empty-two")
	require.NoError(t, err)
	busy, err := store.GetOrCreate(ctx, "busy")
	require.NoError(t, err)
	busy.Issues = append(busy.Issues, domain.Issue{ID: "x"})
	require.NoError(t, store.Save(ctx, busy))
	require.NoError(t, client.Set(ctx, "unrelated", "1", 0).Err())

	t.Run("keeps recent projects", func(t *testing.T) {
		n, err := store.PruneEmpty(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("removes old empty projects only", func(t *testing.T) {
		n, err := store.PruneEmpty(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.False(t, mr.Exists("tracker:project:empty-one"))
		assert.False(t, mr.Exists("tracker:project:empty-two"))
		assert.True(t, mr.Exists("tracker:project:busy"))
		assert.True(t, mr.Exists("unrelated"))
	})
}

func TestRedisEventPublisher_Publish(t *testing.T) {
	client, _ := setupTestRedis(t)
	publisher := NewRedisEventPublisher(client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, EventChannel("apitest"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := domain.IssueEvent{
		Type:    domain.EventIssueDeleted,
		Project: "apitest",
		IssueID: "abc",
		At:      time.Now().UTC(),
	}
	require.NoError(t, publisher.Publish(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got domain.IssueEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, domain.EventIssueDeleted, got.Type)
	assert.Equal(t, "abc", got.IssueID)
	assert.Nil(t, got.Issue)
}

func TestRedisProjectStore_GetOrCreateConcurrent(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisProjectStore(client)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	created := make([]time.Time, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := store.GetOrCreate(ctx, "shared")
			errs[i] = err
			if err == nil {
				created[i] = p.CreatedAt
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		// every caller sees the single document that won SETNX
		assert.True(t, created[0].Equal(created[i]), "worker %d saw a different project", i)
	}

	keys, err := client.Keys(ctx, "tracker:project:*").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"tracker:project:shared"}, keys)
}

// deleteAfterSetNX removes the key whenever SETNX loses, simulating a prune
// landing between SETNX and GET.
type deleteAfterSetNX struct {
	mr        *miniredis.Miniredis
	remaining int
	hits      int
}

func (h *deleteAfterSetNX) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *deleteAfterSetNX) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *deleteAfterSetNX) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil || cmd.Name() != "setnx" || h.remaining == 0 {
			return err
		}
		if set, ok := cmd.(*redis.BoolCmd); ok && !set.Val() {
			h.remaining--
			h.hits++
			h.mr.Del(fmt.Sprint(cmd.Args()[1]))
		}
		return err
	}
}

func TestRedisProjectStore_GetOrCreateRetriesAfterDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisProjectStore(client)
	ctx := context.Background()

	old := domain.NewProject("racy", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, mr.Set("tracker:project:racy", string(data)))

	hook := &deleteAfterSetNX{mr: mr, remaining: 1}
	client.AddHook(hook)

	p, err := store.GetOrCreate(ctx, "racy")
	require.NoError(t, err)
	assert.Equal(t, 1, hook.hits)
	assert.Equal(t, "racy", p.Title)
	assert.True(t, p.CreatedAt.After(old.CreatedAt), "expected a freshly created project")
	assert.True(t, mr.Exists("tracker:project:racy"))
}

func TestRedisProjectStore_GetOrCreateGivesUp(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisProjectStore(client)

	// SETNX keeps losing to a key that is removed before every GET
	hook := &deleteAfterSetNX{mr: mr, remaining: -1}
	client.AddHook(&recreateBeforeSetNX{mr: mr, key: "tracker:project:gone"})
	client.AddHook(hook)

	_, err := store.GetOrCreate(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, hook.hits)
}

// recreateBeforeSetNX writes the key just before each SETNX so that it loses.
type recreateBeforeSetNX struct {
	mr  *miniredis.Miniredis
	key string
}

func (h *recreateBeforeSetNX) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *recreateBeforeSetNX) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *recreateBeforeSetNX) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "setnx" {
			_ = h.mr.Set(h.key, `{"title":"gone","issues":[]}`)
		}
		return next(ctx, cmd)
	}
}
