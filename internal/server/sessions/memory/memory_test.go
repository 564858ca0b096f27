package memory

import (
	"context"
	"testing"
	"time"

	"github.com/abezemskiy/gophauth/internal/repositories/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	stor, err := NewStore(time.Hour)
	require.NoError(t, err)
	defer stor.Close()

	tok := session.SessionToken{ID: "user id"}
	require.NoError(t, stor.Save(ctx, "sid", tok, time.Hour))

	got, ok, err := stor.Load(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tok, got)

	// неизвестная сессия
	_, ok, err = stor.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, stor.Delete(ctx, "sid"))
	_, ok, err = stor.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	// повторное удаление не ошибка
	require.NoError(t, stor.Delete(ctx, "sid"))
}

func TestExpiredSession(t *testing.T) {
	ctx := context.Background()
	stor, err := NewStore(time.Hour)
	require.NoError(t, err)
	defer stor.Close()

	now := time.Now()
	stor.now = func() time.Time { return now }
	require.NoError(t, stor.Save(ctx, "sid", session.SessionToken{ID: "user id"}, time.Minute))

	_, ok, err := stor.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)

	// время жизни сессии вышло
	stor.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok, err = stor.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanceledContext(t *testing.T) {
	stor, err := NewStore(time.Hour)
	require.NoError(t, err)
	defer stor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, stor.Save(ctx, "sid", session.SessionToken{ID: "id"}, time.Hour))
	_, _, err = stor.Load(ctx, "sid")
	require.Error(t, err)
	require.Error(t, stor.Delete(ctx, "sid"))
}
