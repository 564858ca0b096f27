package serializer

import (
	"context"
	"errors"
	"testing"

	"github.com/abezemskiy/gophauth/internal/repositories/identity"
	"github.com/abezemskiy/gophauth/internal/repositories/mocks"
	"github.com/abezemskiy/gophauth/internal/repositories/session"
	"github.com/abezemskiy/gophauth/internal/server/storage/inmemory"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	user := identity.UserRecord{ID: "user id", Username: "feathers", PasswordDigest: "digest", Salt: "salt"}

	tok := Serialize(user)
	assert.Equal(t, session.SessionToken{ID: "user id"}, tok)

	// повторная сериализация даёт тот же токен
	assert.Equal(t, tok, Serialize(user))
}

func TestDeserialize(t *testing.T) {
	ctx := context.Background()
	stor := inmemory.NewStore()
	user, err := stor.Create(ctx, identity.UserRecord{Username: "feathers", PasswordDigest: "digest", Salt: "salt"})
	require.NoError(t, err)

	d := NewDeserializer(stor)
	{
		// Test. round trip
		got, ok, err := d.Deserialize(ctx, Serialize(user))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, user, got)
	}
	{
		// Test. empty token
		_, ok, err := d.Deserialize(ctx, session.SessionToken{})
		require.NoError(t, err)
		assert.False(t, ok)
	}
	{
		// Test. user was deleted
		deleted, err := stor.Delete(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		_, ok, err := d.Deserialize(ctx, Serialize(user))
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestDeserializeStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mocks.NewMockUserStore(ctrl)
	m.EXPECT().GetByID(gomock.Any(), "user id").Return(identity.UserRecord{}, false, errors.New("db down"))

	d := NewDeserializer(m)
	_, _, err := d.Deserialize(context.Background(), session.SessionToken{ID: "user id"})
	require.Error(t, err)
}
