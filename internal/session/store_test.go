package session

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID(t *testing.T, id string) {
	t.Helper()
	orig := newID
	newID = func() (string, error) { return id, nil }
	t.Cleanup(func() { newID = orig })
}

func TestCreateStoresPrincipalWithTTL(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, 7*24*time.Hour)
	fixedID(t, "abc123")

	p := Principal{UserID: 42, Username: "dj-khaled", IsOrganizer: true}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectSet("sess:abc123", data, 7*24*time.Hour).SetVal("OK")

	id, err := store.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	p := Principal{UserID: 7, Username: "nightowl", IsSuperAdmin: true}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	mock.ExpectGet("sess:deadbeef").SetVal(string(data))

	got, err := store.Get(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingSession(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	mock.ExpectGet("sess:unknown").RedisNil()

	_, err := store.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroy(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, time.Hour)

	mock.ExpectDel("sess:abc123").SetVal(1)
	require.NoError(t, store.Destroy(context.Background(), "abc123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCookie(t *testing.T) {
	c := Cookie("abc123", 7*24*time.Hour, false)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, int(7*24*time.Hour/time.Second), c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	cleared := Cookie("", time.Hour, true)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.True(t, cleared.Secure)
}
