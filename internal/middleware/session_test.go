package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partier/partier/internal/session"
)

func TestLoadSessionAttachesPrincipal(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := session.NewStore(rdb, 24*time.Hour)

	p := session.Principal{UserID: 7, Username: "ava", IsOrganizer: true}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	mock.ExpectGet("sess:abc123").SetVal(string(data))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "abc123"})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	var got session.Principal
	var ok bool
	next := func(c echo.Context) error {
		got, ok = Principal(c)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, LoadSession(store)(next)(c))
	require.True(t, ok)
	assert.Equal(t, p, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSessionClearsStaleCookie(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := session.NewStore(rdb, 24*time.Hour)
	mock.ExpectGet("sess:gone").RedisNil()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "gone"})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	next := func(c echo.Context) error {
		_, ok := Principal(c)
		assert.False(t, ok)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, LoadSession(store)(next)(c))

	res := rec.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSessionNoCookie(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	store := session.NewStore(rdb, 24*time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	next := func(c echo.Context) error {
		_, ok := Principal(c)
		assert.False(t, ok)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, LoadSession(store)(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
