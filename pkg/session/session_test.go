package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handler(store Store, fn func(w http.ResponseWriter, r *http.Request, s *Session)) http.Handler {
	return Middleware(store, DefaultOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, FromCtx(r))
	}))
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "farmchain_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestLoginSessionIsPersistedAndReloaded(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Minute)

	login := handler(store, func(w http.ResponseWriter, r *http.Request, s *Session) {
		require.NoError(t, s.Regenerate(r.Context()))
		s.Set("user_id", uint(7))
		s.Set("role", "farmer")
		require.NoError(t, s.Save(r.Context(), w))
	})
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookie := cookieFrom(t, rec)
	assert.True(t, cookie.HttpOnly)

	var gotID uint
	var gotRole string
	me := handler(store, func(w http.ResponseWriter, r *http.Request, s *Session) {
		assert.True(t, s.Exists())
		gotID, _ = s.GetUint("user_id")
		gotRole, _ = s.GetString("role")
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	me.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, uint(7), gotID)
	assert.Equal(t, "farmer", gotRole)
}

func TestUnknownTokenIsNotAdopted(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Minute)

	var id string
	h := handler(store, func(w http.ResponseWriter, r *http.Request, s *Session) {
		assert.False(t, s.Exists())
		id = s.ID()
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "farmchain_session", Value: "attacker-chosen"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEqual(t, "attacker-chosen", id)
	assert.Len(t, id, 64)
}

func TestDestroyExpiresCookie(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "tok", Data{"user_id": float64(3)}, time.Hour))

	h := handler(store, func(w http.ResponseWriter, r *http.Request, s *Session) {
		id, ok := s.GetUint("user_id")
		assert.True(t, ok)
		assert.Equal(t, uint(3), id)
		require.NoError(t, s.Destroy(r.Context(), w))
	})
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "farmchain_session", Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, -1, cookieFrom(t, rec).MaxAge)
	_, ok, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore(time.Hour, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "old", Data{}, time.Millisecond))
	require.NoError(t, store.Set(ctx, "new", Data{}, time.Hour))
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, store.Prune())
	assert.Equal(t, 1, store.Len())
}

func TestPruneKeepsLiveSessions(t *testing.T) {
	store := NewMemoryStore(48*time.Hour, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "live", Data{"user_id": uint(9), "role": "buyer"}, 24*time.Hour))

	assert.Equal(t, 0, store.Prune())

	data, ok, err := store.Get(ctx, "live")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "buyer", data["role"])
}
