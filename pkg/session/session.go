// Package session provides server-side HTTP sessions keyed by an opaque
// cookie token. Session data lives in an injected Store, so the same
// middleware runs against process memory in development and Redis when
// several instances share sessions.
//
// Usage (middleware):
//
//	r.Use(session.Middleware(store, session.DefaultOptions()))
//
// Usage (handler):
//
//	sess := session.FromCtx(r)
//	sess.Set("user_id", 42)
//	sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns a 24 hour, HttpOnly, Lax cookie.
func DefaultOptions() Options {
	return Options{
		CookieName: "farmchain_session",
		TTL:        24 * time.Hour,
		HTTPOnly:   true,
		Secure:     false,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

type ctxKey struct{}

// Session is an in-request session handle. It is not safe for concurrent
// use; a request owns its handle.
type Session struct {
	id      string
	data    Data
	opts    Options
	store   Store
	changed bool
	loaded  bool
}

// newID generates a cryptographically random 32-byte hex token.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Set stores a value under key in the session.
func (s *Session) Set(key string, value interface{}) {
	s.data[key] = value
	s.changed = true
}

// Get retrieves a value from the session.
func (s *Session) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

// GetString is a typed convenience getter.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.data[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetUint is a typed convenience getter. Values that went through a JSON
// store come back as float64 and are converted.
func (s *Session) GetUint(key string) (uint, bool) {
	v, ok := s.data[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint:
		return n, true
	case int:
		if n >= 0 {
			return uint(n), true
		}
	case int64:
		if n >= 0 {
			return uint(n), true
		}
	case float64:
		if n >= 0 {
			return uint(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil && i >= 0 {
			return uint(i), true
		}
	}
	return 0, false
}

// Delete removes a key from the session.
func (s *Session) Delete(key string) {
	delete(s.data, key)
	s.changed = true
}

// ID returns the session token.
func (s *Session) ID() string { return s.id }

// Exists reports whether the request presented a token the store knew.
func (s *Session) Exists() bool { return s.loaded }

// Regenerate moves the session to a fresh token and drops the old one from
// the store. Call it whenever the privilege level changes (login).
func (s *Session) Regenerate(ctx context.Context) error {
	old := s.id
	id, err := newID()
	if err != nil {
		return fmt.Errorf("session: new id: %w", err)
	}
	s.id = id
	s.changed = true
	if s.loaded {
		s.loaded = false
		if err := s.store.Destroy(ctx, old); err != nil {
			return fmt.Errorf("session: destroy old: %w", err)
		}
	}
	return nil
}

// Save persists the session and writes the cookie to the response.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed {
		return nil
	}

	if err := s.store.Set(ctx, s.id, s.data, s.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    s.id,
		Path:     s.opts.Path,
		MaxAge:   int(s.opts.TTL.Seconds()),
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})

	s.changed = false
	s.loaded = true
	return nil
}

// Destroy removes the session from the store and expires the cookie.
func (s *Session) Destroy(ctx context.Context, w http.ResponseWriter) error {
	if err := s.store.Destroy(ctx, s.id); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     s.opts.Path,
		MaxAge:   -1,
		HttpOnly: s.opts.HTTPOnly,
		Secure:   s.opts.Secure,
		SameSite: s.opts.SameSite,
	})

	s.data = Data{}
	s.changed = false
	s.loaded = false
	return nil
}

// Middleware loads the session named by the request cookie, or starts an
// empty one, and injects it into the request context. Unknown tokens are
// never adopted: a fresh token is minted instead.
func Middleware(store Store, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{opts: opts, store: store, data: Data{}}

			if cookie, err := r.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				data, ok, err := store.Get(r.Context(), cookie.Value)
				if err == nil && ok {
					sess.id = cookie.Value
					sess.data = data
					sess.loaded = true
				}
			}

			if sess.id == "" {
				id, err := newID()
				if err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				sess.id = id
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromCtx retrieves the session from the request context, or nil when the
// session middleware did not run.
func FromCtx(r *http.Request) *Session {
	s, _ := r.Context().Value(ctxKey{}).(*Session)
	return s
}
