package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Server is an httptest server plus a client that keeps cookies, so a
// login carries over to later requests like it does in a browser.
type Server struct {
	t      testing.TB
	URL    string
	client *http.Client
	token  string
}

// NewServer starts handler and stops it when the test ends.
func NewServer(t testing.TB, handler http.Handler) *Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return &Server{t: t, URL: ts.URL, client: newClient(t)}
}

func newClient(t testing.TB) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// Fresh returns a client for the same server with an empty cookie jar.
func (s *Server) Fresh() *Server {
	return &Server{t: s.t, URL: s.URL, client: newClient(s.t)}
}

// WithToken returns a cookie-less client that sends a bearer token.
func (s *Server) WithToken(token string) *Server {
	return &Server{t: s.t, URL: s.URL, client: newClient(s.t), token: token}
}

func (s *Server) Get(path string) *Response          { return s.Do(http.MethodGet, path, nil) }
func (s *Server) Post(path string, body any) *Response  { return s.Do(http.MethodPost, path, body) }
func (s *Server) Put(path string, body any) *Response   { return s.Do(http.MethodPut, path, body) }
func (s *Server) Patch(path string, body any) *Response { return s.Do(http.MethodPatch, path, body) }
func (s *Server) Delete(path string) *Response       { return s.Do(http.MethodDelete, path, nil) }

// Do sends body as JSON. A []byte or json.RawMessage body is sent as is.
func (s *Server) Do(method, path string, body any) *Response {
	s.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rdr = bytes.NewReader(b)
	case json.RawMessage:
		rdr = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(s.t, err)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req)
}

// Send fires a prepared request, e.g. a multipart upload.
func (s *Server) Send(req *http.Request) *Response {
	s.t.Helper()
	return s.send(req)
}

func (s *Server) send(req *http.Request) *Response {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	res, err := s.client.Do(req)
	require.NoError(s.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)
	return &Response{Code: res.StatusCode, Header: res.Header, Body: raw}
}

// Response is a fully read reply.
type Response struct {
	Code   int
	Header http.Header
	Body   []byte
}

// Envelope is the decoded API envelope with data kept raw.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// Envelope decodes the reply as an API envelope.
func (r *Response) Envelope(t testing.TB) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(r.Body, &env), "body: %s", r.Body)
	return env
}

// Data decodes the envelope's data into dest.
func (r *Response) Data(t testing.TB, dest any) {
	t.Helper()
	env := r.Envelope(t)
	require.NoError(t, json.Unmarshal(env.Data, dest), "data: %s", env.Data)
}

// AssertStatus checks the HTTP code and prints the body on mismatch.
func (r *Response) AssertStatus(t testing.TB, want int) *Response {
	t.Helper()
	assert.Equal(t, want, r.Code, "body: %s", r.Body)
	return r
}
