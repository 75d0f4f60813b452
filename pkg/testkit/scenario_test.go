package testkit

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsetMatchesNestedValues(t *testing.T) {
	exp := map[string]interface{}{"a": 1.0, "b": map[string]interface{}{"c": "x"}}
	act := map[string]interface{}{"a": 1.0, "b": map[string]interface{}{"c": "x", "d": true}, "e": nil}

	_, ok := subset(exp, act, "$")
	assert.True(t, ok)

	path, ok := subset(map[string]interface{}{"b": map[string]interface{}{"c": "y"}}, act, "$")
	assert.False(t, ok)
	assert.Equal(t, "$.b.c", path)
}

func TestRunFileExpandsVars(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"data":{"id":7,"name":"okra"}}`)) //nolint:errcheck
	})
	srv := NewServer(t, mux)

	path := filepath.Join(t.TempDir(), "scenarios.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"show","method":"get","url":"/items/{{id}}","expectedCode":200,
		 "expectedBody":{"data":{"id":7}}}
	]`), 0o600))

	srv.RunFile(t, path, map[string]string{"id": "7"})
}
