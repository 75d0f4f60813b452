package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario is one request/expectation pair loaded from a JSON file.
// Placeholders of the form {{name}} in URL and Body are replaced from the
// vars passed to Run, so ids created earlier in a test can be referenced.
type Scenario struct {
	Name         string          `json:"name"`
	Method       string          `json:"method"`
	URL          string          `json:"url"`
	Body         json.RawMessage `json:"body,omitempty"`
	ExpectedCode int             `json:"expectedCode"`
	// ExpectedBody is matched as a subset: every key it names must be
	// present with an equal value, extra keys in the reply are ignored.
	ExpectedBody json.RawMessage `json:"expectedBody,omitempty"`
}

// LoadScenarios reads a JSON array of scenarios.
func LoadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Scenario
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("testkit: parse %s: %w", path, err)
	}
	return out, nil
}

// RunFile loads path and runs every scenario in order against s, each as
// a subtest.
func (s *Server) RunFile(t *testing.T, path string, vars map[string]string) {
	t.Helper()
	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) { s.Run(t, sc, vars) })
	}
}

// Run fires one scenario and checks its expectations.
func (s *Server) Run(t *testing.T, sc Scenario, vars map[string]string) *Response {
	t.Helper()

	url := expand(sc.URL, vars)
	var body any
	if len(sc.Body) > 0 {
		body = []byte(expand(string(sc.Body), vars))
	}

	res := s.Do(strings.ToUpper(sc.Method), url, body)
	res.AssertStatus(t, sc.ExpectedCode)
	if len(sc.ExpectedBody) > 0 {
		AssertJSONSubset(t, sc.ExpectedBody, res.Body)
	}
	return res
}

func expand(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// AssertJSONSubset fails unless every value in expected appears in actual.
// Objects are compared key by key, arrays element by element.
func AssertJSONSubset(t testing.TB, expected, actual []byte) {
	t.Helper()

	var exp, act interface{}
	require.NoError(t, json.Unmarshal(expected, &exp), "expected body is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(actual, &act), "actual body is not valid JSON\nbody: %s", actual) {
		return
	}
	if path, ok := subset(exp, act, "$"); !ok {
		assert.Failf(t, "response body mismatch", "at %s\nexpected: %s\nactual:   %s", path, expected, actual)
	}
}

func subset(exp, act interface{}, path string) (string, bool) {
	switch e := exp.(type) {
	case map[string]interface{}:
		a, ok := act.(map[string]interface{})
		if !ok {
			return path, false
		}
		for k, ev := range e {
			av, ok := a[k]
			if !ok {
				return path + "." + k, false
			}
			if p, ok := subset(ev, av, path+"."+k); !ok {
				return p, false
			}
		}
		return "", true
	case []interface{}:
		a, ok := act.([]interface{})
		if !ok || len(a) != len(e) {
			return path, false
		}
		for i := range e {
			if p, ok := subset(e[i], a[i], fmt.Sprintf("%s[%d]", path, i)); !ok {
				return p, false
			}
		}
		return "", true
	default:
		return path, assert.ObjectsAreEqual(exp, act)
	}
}
