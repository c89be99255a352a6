package agents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirrorme/mirrorme/internal/store"
)

func newTestMux(t *testing.T) (*http.ServeMux, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "agents.db"))
	assert.Nil(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mux := http.NewServeMux()
	NewAPI(s).Routes(mux, "/api/agents-api")
	return mux, s
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)

	payload := map[string]interface{}{}
	_ = json.Unmarshal(recorder.Body.Bytes(), &payload)
	return recorder.Code, payload
}

func TestAgentLifecycle(t *testing.T) {
	mux, _ := newTestMux(t)

	code, payload := doJSON(t, mux, http.MethodPost, "/api/agents-api", `{"name":"mirror","description":"a mirror agent","trust_score":10}`)
	assert.EqualValues(t, http.StatusCreated, code)
	assert.EqualValues(t, "Agent created successfully", payload["message"])
	agent, _ := payload["agent"].(map[string]interface{})
	id, _ := agent["id"].(string)
	assert.NotEmpty(t, id)

	code, payload = doJSON(t, mux, http.MethodGet, "/api/agents-api/"+id, "")
	assert.EqualValues(t, http.StatusOK, code)
	agent, _ = payload["agent"].(map[string]interface{})
	assert.EqualValues(t, "mirror", agent["name"])

	code, payload = doJSON(t, mux, http.MethodPut, "/api/agents-api/"+id, `{"name":"renamed"}`)
	assert.EqualValues(t, http.StatusOK, code)
	agent, _ = payload["agent"].(map[string]interface{})
	assert.EqualValues(t, "renamed", agent["name"])
	assert.EqualValues(t, "a mirror agent", agent["description"])

	code, payload = doJSON(t, mux, http.MethodPatch, "/api/agents-api/"+id+"/trust-score", `{"trust_score":95}`)
	assert.EqualValues(t, http.StatusOK, code)
	agent, _ = payload["agent"].(map[string]interface{})
	assert.EqualValues(t, 95, agent["trust_score"])

	code, payload = doJSON(t, mux, http.MethodGet, "/api/agents-api", "")
	assert.EqualValues(t, http.StatusOK, code)
	list, _ := payload["agents"].([]interface{})
	assert.EqualValues(t, 1, len(list))

	code, payload = doJSON(t, mux, http.MethodDelete, "/api/agents-api/"+id, "")
	assert.EqualValues(t, http.StatusOK, code)
	assert.EqualValues(t, "Agent deleted successfully", payload["message"])

	code, _ = doJSON(t, mux, http.MethodGet, "/api/agents-api/"+id, "")
	assert.EqualValues(t, http.StatusNotFound, code)
}

func TestAgentValidation(t *testing.T) {
	mux, _ := newTestMux(t)

	testCases := []struct {
		description   string
		method        string
		path          string
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			description:   "create without name",
			method:        http.MethodPost,
			path:          "/api/agents-api",
			body:          `{"description":"x"}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Name is required",
		},
		{
			description:   "create with out-of-range trust score",
			method:        http.MethodPost,
			path:          "/api/agents-api",
			body:          `{"name":"mirror","trust_score":200}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Trust score must be a number between 0 and 100",
		},
		{
			description:   "patch without trust score",
			method:        http.MethodPatch,
			path:          "/api/agents-api/some-id/trust-score",
			body:          `{}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Trust score is required",
		},
		{
			description:   "patch with negative trust score",
			method:        http.MethodPatch,
			path:          "/api/agents-api/some-id/trust-score",
			body:          `{"trust_score":-1}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Trust score must be a number between 0 and 100",
		},
		{
			description:   "update missing agent",
			method:        http.MethodPut,
			path:          "/api/agents-api/missing",
			body:          `{"name":"x"}`,
			expectedCode:  http.StatusNotFound,
			expectedError: "Agent not found",
		},
		{
			description:   "delete missing agent",
			method:        http.MethodDelete,
			path:          "/api/agents-api/missing",
			body:          "",
			expectedCode:  http.StatusNotFound,
			expectedError: "Agent not found",
		},
	}

	for _, tc := range testCases {
		code, payload := doJSON(t, mux, tc.method, tc.path, tc.body)
		assert.EqualValues(t, tc.expectedCode, code, tc.description)
		assert.EqualValues(t, tc.expectedError, payload["error"], tc.description)
	}
}
