package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCORS(t *testing.T) {
	handled := 0
	wrapped := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handled++
		w.WriteHeader(http.StatusNoContent)
	}))

	testCases := []struct {
		description    string
		method         string
		origin         string
		requestHeaders string
		expectedOrigin string
		expectedCreds  string
		expectedAllow  string
		reachesNext    bool
	}{
		{
			description:    "origin is reflected with credentials",
			method:         http.MethodGet,
			origin:         "http://localhost:3000",
			expectedOrigin: "http://localhost:3000",
			expectedCreds:  "true",
			expectedAllow:  "Content-Type, Authorization",
			reachesNext:    true,
		},
		{
			description:    "no origin falls back to wildcard",
			method:         http.MethodGet,
			expectedOrigin: "*",
			expectedAllow:  "Content-Type, Authorization",
			reachesNext:    true,
		},
		{
			description:    "pre-flight answers without reaching the handler",
			method:         http.MethodOptions,
			origin:         "http://localhost:3000",
			requestHeaders: "X-Custom-Header",
			expectedOrigin: "http://localhost:3000",
			expectedCreds:  "true",
			expectedAllow:  "X-Custom-Header",
		},
	}

	for _, tc := range testCases {
		handled = 0
		req := httptest.NewRequest(tc.method, "/api/agents-api", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if tc.requestHeaders != "" {
			req.Header.Set("Access-Control-Request-Headers", tc.requestHeaders)
		}
		recorder := httptest.NewRecorder()
		wrapped.ServeHTTP(recorder, req)

		header := recorder.Header()
		assert.EqualValues(t, tc.expectedOrigin, header.Get("Access-Control-Allow-Origin"), tc.description)
		assert.EqualValues(t, tc.expectedCreds, header.Get("Access-Control-Allow-Credentials"), tc.description)
		assert.EqualValues(t, tc.expectedAllow, header.Get("Access-Control-Allow-Headers"), tc.description)
		if tc.reachesNext {
			assert.EqualValues(t, 1, handled, tc.description)
			assert.EqualValues(t, http.StatusNoContent, recorder.Code, tc.description)
		} else {
			assert.EqualValues(t, 0, handled, tc.description)
			assert.EqualValues(t, http.StatusOK, recorder.Code, tc.description)
		}
	}
}

func TestWithCORSNilHandler(t *testing.T) {
	assert.Nil(t, WithCORS(nil))
}
