package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the JSON envelope of REST responses
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// EnvelopeError is the error part of an envelope
type EnvelopeError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Meta    map[string]interface{} `json:"metadata,omitempty"`
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSON asserts a JSON content type and decodes the body into target
func (ha *HTTPAssertions) JSON(w *httptest.ResponseRecorder, target interface{}) {
	ha.t.Helper()
	contentType := w.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)
	require.NoError(ha.t, json.Unmarshal(w.Body.Bytes(), target), "Response should be valid JSON: %s", w.Body.String())
}

// Success asserts a successful envelope with status code and decodes its
// data into target when target is not nil
func (ha *HTTPAssertions) Success(w *httptest.ResponseRecorder, code int, target interface{}) {
	ha.t.Helper()
	require.Equal(ha.t, code, w.Code, w.Body.String())

	var env Envelope
	ha.JSON(w, &env)
	require.True(ha.t, env.Success, w.Body.String())
	if target != nil {
		require.NoError(ha.t, json.Unmarshal(env.Data, target))
	}
}

// Failure asserts a failed envelope with status code and error code
func (ha *HTTPAssertions) Failure(w *httptest.ResponseRecorder, code int, errorCode string) *EnvelopeError {
	ha.t.Helper()
	require.Equal(ha.t, code, w.Code, w.Body.String())

	var env Envelope
	ha.JSON(w, &env)
	assert.False(ha.t, env.Success)
	require.NotNil(ha.t, env.Error, w.Body.String())
	assert.Equal(ha.t, errorCode, env.Error.Code)
	return env.Error
}

// ProxyError asserts the flat {"error": message} body of the proxy endpoint
func (ha *HTTPAssertions) ProxyError(w *httptest.ResponseRecorder, code int, contains string) {
	ha.t.Helper()
	require.Equal(ha.t, code, w.Code, w.Body.String())

	var body map[string]string
	ha.JSON(w, &body)
	assert.Contains(ha.t, body["error"], contains)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(w *httptest.ResponseRecorder) {
	ha.t.Helper()
	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Content-Security-Policy",
	} {
		assert.NotEmpty(ha.t, w.Header().Get(header), "Security header %s should be present", header)
	}
}
