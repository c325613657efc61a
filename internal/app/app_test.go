package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	t.Setenv("CSVCERT_UPLOAD_TEMP_DIR", t.TempDir())
	t.Setenv("CSVCERT_LOGGING_OUTPUT", "file")
	t.Setenv("CSVCERT_LOGGING_FILE_PATH", filepath.Join(t.TempDir(), "test.log"))
	t.Setenv("CSVCERT_SECURITY_RATE_LIMIT_ENABLED", "false")

	a, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() {
		if a.closeLogger != nil {
			a.closeLogger()
		}
	})
	return a
}

func TestApplicationHealthRoute(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplicationUnknownRoute(t *testing.T) {
	a := newTestApplication(t)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/not-found")
}

func TestApplicationUploadValidateFlow(t *testing.T) {
	a := newTestApplication(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "customers.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("email,firstname,lastname\nana@example.com,Ana,Gomez\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("regulation", "IMS"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var upload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	fileID := upload["file_id"].(string)

	req = httptest.NewRequest(http.MethodPost, "/api/validate",
		bytes.NewReader([]byte(`{"file_id":"`+fileID+`"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, float64(1), report["total_rows"])
	assert.Equal(t, float64(1), report["valid_rows"])
}
