package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/pkg/errcode"
)

type apiResponse struct {
	Code int                    `json:"code"`
	Msg  string                 `json:"msg"`
	Data map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var parsed apiResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &parsed)
	return resp, parsed
}

func createUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/users", "", map[string]string{"email": email})
	require.Equal(t, http.StatusOK, resp.Code)
	userID, _ := parsed.Data["id"].(string)
	require.NotEmpty(t, userID)
	return userID
}

func TestDocumentUploadFlow(t *testing.T) {
	router, cleanup := setupRouter(t, nil)
	defer cleanup()

	userID := createUser(t, router, "flow-"+t.Name()+"@example.com")

	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/documents/presign", userID, map[string]interface{}{
		"filename": "thesis.pdf",
		"size_mb":  1.5,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, parsed.Code)
	docID, _ := parsed.Data["document_id"].(string)
	uploadURL, _ := parsed.Data["upload_url"].(string)
	require.NotEmpty(t, docID)
	require.NotEmpty(t, uploadURL)

	req := httptest.NewRequest(http.MethodPut, uploadURL, bytes.NewReader([]byte("%PDF-fake")))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	resp, _ = doJSON(t, router, http.MethodPost, "/api/v1/documents/confirm", userID, map[string]string{"document_id": docID})
	require.Equal(t, http.StatusOK, resp.Code)

	resp, parsed = doJSON(t, router, http.MethodPost, "/api/v1/documents/ingest", userID, map[string]string{"document_id": docID})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Zero(t, parsed.Code)

	resp, parsed = doJSON(t, router, http.MethodGet, "/api/v1/documents/"+docID, userID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	document, _ := parsed.Data["document"].(map[string]interface{})
	require.Equal(t, "processing", document["status"])

	resp, parsed = doJSON(t, router, http.MethodGet, "/api/v1/documents", userID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	documents, _ := parsed.Data["documents"].([]interface{})
	require.Len(t, documents, 1)
}

func TestDocumentAccessForeignDocument(t *testing.T) {
	router, cleanup := setupRouter(t, nil)
	defer cleanup()

	owner := createUser(t, router, "owner-"+t.Name()+"@example.com")
	intruder := createUser(t, router, "intruder-"+t.Name()+"@example.com")

	resp, parsed := doJSON(t, router, http.MethodPost, "/api/v1/documents/presign", owner, map[string]interface{}{
		"filename": "secret.pdf",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	docID, _ := parsed.Data["document_id"].(string)

	_, parsed = doJSON(t, router, http.MethodGet, "/api/v1/documents/"+docID, intruder, nil)
	require.Equal(t, errcode.ErrNotFound, parsed.Code)
}

func TestDocumentIngestRateLimited(t *testing.T) {
	router, cleanup := setupRouter(t, map[string]config.RatePolicy{
		"documents/ingest": {Limit: 2, WindowSeconds: 86400},
	})
	defer cleanup()

	userID := createUser(t, router, "limited-"+t.Name()+"@example.com")

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, router, http.MethodPost, "/api/v1/documents/ingest", userID, map[string]string{"document_id": "missing"})
		require.Equal(t, http.StatusOK, resp.Code)
	}
	resp, _ := doJSON(t, router, http.MethodPost, "/api/v1/documents/ingest", userID, map[string]string{"document_id": "missing"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	require.NotEmpty(t, resp.Header().Get("Retry-After"))
}
