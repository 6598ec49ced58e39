package api_test

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tshea68/reliable-pull/api"
)

const downloadPath = "/ws/rest/ReliablePartsBoomiAPI/partInventoryAndPriceFile/v1/download"
const createPath = "/ws/rest/ReliablePartsBoomiAPI/partInventoryAndPriceFile/v1/create"

func postJSON(t *testing.T, s *api.MockServer, path string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return resp.StatusCode, payload
}

func TestHealthEndpoint(t *testing.T) {
	s := api.NewMockServer(api.MockOptions{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.GetApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "OK", string(body))
}

func TestCreateEndpoint(t *testing.T) {
	s := api.NewMockServer(api.MockOptions{})
	status, payload := postJSON(t, s, createPath, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "100", payload["errorCode"])
}

func TestDownloadNotReadyThenReady(t *testing.T) {
	s := api.NewMockServer(api.MockOptions{ReadyAfter: 2})
	body := map[string]string{"generatedDate": "20260310"}

	for i := 0; i < 2; i++ {
		status, payload := postJSON(t, s, downloadPath, body)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "210", payload["errorCode"])
	}

	status, payload := postJSON(t, s, downloadPath, body)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "100", payload["errorCode"])
	assert.Equal(t, "PartInventoryPrice_20260310.zip", payload["fileName"])

	// The payload must decode into a ZIP holding the sample CSV.
	raw, err := base64.StdEncoding.DecodeString(payload["fileContents"].(string))
	require.NoError(t, err)
	r, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.True(t, strings.HasSuffix(r.File[0].Name, ".csv"))

	member, err := r.File[0].Open()
	require.NoError(t, err)
	defer member.Close()
	content, err := io.ReadAll(member)
	require.NoError(t, err)
	assert.Contains(t, string(content), "partNumber")
}

func TestDownloadTracksDatesIndependently(t *testing.T) {
	s := api.NewMockServer(api.MockOptions{ReadyAfter: 1})

	_, payload := postJSON(t, s, downloadPath, map[string]string{"generatedDate": "20260310"})
	assert.Equal(t, "210", payload["errorCode"])

	// A different date starts its own not-ready countdown.
	_, payload = postJSON(t, s, downloadPath, map[string]string{"generatedDate": "20260311"})
	assert.Equal(t, "210", payload["errorCode"])

	_, payload = postJSON(t, s, downloadPath, map[string]string{"generatedDate": "20260310"})
	assert.Equal(t, "100", payload["errorCode"])
}

func TestDownloadRequiresDate(t *testing.T) {
	s := api.NewMockServer(api.MockOptions{})
	status, payload := postJSON(t, s, downloadPath, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "400", payload["errorCode"])
}
