package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/dts-backend/internal/job"
	"github.com/example/dts-backend/internal/model"
	"github.com/example/dts-backend/internal/notify"
	"github.com/example/dts-backend/internal/report"
	"github.com/example/dts-backend/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	hub := notify.NewHub()
	srv := Server{
		Jobs:     job.NewService(st, hub),
		Renderer: &report.Renderer{},
		Hub:      hub,
		Port:     5000,
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func putJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createJob(t *testing.T, ts *httptest.Server, intake map[string]string) int64 {
	t.Helper()
	resp := postJSON(t, ts.URL+"/jobs", intake)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, resp, &out)
	require.Greater(t, out.ID, int64(0))
	return out.ID
}

func TestCreateListGet(t *testing.T) {
	ts := newTestServer(t)

	id := createJob(t, ts, map[string]string{
		"job_no": "J100", "make": "ABB", "client_name": "Acme",
	})

	resp, err := http.Get(fmt.Sprintf("%s/jobs/%d", ts.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Job
	decodeJSON(t, resp, &got)
	assert.Equal(t, "J100", got.JobNo)
	assert.Equal(t, "ABB", got.Make)
	assert.Equal(t, "Acme", got.ClientName)
	assert.Equal(t, model.StatusReceived, got.Status)
	assert.Equal(t, "", got.ModelNo)

	resp, err = http.Get(ts.URL + "/jobs")
	require.NoError(t, err)
	var list []model.Job
	decodeJSON(t, resp, &list)
	require.NotEmpty(t, list)
	assert.Equal(t, "J100", list[0].JobNo)
}

func TestGetMissingJob(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/jobs/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var out map[string]string
	decodeJSON(t, resp, &out)
	assert.NotEmpty(t, out["error"])
}

func TestUpdateTechnicianFields(t *testing.T) {
	ts := newTestServer(t)
	id := createJob(t, ts, map[string]string{"job_no": "J100"})

	resp := putJSON(t, fmt.Sprintf("%s/jobs/%d", ts.URL, id), map[string]string{
		"fan": "OK", "job_status": "COMPLETED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]bool
	decodeJSON(t, resp, &out)
	assert.True(t, out["success"])

	getResp, err := http.Get(fmt.Sprintf("%s/jobs/%d", ts.URL, id))
	require.NoError(t, err)
	var got model.Job
	decodeJSON(t, getResp, &got)
	assert.Equal(t, "OK", got.Fan)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Empty(t, got.Choke)
}

func TestUpdateRejectsUnknownOnlyPatch(t *testing.T) {
	ts := newTestServer(t)
	id := createJob(t, ts, map[string]string{"job_no": "J100"})

	resp := putJSON(t, fmt.Sprintf("%s/jobs/%d", ts.URL, id), map[string]string{
		"unknown_field": "x",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateMissingJob(t *testing.T) {
	ts := newTestServer(t)

	resp := putJSON(t, ts.URL+"/jobs/999", map[string]string{"fan": "OK"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewPDF(t *testing.T) {
	ts := newTestServer(t)
	id := createJob(t, ts, map[string]string{"job_no": "J100"})

	resp := postJSON(t, fmt.Sprintf("%s/pdf/preview/%d", ts.URL, id), map[string]string{
		"inspection_report": "Cap replaced",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline; filename=Job_J100_PREVIEW.pdf", resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	// Preview persists nothing.
	getResp, err := http.Get(fmt.Sprintf("%s/jobs/%d", ts.URL, id))
	require.NoError(t, err)
	var got model.Job
	decodeJSON(t, getResp, &got)
	assert.Equal(t, model.StatusReceived, got.Status)
	assert.Empty(t, got.InspectionReport)
	assert.Empty(t, got.DispatchDate)
}

func TestPreviewMissingJob(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/pdf/preview/999", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGeneratePDF(t *testing.T) {
	ts := newTestServer(t)
	id := createJob(t, ts, map[string]string{"job_no": "J100"})

	resp := postJSON(t, fmt.Sprintf("%s/pdf/generate/%d", ts.URL, id), map[string]string{
		"inspection_report": "Cap replaced",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=Job_J100.pdf", resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	getResp, err := http.Get(fmt.Sprintf("%s/jobs/%d", ts.URL, id))
	require.NoError(t, err)
	var got model.Job
	decodeJSON(t, getResp, &got)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "Cap replaced", got.InspectionReport)
	assert.NotEmpty(t, got.DispatchDate)
}

func TestGenerateMissingJob(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/pdf/generate/999", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPDFTestEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/pdf/test")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decodeJSON(t, resp, &out)
	assert.Equal(t, "ok", out["status"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestConfig(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/config")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Port int      `json:"port"`
		IPs  []string `json:"ips"`
	}
	decodeJSON(t, resp, &out)
	assert.Equal(t, 5000, out.Port)
	for _, ip := range out.IPs {
		assert.False(t, strings.HasPrefix(ip, "127."))
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/jobs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
