package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Marchen/ksjutil"
	"github.com/Marchen/ksjutil/internal/config"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Cleanup: config.CleanupConfig{
			DefaultLanguage: "ja",
			MaxBodySize:     1 << 20,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := ksjutil.NewStore()
	require.NoError(t, err)
	return NewServer(store, nil, testConfig())
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCleanup(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup", cleanupRequest{
		Year:    2014,
		Columns: []string{"P13_001", "P13_002", "notes"},
		Rows: [][]any{
			{"中央公園", "1", "a"},
			{"里山公園", "3", "b"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp cleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2014, resp.Year)
	assert.Equal(t, "ja", resp.Language)
	assert.Equal(t, []string{"公園名", "公園種別", "notes"}, resp.Columns)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, []any{"中央公園", "街区公園", "a"}, resp.Rows[0])
	assert.Equal(t, []any{"里山公園", "地区公園（カントリーパーク）", "b"}, resp.Rows[1])
	assert.Equal(t, 2, resp.Renamed)
	assert.Equal(t, 2, resp.Translated)
	assert.Empty(t, resp.Warnings)
}

func TestCleanup_YearFromSource(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup", cleanupRequest{
		Source:  "P13-14_01.shp",
		Columns: []string{"P13_002"},
		Rows:    [][]any{{"99"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp cleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2014, resp.Year)
	assert.Equal(t, []any{"その他"}, resp.Rows[0])
}

func TestCleanup_UnresolvedYear(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup", cleanupRequest{
		Columns: []string{"P13_002"},
		Rows:    [][]any{{"1"}},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unresolved_year", resp.Code)
}

func TestCleanup_Warnings(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup", cleanupRequest{
		Year:    2014,
		Columns: []string{"P13_002", "ZZ9_001"},
		Rows:    [][]any{{"123", nil}},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp cleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Warnings, 2)
	assert.Equal(t, ksjutil.WarnUntranslatableCode, resp.Warnings[0].Kind)
	assert.Equal(t, "123", resp.Warnings[0].Code)
	assert.Equal(t, ksjutil.WarnMissingMetadata, resp.Warnings[1].Kind)
	assert.Equal(t, "ZZ9_001", resp.Warnings[1].Column)

	// untranslated cell and unknown column pass through unchanged
	assert.Equal(t, []any{"123", nil}, resp.Rows[0])
}

func TestCleanup_MalformedBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanup_RowWidthMismatch(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup", cleanupRequest{
		Year:    2014,
		Columns: []string{"P13_001", "P13_002"},
		Rows:    [][]any{{"only one cell"}},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "row 0")
}

func TestCleanupGeoJSON(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{
		"type": "FeatureCollection",
		"features": []map[string]any{
			{
				"type":       "Feature",
				"geometry":   map[string]any{"type": "Point", "coordinates": []float64{139.69, 35.68}},
				"properties": map[string]any{"P13_001": "代々木公園", "P13_002": "6"},
			},
		},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup/geojson?year=2014", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2014", rec.Header().Get("X-Cleanup-Year"))
	assert.Equal(t, "0", rec.Header().Get("X-Cleanup-Warnings"))

	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Len(t, fc.Features, 1)

	props := fc.Features[0].Properties
	assert.Equal(t, "代々木公園", props["公園名"])
	assert.Equal(t, "広域公園", props["公園種別"])
	assert.NotContains(t, props, "P13_002")

	var geom map[string]any
	require.NoError(t, json.Unmarshal(fc.Features[0].Geometry, &geom))
	assert.Equal(t, "Point", geom["type"])
}

func TestCleanupGeoJSON_WrongType(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/cleanup/geojson?year=2014", map[string]any{
		"type": "Feature",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabelLookup(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/labels/N03/001?year=2020", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp labelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "N03_001", resp.Column)
	assert.Equal(t, "行政区域コード", resp.Label)

	rec = doJSON(t, srv, http.MethodGet, "/api/labels/N03/001?year=2020&lang=en", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Administrative area code", resp.Label)
}

func TestLabelLookup_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		target   string
		status   int
		wantCode string
	}{
		{"unknown column", "/api/labels/ZZ9/001?year=2020", http.StatusNotFound, "missing_metadata"},
		{"unmapped year", "/api/labels/N03/001?year=1999", http.StatusNotFound, "unmapped_year"},
		{"missing year", "/api/labels/N03/001", http.StatusBadRequest, "bad_request"},
		{"bad year", "/api/labels/N03/001?year=abc", http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestCodesLookup(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/codes/P13/002?year=2014", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp codesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "P13_002", resp.Column)
	assert.Equal(t, "街区公園", resp.Codes["1"])
	assert.Equal(t, "その他", resp.Codes["99"])
}

func TestCodesLookup_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/codes/P13/002?year=1999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "code_table_not_found")
}

func TestRecentRuns_AuditDisabled(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "audit_disabled")
}

func TestAPIKeyAuth(t *testing.T) {
	store, err := ksjutil.NewStore()
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"valid-key"}
	srv := NewServer(store, nil, cfg)

	get := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/codes/P13/002?year=2014", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, get("").Code)
	assert.Equal(t, http.StatusForbidden, get("wrong-key").Code)
	assert.Equal(t, http.StatusOK, get("valid-key").Code)

	// health stays open
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
