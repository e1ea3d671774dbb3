package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Marchen/ksjutil"
	"github.com/Marchen/ksjutil/internal/audit"
	"github.com/Marchen/ksjutil/internal/logging"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
)

// cleanupRequest is the JSON body for POST /api/cleanup. Rows are
// positional against Columns, the way attribute tables are exported.
type cleanupRequest struct {
	Source   string   `json:"source,omitempty"`
	Year     int      `json:"year,omitempty"`
	Language string   `json:"language,omitempty"`
	Adjust   bool     `json:"adjust,omitempty"`
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
}

type cleanupResponse struct {
	Year       int               `json:"year"`
	Language   string            `json:"language"`
	Columns    []string          `json:"columns"`
	Rows       [][]any           `json:"rows"`
	Renamed    int               `json:"renamed"`
	Translated int               `json:"translated"`
	Adjusted   bool              `json:"adjusted"`
	Warnings   []ksjutil.Warning `json:"warnings"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Cleanup.MaxBodySize)

	var req cleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body: "+err.Error())
		return
	}
	if len(req.Columns) == 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "columns must not be empty")
		return
	}

	t := ksjutil.NewTable(req.Columns...)
	t.Source = req.Source
	for i, row := range req.Rows {
		if len(row) != len(req.Columns) {
			respondError(w, http.StatusBadRequest, "bad_request",
				"row "+strconv.Itoa(i)+" has "+strconv.Itoa(len(row))+" cells, want "+strconv.Itoa(len(req.Columns)))
			return
		}
		cells := make(map[string]any, len(req.Columns))
		for j, col := range req.Columns {
			cells[col] = row[j]
		}
		t.AppendRow(cells)
	}

	adjusted := false
	if req.Adjust {
		t, adjusted = ksjutil.Adjust(t)
	}

	start := time.Now()
	res, err := s.cleanup(t, req.Year, req.Language)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	s.recordRun(r, req.Source, res, time.Since(start))

	resp := cleanupResponse{
		Year:       res.Year,
		Language:   res.Language,
		Columns:    res.Table.Columns(),
		Rows:       make([][]any, res.Table.NumRows()),
		Renamed:    res.Renamed,
		Translated: res.Translated,
		Adjusted:   adjusted,
		Warnings:   res.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []ksjutil.Warning{}
	}
	for i := range resp.Rows {
		row := make([]any, len(resp.Columns))
		for j, col := range resp.Columns {
			row[j] = res.Table.Cell(i, col)
		}
		resp.Rows[i] = row
	}

	writeJSON(w, http.StatusOK, resp)
}

// cleanup runs the engine with the request's year and language, falling
// back to the configured default language.
func (s *Server) cleanup(t *ksjutil.Table, year int, language string) (*ksjutil.Result, error) {
	opts := []ksjutil.Option{ksjutil.InPlace()}
	if year != 0 {
		opts = append(opts, ksjutil.WithYear(year))
	}
	if language == "" {
		language = s.cfg.Cleanup.DefaultLanguage
	}
	opts = append(opts, ksjutil.WithLanguage(language))
	return s.engine.Cleanup(t, opts...)
}

// recordRun writes the run to the audit trail when one is configured.
// Recording failures are logged and never fail the response.
func (s *Server) recordRun(r *http.Request, source string, res *ksjutil.Result, dur time.Duration) {
	if s.recorder == nil {
		return
	}
	id, err := s.recorder.Record(r.Context(), audit.Entry{
		Source:     source,
		Year:       res.Year,
		Language:   res.Language,
		Columns:    res.Table.NumColumns(),
		Renamed:    res.Renamed,
		Translated: res.Translated,
		Warnings:   len(res.Warnings),
		Duration:   dur,
	})
	logger := logging.FromContext(r.Context())
	if err != nil {
		logger.Error("audit record failed", "error", err)
		return
	}
	logger.Debug("cleanup run recorded", "run_id", id)
}

type labelResponse struct {
	Column   string `json:"column"`
	Year     int    `json:"year"`
	Language string `json:"language"`
	Label    string `json:"label"`
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	key := ksjutil.ColumnKey{
		Dataset: chi.URLParam(r, "dataset"),
		Number:  chi.URLParam(r, "number"),
	}
	year, ok := queryYear(w, r)
	if !ok {
		return
	}
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.cfg.Cleanup.DefaultLanguage
	}

	label, err := s.engine.Store().Label(key, year, lang)
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, labelResponse{
		Column: key.String(), Year: year, Language: lang, Label: label,
	})
}

type codesResponse struct {
	Column string            `json:"column"`
	Year   int               `json:"year"`
	Codes  map[string]string `json:"codes"`
}

func (s *Server) handleCodes(w http.ResponseWriter, r *http.Request) {
	key := ksjutil.ColumnKey{
		Dataset: chi.URLParam(r, "dataset"),
		Number:  chi.URLParam(r, "number"),
	}
	year, ok := queryYear(w, r)
	if !ok {
		return
	}

	codes, found := s.engine.Store().CodeTable(key, year)
	if !found {
		respondError(w, http.StatusNotFound, "code_table_not_found",
			"no code table for column "+key.String()+" in year "+strconv.Itoa(year))
		return
	}
	writeJSON(w, http.StatusOK, codesResponse{Column: key.String(), Year: year, Codes: codes})
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		respondError(w, http.StatusNotFound, "audit_disabled", "run auditing is not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "bad_request", "limit must be 1-100")
			return
		}
		limit = n
	}

	entries, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("audit query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "could not read audit trail")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": entries})
}

// queryYear parses the required year query parameter, writing a 400 and
// reporting false when it is missing or not a 4-digit year.
func queryYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "year query parameter is required")
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1000 || year > 9999 {
		respondError(w, http.StatusBadRequest, "bad_request", "year must be a 4-digit year")
		return 0, false
	}
	return year, true
}
