package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Marchen/ksjutil"
	json "github.com/goccy/go-json"
)

// featureCollection is the subset of GeoJSON the cleanup endpoint needs.
// Geometry is never inspected; it round-trips as raw JSON.
type featureCollection struct {
	Type     string    `json:"type"`
	Name     string    `json:"name,omitempty"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// handleCleanupGeoJSON cleans the properties of a FeatureCollection and
// returns the collection with geometries untouched. The release year comes
// from the year query parameter or the collection's name.
func (s *Server) handleCleanupGeoJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Cleanup.MaxBodySize)

	var fc featureCollection
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed GeoJSON body: "+err.Error())
		return
	}
	if fc.Type != "FeatureCollection" {
		respondError(w, http.StatusBadRequest, "bad_request", "body must be a FeatureCollection")
		return
	}

	q := r.URL.Query()
	year := 0
	if raw := q.Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1000 || n > 9999 {
			respondError(w, http.StatusBadRequest, "bad_request", "year must be a 4-digit year")
			return
		}
		year = n
	}

	records := make([]map[string]any, len(fc.Features))
	for i, f := range fc.Features {
		records[i] = f.Properties
	}
	t := ksjutil.FromRecords(records)
	t.Source = fc.Name

	if q.Get("adjust") == "true" || q.Get("adjust") == "1" {
		t, _ = ksjutil.Adjust(t)
	}

	start := time.Now()
	res, err := s.cleanup(t, year, q.Get("lang"))
	if err != nil {
		respondCoreError(w, r, err)
		return
	}
	s.recordRun(r, fc.Name, res, time.Since(start))

	for i := range fc.Features {
		fc.Features[i].Properties = res.Table.Row(i)
	}

	w.Header().Set("X-Cleanup-Year", strconv.Itoa(res.Year))
	w.Header().Set("X-Cleanup-Warnings", strconv.Itoa(len(res.Warnings)))
	writeJSON(w, http.StatusOK, fc)
}
