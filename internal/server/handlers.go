package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/npsmentor-cli/internal/chart"
	"github.com/KaramelBytes/npsmentor-cli/internal/export"
	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
	"github.com/KaramelBytes/npsmentor-cli/internal/metrics"
	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/report"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoDataset  = errors.New("no dataset configured; POST a file to /api/upload")
)

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var (
		fe  *nps.FilterError
		mf  *table.MissingFieldsError
		le  *table.LoadError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fe), errors.Is(err, report.ErrUnknownCategory), errors.Is(err, ErrBadRequest):
		status = http.StatusBadRequest
	case errors.As(err, &mbe):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &mf):
		status = http.StatusUnprocessableEntity
		resp.Missing = mf.Missing
	case errors.As(err, &le):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoDataset), errors.Is(err, source.ErrTableMissing):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeJSON(w, status, resp)
}

// parseFilter reads category, min, max and name query parameters over a full-range default.
func parseFilter(r *http.Request) (nps.Filter, error) {
	q := r.URL.Query()
	f := nps.FullRange()
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		f.Category = v
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"min", &f.MinScore}, {"max", &f.MaxScore}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, p.key, v)
		}
		*p.dst = n
	}
	f.NameContains = strings.TrimSpace(q.Get("name"))
	return f, nil
}

func (s *Server) sampleLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return s.cfg.SampleLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", ErrBadRequest, v)
	}
	if n == 0 {
		return -1, nil
	}
	return n, nil
}

func (s *Server) dataset() (source.Source, error) {
	if s.src == nil {
		return nil, ErrNoDataset
	}
	return s.src, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.src == nil {
		status = "no dataset"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	src, err := s.dataset()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cats, err := src.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": append([]string{nps.AllCategories}, cats...)})
}

func (s *Server) buildReport(r *http.Request, src source.Source, notes []string) (*report.Report, error) {
	f, err := parseFilter(r)
	if err != nil {
		return nil, err
	}
	limit, err := s.sampleLimit(r)
	if err != nil {
		return nil, err
	}
	rep, err := report.Build(r.Context(), src, f, report.Options{SampleLimit: limit, Notes: notes})
	if err != nil {
		return nil, err
	}
	metrics.RecordRowsFiltered(rep.KPI.RowCount)
	return rep, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	src, err := s.dataset()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, err := s.buildReport(r, src, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	src, err := s.dataset()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := s.sampleLimit(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := report.CheckFilter(r.Context(), src, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := src.Sample(r.Context(), f, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := filepath.Base(strings.TrimSpace(r.URL.Query().Get("filename")))
	if name == "" || name == "." || name == "/" {
		name = export.DefaultFilename
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, name, rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctype := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if export.IsCSV(name) {
		ctype = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, func(buf *bytes.Buffer, src source.Source, f nps.Filter) error {
		means, err := src.CategoryMeans(r.Context(), f)
		if err != nil {
			return err
		}
		return chart.CategoryBars(buf, means, s.cfg.Chart)
	})
}

func (s *Server) handleHistogramChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, func(buf *bytes.Buffer, src source.Source, f nps.Filter) error {
		bins, err := src.Histogram(r.Context(), f, nps.HistogramBins)
		if err != nil {
			return err
		}
		return chart.ScoreHistogram(buf, bins, s.cfg.Chart)
	})
}

func (s *Server) renderChart(w http.ResponseWriter, r *http.Request, draw func(*bytes.Buffer, source.Source, nps.Filter) error) {
	src, err := s.dataset()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := report.CheckFilter(r.Context(), src, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := draw(&buf, src, f); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleUpload builds a report from a multipart "file" without touching the configured dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: multipart field \"file\" is required", ErrBadRequest))
		return
	}
	defer file.Close()

	local, err := source.OpenReader(header.Filename, file)
	if err != nil {
		metrics.RecordLoadFailure(loadFailureReason(err))
		s.log.Warn(r.Context(), "upload rejected", logger.String("file", header.Filename), logger.Error(err))
		s.writeError(w, r, err)
		return
	}
	defer local.Close()
	metrics.RecordLoad(len(local.Records()), len(local.Rejected()))

	rep, err := s.buildReport(r, local, report.RejectNotes(local.Rejected(), 10))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func loadFailureReason(err error) string {
	var mf *table.MissingFieldsError
	switch {
	case errors.As(err, &mf):
		return "missing_columns"
	case errors.Is(err, table.ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "unreadable"
	}
}
