package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
	"github.com/dgnsrekt/moneyflow/internal/report"
	"github.com/dgnsrekt/moneyflow/internal/ws"
)

const (
	contentTypeJSON = "application/json"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"

	latestDate = "latest"
)

var errBadDate = errors.New("date must be YYYY-MM-DD or latest")

type Server struct {
	loader    data.Loader
	generator *report.Generator
	lots      *report.LotSizes
	cache     *data.ReportCache
	events    *ws.Hub
	startedAt time.Time
	logger    *zap.Logger
}

// NewServer wires the handlers. events may be nil to disable the report stream.
func NewServer(loader data.Loader, generator *report.Generator, lots *report.LotSizes, cache *data.ReportCache, events *ws.Hub, logger *zap.Logger) *Server {
	return &Server{
		loader:    loader,
		generator: generator,
		lots:      lots,
		cache:     cache,
		events:    events,
		startedAt: time.Now(),
		logger:    logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status     string `json:"status"`
	LatestDate string `json:"latest_date,omitempty"`
	Uptime     string `json:"uptime"`
}

type datesResponse struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

type moneyFlowResponse struct {
	*moneyflow.Result
	Summary report.Summary `json:"summary"`
}

type resetResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Health reports liveness and the newest archived day.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	}
	if latest, err := data.LatestDate(s.loader); err == nil {
		resp.LatestDate = latest.Format(data.DateLayout)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dates lists the archived trading days, newest first.
func (s *Server) Dates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.loader.Dates()
	if err != nil {
		s.logger.Error("listing dates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list archived dates")
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(data.DateLayout))
	}
	writeJSON(w, http.StatusOK, datesResponse{Dates: out, Count: len(out)})
}

// Lots returns the market lot sizes with configured overrides applied.
func (s *Server) Lots(w http.ResponseWriter, r *http.Request) {
	lots, err := s.lots.All(r.Context())
	if err != nil {
		s.logger.Warn("loading market lots", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lots)
}

// MoneyFlow serves the report for a symbol and day. The date segment may
// carry a .xlsx or .csv extension to download the file instead of JSON.
func (s *Server) MoneyFlow(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	dateParam, ext := splitExt(chi.URLParam(r, "date"))

	switch ext {
	case "", report.ExtXLSX, report.ExtCSV:
	default:
		writeError(w, http.StatusNotFound, "unsupported format: "+ext)
		return
	}

	date, err := s.resolveDate(dateParam)
	if err != nil {
		s.writeReportError(w, err)
		return
	}

	res, err := s.result(r, symbol, date)
	if err != nil {
		s.writeReportError(w, err)
		return
	}

	switch ext {
	case "":
		writeJSON(w, http.StatusOK, moneyFlowResponse{Result: res, Summary: report.Summarize(res)})
	case report.ExtXLSX:
		s.writeFile(w, res, ext, contentTypeXLSX, report.WriteXLSX)
	case report.ExtCSV:
		s.writeFile(w, res, ext, contentTypeCSV, report.WriteCSV)
	}
}

// Summary serves only the aggregate view of a report.
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	date, err := s.resolveDate(chi.URLParam(r, "date"))
	if err != nil {
		s.writeReportError(w, err)
		return
	}

	res, err := s.result(r, symbol, date)
	if err != nil {
		s.writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(res))
}

// ResetCache drops every cached report so the next request recomputes.
func (s *Server) ResetCache(w http.ResponseWriter, r *http.Request) {
	count := s.cache.Flush()
	s.logger.Info("cache reset", zap.Int("count", count))
	writeJSON(w, http.StatusOK, resetResponse{Status: "success", Count: count})
}

func (s *Server) result(r *http.Request, symbol string, date time.Time) (*moneyflow.Result, error) {
	if res, ok := s.cache.Get(symbol, date); ok {
		s.logger.Debug("cache hit", zap.String("key", data.CacheKey(symbol, date)))
		return res, nil
	}

	res, err := s.generator.Generate(r.Context(), symbol, date)
	if err != nil {
		return nil, err
	}
	s.cache.Set(symbol, date, res)

	if s.events != nil {
		if err := s.events.Publish(res.Symbol, report.Summarize(res)); err != nil {
			s.logger.Warn("publishing report event", zap.String("symbol", res.Symbol), zap.Error(err))
		}
	}
	return res, nil
}

func (s *Server) resolveDate(param string) (time.Time, error) {
	if param == latestDate {
		return data.LatestDate(s.loader)
	}
	date, err := time.Parse(data.DateLayout, param)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errBadDate, param)
	}
	return date, nil
}

func (s *Server) writeFile(w http.ResponseWriter, res *moneyflow.Result, ext, contentType string, write func(io.Writer, *moneyflow.Result) error) {
	var buf bytes.Buffer
	if err := write(&buf, res); err != nil {
		s.logger.Error("rendering report", zap.String("format", ext), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	name := report.FileName(res.Symbol, res.AsOf, ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writeReportError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("generating report", zap.Error(err))
		writeError(w, status, "failed to generate report")
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps pipeline and archive errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadDate):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrNotFound),
		errors.Is(err, moneyflow.ErrEmptyResult),
		errors.Is(err, report.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.Is(err, moneyflow.ErrInsufficientData),
		errors.Is(err, moneyflow.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// splitExt splits "2024-03-27.xlsx" into the date and the extension.
func splitExt(param string) (string, string) {
	if i := strings.LastIndex(param, "."); i > 0 {
		return param[:i], param[i+1:]
	}
	return param, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
