package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mchmarny/radex/pkg/attenuation"
	"github.com/mchmarny/radex/pkg/config"
	"github.com/mchmarny/radex/pkg/data"
	"github.com/mchmarny/radex/pkg/metrics"
	"github.com/mchmarny/radex/pkg/source"
	"github.com/mchmarny/radex/pkg/survey"
	"github.com/pkg/errors"
)

const (
	maxRequestBytes = 1 << 20
)

type api struct {
	db      *sql.DB
	conf    *config.Config
	metrics *metrics.Collector
}

func newAPI(db *sql.DB, conf *config.Config, m *metrics.Collector) *api {
	if conf == nil {
		conf = config.Default()
	}
	return &api{db: db, conf: conf, metrics: m}
}

type exponentRequest struct {
	X30          float64  `json:"x30"`
	Contact      float64  `json:"contact"`
	Buildup      *float64 `json:"buildup,omitempty"`
	SelfDistance float64  `json:"rs"`
}

type exposureRequest struct {
	Distance     float64  `json:"distance"`
	Contact      float64  `json:"contact"`
	N            float64  `json:"n"`
	Buildup      *float64 `json:"buildup,omitempty"`
	SelfDistance float64  `json:"rs"`
}

type sourceRequest struct {
	Name      string            `json:"name,omitempty"`
	Source    source.Spec       `json:"source"`
	Reference *source.Reference `json:"reference,omitempty"`
	Distances []float64         `json:"distances,omitempty"`
}

type surveyRequest struct {
	Items     []survey.Item `json:"items"`
	Distances []float64     `json:"distances,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCalcError maps invalid input to 400, non-finite results to 422
// and anything else to 500.
func writeCalcError(w http.ResponseWriter, err error) {
	if attenuation.IsInvalidInput(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, survey.ErrNonFinite) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	slog.Error("calculation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "calculation failed")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (a *api) buildup(b *float64) float64 {
	if b != nil {
		return *b
	}
	return a.conf.Buildup
}

func (a *api) distances(d []float64) []float64 {
	if len(d) > 0 {
		return d
	}
	return a.conf.Distances
}

func (a *api) exponentHandler(w http.ResponseWriter, r *http.Request) {
	var req exponentRequest
	if !decode(w, r, &req) {
		return
	}

	b := a.buildup(req.Buildup)
	n, err := attenuation.CalculateN(req.X30, req.Contact, b, req.SelfDistance)
	if err == nil {
		err = survey.CheckFinite("n", n)
	}
	if err != nil {
		writeCalcError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &exponentResult{
		X30:          req.X30,
		Contact:      req.Contact,
		Buildup:      b,
		SelfDistance: req.SelfDistance,
		N:            n,
	})
}

func (a *api) exposureHandler(w http.ResponseWriter, r *http.Request) {
	var req exposureRequest
	if !decode(w, r, &req) {
		return
	}

	b := a.buildup(req.Buildup)
	x, err := attenuation.EstimateExposure(req.Distance, req.Contact, req.N, b, req.SelfDistance)
	if err == nil {
		err = survey.CheckFinite("exposure", x)
	}
	if err != nil {
		writeCalcError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &exposureResult{
		Distance:     req.Distance,
		Contact:      req.Contact,
		N:            req.N,
		Buildup:      b,
		SelfDistance: req.SelfDistance,
		Exposure:     x,
	})
}

func (a *api) sourceHandler(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decode(w, r, &req) {
		return
	}

	name := req.Name
	if name == "" {
		name = string(req.Source.Shape)
	}

	row, err := survey.Evaluate(survey.Item{Name: name, Source: req.Source, Reference: req.Reference}, a.distances(req.Distances))
	if err != nil {
		writeCalcError(w, err)
		return
	}
	a.metrics.ObserveEvaluation(string(row.Shape))

	runID := uuid.NewString()
	id, err := a.save(runID, row)
	if err != nil {
		slog.Error("failed to save calculation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save calculation")
		return
	}

	writeJSON(w, http.StatusOK, &profileResult{RunID: runID, ID: id, Row: *row})
}

func (a *api) surveyHandler(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one item required")
		return
	}

	report, err := survey.Run(r.Context(), req.Items, a.distances(req.Distances),
		survey.WithWorkers(a.conf.Workers),
		survey.WithObserver(func(row *survey.Row) {
			a.metrics.ObserveEvaluation(string(row.Shape))
		}))
	if err != nil {
		writeCalcError(w, err)
		return
	}

	if a.db != nil {
		if err := saveReport(a.db, report); err != nil {
			slog.Error("failed to save survey", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save survey")
			return
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (a *api) save(runID string, row *survey.Row) (int64, error) {
	if a.db == nil {
		return 0, nil
	}
	return saveRow(a.db, runID, row)
}

func (a *api) historyHandler(w http.ResponseWriter, r *http.Request) {
	if a.db == nil {
		writeError(w, http.StatusServiceUnavailable, "history not available")
		return
	}

	limit := historyLimitDefault
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = l
	}

	var (
		list []*data.Calculation
		err  error
	)
	if run := r.URL.Query().Get("run"); run != "" {
		list, err = data.GetRun(a.db, run)
	} else {
		list, err = data.ListCalculations(a.db, limit)
	}
	if err != nil {
		slog.Error("failed to list calculations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list calculations")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (a *api) statsHandler(w http.ResponseWriter, _ *http.Request) {
	if a.db == nil {
		writeError(w, http.StatusServiceUnavailable, "history not available")
		return
	}

	state, err := data.GetDataState(a.db)
	if err != nil {
		slog.Error("failed to get data state", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get data state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}
