// Package handlers provides HTTP handlers for scenario runs and sweeps.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aristath/minesim/internal/domain"
	"github.com/aristath/minesim/internal/modules/cash_flows"
	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/environment"
	"github.com/aristath/minesim/internal/modules/position"
	"github.com/aristath/minesim/internal/modules/scenarios"
	"github.com/aristath/minesim/internal/modules/scenarios/progress"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// maxBodyBytes bounds request bodies; parameter sets are a few kilobytes
	maxBodyBytes = 1 << 20

	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// Archiver stores completed sweeps and returns the archived run id
type Archiver interface {
	ArchiveSweep(res *scenarios.SweepResult, params *scenarios.Params) (string, error)
}

// Handler handles scenario HTTP requests
type Handler struct {
	service     *scenarios.Service
	archiver    Archiver
	defaultSeed uint64
	log         zerolog.Logger
}

// NewHandler creates a new scenario handler
func NewHandler(service *scenarios.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "scenarios").Logger(),
	}
}

// SetArchiver enables sweep archiving (for dependency injection)
func (h *Handler) SetArchiver(archiver Archiver) {
	h.archiver = archiver
}

// SetDefaultSeed sets the seed used when a request omits one
func (h *Handler) SetDefaultSeed(seed uint64) {
	h.defaultSeed = seed
}

type runRequest struct {
	scenarios.RunRequest
	// Seed shadows the embedded field so an omitted seed can be told apart from zero
	Seed           *uint64 `json:"seed"`
	IncludeTables  bool    `json:"include_tables"`
	IncludeRecords bool    `json:"include_records"`
}

type runResponse struct {
	Trials     int                    `json:"trial_count" msgpack:"trial_count"`
	Years      int                    `json:"year_count" msgpack:"year_count"`
	Seed       uint64                 `json:"seed" msgpack:"seed"`
	Decisions  decisions.Vector       `json:"decisions" msgpack:"decisions"`
	Label      string                 `json:"label" msgpack:"label"`
	Discovered int                    `json:"discovered" msgpack:"discovered"`
	Sold       bool                   `json:"sold" msgpack:"sold"`
	Report     scenarios.Summary      `json:"report" msgpack:"report"`
	PerYear    []scenarios.Summary    `json:"per_year" msgpack:"per_year"`
	ElapsedMS  int64                  `json:"elapsed_ms" msgpack:"elapsed_ms"`
	Tables     map[string][][]float64 `json:"tables,omitempty" msgpack:"tables,omitempty"`
	Position   [][]string             `json:"position,omitempty" msgpack:"position,omitempty"`
	Records    []environment.Record   `json:"records,omitempty" msgpack:"records,omitempty"`
	// PositionRecords sit beside Records with one classified cell per trial and year
	PositionRecords []position.Record `json:"position_records,omitempty" msgpack:"position_records,omitempty"`
}

// HandleRun handles POST /api/v1/simulate/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var request runRequest
	if err := h.decode(w, r, &request); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	req := request.RunRequest
	req.Seed = h.seed(request.Seed)

	res, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "Scenario run failed", err)
		return
	}

	response := runResponse{
		Trials:     res.Trials,
		Years:      res.Years,
		Seed:       res.Seed,
		Decisions:  res.Vector,
		Label:      res.Label,
		Discovered: res.Discovered,
		Sold:       res.Sold,
		Report:     res.Report,
		PerYear:    res.PerYear,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	if request.IncludeTables {
		response.Tables = make(map[string][][]float64)
		for _, name := range cash_flows.TableNames {
			if t, ok := res.Tables.Table(name); ok {
				response.Tables[name] = t.Rows()
			}
		}
		trials, years := res.Position.Dims()
		response.Position = make([][]string, trials)
		for i := 0; i < trials; i++ {
			row := make([]string, years)
			for j, c := range res.Position.Row(i) {
				row[j] = c.String()
			}
			response.Position[i] = row
		}
	}
	if request.IncludeRecords {
		response.Records = res.Tables.Records()
		response.PositionRecords = res.Position.Records()
	}

	h.respond(w, r, http.StatusOK, response)
}

type sweepRequest struct {
	scenarios.SweepRequest
	Seed *uint64 `json:"seed"`
	// Archive overrides the server default for this request
	Archive *bool `json:"archive"`
}

type sweepResponse struct {
	RunID      string               `json:"run_id,omitempty" msgpack:"run_id,omitempty"`
	Trials     int                  `json:"trial_count" msgpack:"trial_count"`
	Years      int                  `json:"year_count" msgpack:"year_count"`
	Seed       uint64               `json:"seed" msgpack:"seed"`
	ReportYear int                  `json:"report_year" msgpack:"report_year"`
	Rows       []scenarios.SweepRow `json:"rows" msgpack:"rows"`
	ElapsedMS  int64                `json:"elapsed_ms" msgpack:"elapsed_ms"`
}

// HandleSweep handles POST /api/v1/simulate/sweep. Rows are ranked by fewest
// foreclosures, then highest median cash.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var request sweepRequest
	if err := h.decode(w, r, &request); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	response, err := h.sweep(r.Context(), request, nil)
	if err != nil {
		h.writeServiceError(w, r, "Scenario sweep failed", err)
		return
	}

	h.respond(w, r, http.StatusOK, response)
}

// sweep runs the request, ranks the rows and archives the result when enabled
func (h *Handler) sweep(ctx context.Context, request sweepRequest, cb progress.DetailedCallback) (*sweepResponse, error) {
	req := request.SweepRequest
	req.Seed = h.seed(request.Seed)
	req.Progress = cb

	res, err := h.service.Sweep(ctx, req)
	if err != nil {
		return nil, err
	}

	response := &sweepResponse{
		Trials:     res.Trials,
		Years:      res.Years,
		Seed:       res.Seed,
		ReportYear: res.ReportYear,
		Rows:       res.Ranked(),
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}

	archive := h.archiver != nil
	if request.Archive != nil {
		archive = archive && *request.Archive
	}
	if archive {
		// The sweep already succeeded, so an archive failure is logged and not returned
		id, err := h.archiver.ArchiveSweep(res, req.Params)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to archive sweep")
		} else {
			response.RunID = id
		}
	}
	return response, nil
}

func (h *Handler) seed(requested *uint64) uint64 {
	if requested != nil {
		return *requested
	}
	return h.defaultSeed
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps validation failures to 400 and cancellations to 503
func statusFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage logs server-side failures and returns the client message
func (h *Handler) errorMessage(message string, err error) (int, string) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		return status, err.Error()
	case http.StatusServiceUnavailable:
		h.log.Warn().Err(err).Msg(message)
	default:
		h.log.Error().Err(err).Msg(message)
	}
	return status, message + ": " + err.Error()
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, msg := h.errorMessage(message, err)
	h.writeError(w, r, status, msg)
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack)
}

// respond writes msgpack when the client accepts it and JSON otherwise
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if !wantsMsgpack(r) {
		h.writeJSON(w, status, data)
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)

	if err := msgpack.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respond(w, r, status, map[string]string{
		"error": message,
	})
}
