package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/updatecheck/pkg/buildinfo"
	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/deps/ecosystems"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// maxBodyBytes bounds request bodies, inline manifests included.
const maxBodyBytes = 4 << 20

// Handler serves the API endpoints.
type Handler struct {
	opts   deps.Options
	logger *log.Logger

	// Lookup resolves ecosystem names. Defaults to ecosystems.Lookup.
	Lookup func(name string) (*deps.Ecosystem, error)
}

// NewHandler returns a handler checking with opts as the base options.
func NewHandler(opts deps.Options) *Handler {
	opts = opts.WithDefaults()
	return &Handler{opts: opts, logger: opts.Logger, Lookup: ecosystems.Lookup}
}

// Health reports liveness and build information.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

// Check runs a batch check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CheckRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	eco, err := h.Lookup(req.Ecosystem)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := req.Options(h.opts)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := req.Resolve(eco)
	if err != nil {
		writeError(w, err)
		return
	}

	keyer, runID := cache.NewRunKeyer(opts.Keyer)
	opts.Keyer = keyer
	opts.Logger = h.logger.With("run", runID, "request_id", RequestID(r.Context()))
	opts.Logger.Info("checking", "ecosystem", eco.Name, "dependencies", len(list))

	outcomes := deps.Batch(r.Context(), eco, list, opts)
	writeJSON(w, http.StatusOK, CheckResponse{
		RunID:     runID,
		Ecosystem: eco.Name,
		Duration:  elapsed(start),
		Outcomes:  outcomes,
	})
}

type errorBody struct {
	Error *errors.Diagnostic `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(errors.GetCode(err)), errorBody{Error: errors.Diagnose(err)})
}

// statusFor maps error codes to HTTP status codes; INVALID_* codes are
// client errors.
func statusFor(code errors.Code) int {
	switch {
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case code == errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
