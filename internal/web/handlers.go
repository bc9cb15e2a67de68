package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/logging"
)

// rowsRequest is the body of the per-kind preview and commit routes.
type rowsRequest struct {
	Rows []core.RawRow `json:"rows"`
}

// handleImport runs the preview or commit named by the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req core.Request
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	out, err := s.service.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if out.Mode == core.ModeCommit {
		s.writeResult(w, r, out.Result)
		return
	}
	writeJSON(w, r, http.StatusOK, out.Preview)
}

// handleKindPreview classifies the posted rows without writing.
func (s *Server) handleKindPreview(w http.ResponseWriter, r *http.Request) {
	kind, rows, ok := s.kindRequest(w, r)
	if !ok {
		return
	}

	preview, err := s.service.Preview(r.Context(), kind, rows)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// handleKindCommit applies the posted rows.
func (s *Server) handleKindCommit(w http.ResponseWriter, r *http.Request) {
	kind, rows, ok := s.kindRequest(w, r)
	if !ok {
		return
	}

	result, err := s.service.Commit(r.Context(), kind, rows)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.writeResult(w, r, result)
}

// kindRequest parses the {kind} URL parameter and the rows body.
// On failure the error response is already written.
func (s *Server) kindRequest(w http.ResponseWriter, r *http.Request) (core.Kind, []core.RawRow, bool) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return "", nil, false
	}

	var req rowsRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, r, err, statusFor(err))
		return "", nil, false
	}
	return kind, req.Rows, true
}

// writeResult answers a commit: 207 when any row failed, 200 otherwise.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result *core.RunResult) {
	status := http.StatusOK
	if result.HasErrors() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, r, status, result)
}

// decode reads a size-limited JSON body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if s.cfg.Import.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidRequest(err)
	}
	return nil
}

// kindResponse describes one registered kind to API clients.
type kindResponse struct {
	Kind        core.Kind         `json:"recordKind"`
	Label       string            `json:"label"`
	Group       string            `json:"group"`
	Fields      []fieldResponse   `json:"fields"`
	KeySets     []core.KeySet     `json:"keySets"`
	ForeignKeys []foreignKeyBrief `json:"foreignKeys"`
	Lookups     []lookupBrief     `json:"lookups"`
}

type fieldResponse struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	HasDefault bool     `json:"hasDefault"`
	Headers    []string `json:"headers"`
}

type foreignKeyBrief struct {
	Field      string    `json:"field"`
	References core.Kind `json:"references"`
}

type lookupBrief struct {
	Field       string    `json:"field"`
	CodeHeaders []string  `json:"codeHeaders"`
	Kind        core.Kind `json:"recordKind"`
}

// handleListKinds returns every registered kind, grouped and sorted.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	defs := s.service.ListKinds()

	out := make([]kindResponse, 0, len(defs))
	for _, def := range defs {
		k := kindResponse{
			Kind:        def.Info.Kind,
			Label:       def.Info.Label,
			Group:       def.Info.Group,
			KeySets:     def.KeySets,
			Fields:      make([]fieldResponse, 0, len(def.FieldSpecs)),
			ForeignKeys: make([]foreignKeyBrief, 0, len(def.ForeignKeys)),
			Lookups:     make([]lookupBrief, 0, len(def.Lookups)),
		}
		if k.KeySets == nil {
			k.KeySets = []core.KeySet{}
		}
		for _, spec := range def.FieldSpecs {
			k.Fields = append(k.Fields, fieldResponse{
				Name:       spec.Name,
				Label:      spec.Label,
				Type:       spec.Type.String(),
				Required:   spec.Required,
				HasDefault: spec.HasDefault,
				Headers:    spec.Headers,
			})
		}
		for _, fk := range def.ForeignKeys {
			k.ForeignKeys = append(k.ForeignKeys, foreignKeyBrief{Field: fk.Field, References: fk.References})
		}
		for _, lk := range def.Lookups {
			k.Lookups = append(k.Lookups, lookupBrief{Field: lk.Field, CodeHeaders: lk.CodeHeaders, Kind: lk.Kind})
		}
		out = append(out, k)
	}

	writeJSON(w, r, http.StatusOK, out)
}

// handleDownloadTemplate returns a CSV file whose only row is the kind's column labels.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	def, err := core.MustGet(kind)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_template.csv"`, kind))

	cw := csv.NewWriter(w)
	if err := cw.Write(def.Labels()); err != nil {
		logging.FromContext(r.Context()).Error("template write failed", "kind", kind, "error", err)
		return
	}
	cw.Flush()
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status   string                `json:"status"`
	Database string                `json:"database"`
	Imports  core.RunLimiterStatus `json:"imports"`
}

// handleHealth reports liveness, database reachability and run-slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "unchecked",
		Imports:  s.service.Limiter().Status(),
	}

	status := http.StatusOK
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, r, status, resp)
}
