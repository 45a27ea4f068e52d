// Package intelhttp exposes the intelligence pipeline over REST-ish
// endpoints. All selection and edit state lives in the caller's session; the
// handlers translate HTTP to reducer actions, trigger fetches, and render
// generated tables.
package intelhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oneview-energy/oneview/internal/export"
	"github.com/oneview-energy/oneview/internal/intelligence"
	"github.com/oneview-energy/oneview/internal/observability"
	"github.com/oneview-energy/oneview/internal/pdf"
	"github.com/oneview-energy/oneview/internal/platform/httpx"
	"github.com/oneview-energy/oneview/internal/session"
	"github.com/oneview-energy/oneview/internal/upstream"
)

const requestTimeout = 30 * time.Second

// PDFService renders table snapshots to PDF bytes.
type PDFService interface {
	Render(ctx context.Context, snap pdf.Snapshot) ([]byte, error)
}

// ExportJobState enumerates background export job states.
type ExportJobState string

const (
	ExportPending ExportJobState = "pending"
	ExportRunning ExportJobState = "running"
	ExportDone    ExportJobState = "done"
	ExportFailed  ExportJobState = "failed"
)

// ExportJob is the queryable state of one background export.
type ExportJob struct {
	ID       string         `json:"id"`
	Page     string         `json:"page"`
	State    ExportJobState `json:"state"`
	Filename string         `json:"filename,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ExportService queues background workbook exports and serves their results.
type ExportService interface {
	Enqueue(ctx context.Context, page, sessionID string) (string, error)
	Status(ctx context.Context, jobID string) (ExportJob, error)
	Open(ctx context.Context, jobID string) (io.ReadCloser, string, error)
}

// ErrExportJobNotFound is returned by ExportService lookups for unknown ids.
var ErrExportJobNotFound = errors.New("export job not found")

// Handler coordinates HTTP requests for both intelligence pages.
type Handler struct {
	logger   *slog.Logger
	registry *intelligence.Registry
	sessions *session.Manager
	source   upstream.DataSource
	fetcher  *upstream.Fetcher
	orch     *intelligence.Orchestrator
	pdf      PDFService
	exports  ExportService
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler constructs the intelligence HTTP handler. pdf, exports and
// metrics may be nil; the matching endpoints then respond 503.
func NewHandler(
	logger *slog.Logger,
	registry *intelligence.Registry,
	sessions *session.Manager,
	source upstream.DataSource,
	fetcher *upstream.Fetcher,
	orch *intelligence.Orchestrator,
	pdfService PDFService,
	exports ExportService,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		sessions: sessions,
		source:   source,
		fetcher:  fetcher,
		orch:     orch,
		pdf:      pdfService,
		exports:  exports,
		metrics:  metrics,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// page resolves the {page} path segment, or writes a 404.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) (intelligence.Page, bool) {
	name := pathValue(r, "page")
	page, ok := intelligence.Pages()[name]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unknown page %q", name))
		return intelligence.Page{}, false
	}
	return page, true
}

// load resolves the request's session, or writes a 500.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Load(r.Context(), r)
	if err != nil {
		h.logger.Error("session load failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := h.sessions.Commit(r.Context(), w, sess); err != nil {
		h.logger.Error("session commit failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	projects, err := h.source.Projects(ctx)
	if err != nil {
		h.logger.Error("project list failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "project list unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

type moduleInfo struct {
	Name           string `json:"name"`
	Label          string `json:"label"`
	HasSubGroups   bool   `json:"has_sub_groups"`
	AutoDatapoints bool   `json:"auto_datapoints"`
	SingleSubGroup bool   `json:"single_sub_group"`
}

func (h *Handler) handleModules(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	out := struct {
		Page             string       `json:"page"`
		ExclusiveModules bool         `json:"exclusive_modules"`
		Modules          []moduleInfo `json:"modules"`
	}{Page: page.Name, ExclusiveModules: page.ExclusiveModules}
	for _, name := range page.Modules {
		desc, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		out.Modules = append(out.Modules, moduleInfo{
			Name:           desc.Name(),
			Label:          desc.Label(),
			HasSubGroups:   desc.HasSubGroups(),
			AutoDatapoints: desc.AutoDatapoints(),
			SingleSubGroup: desc.SingleSubGroup(),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// handleStructure resolves and caches a module's structure off a sample fetch
// against the first selected project. Upstream failure degrades to an empty
// descriptor, not an error response.
func (h *Handler) handleStructure(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	module := r.URL.Query().Get("module")
	desc, ok := h.registry.Get(module)
	if !ok || !pageHas(page, module) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unknown module %q", module))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := sess.State(page.Name)
	structure := intelligence.EmptyStructure()
	if len(state.Projects) > 0 {
		payload, err := h.fetchSample(ctx, desc, state.Projects[0])
		if err != nil {
			h.logger.Warn("structure sample fetch failed",
				slog.String("module", module), slog.Any("error", err))
		} else {
			structure = desc.ResolveStructure(payload)
		}
	}

	if err := state.Apply(intelligence.Action{
		Type:      intelligence.ActionSetStructure,
		Module:    module,
		Structure: &structure,
	}, h.registry); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess.Touch()
	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, h.annotateStructure(ctx, desc, structure))
}

// tableBacked is implemented by descriptors whose records live in a single
// upstream table with per-field metadata.
type tableBacked interface {
	Table() string
}

// structureResponse is the structure payload extended with edit-mode
// metadata: resolved field types and dropdown choices.
type structureResponse struct {
	intelligence.Structure
	FieldTypes map[string]intelligence.FieldType    `json:"field_types"`
	Dropdowns  map[string][]upstream.DropdownOption `json:"dropdown_options,omitempty"`
}

// annotateStructure resolves a field type for every datapoint in the
// structure, preferring upstream field metadata over key heuristics, and
// attaches dropdown choices for dropdown-typed fields. Metadata failures
// degrade to heuristics, never to an error.
func (h *Handler) annotateStructure(ctx context.Context, desc intelligence.Descriptor, structure intelligence.Structure) structureResponse {
	resp := structureResponse{
		Structure:  structure,
		FieldTypes: make(map[string]intelligence.FieldType),
	}
	table := ""
	if tb, ok := desc.(tableBacked); ok {
		table = tb.Table()
	}
	meta := intelligence.MetaIndex(h.fieldMeta(ctx, desc, table))

	annotate := func(points []intelligence.Datapoint) {
		for _, dp := range points {
			ft := intelligence.TypeFor(meta, dp.Key)
			resp.FieldTypes[dp.Key] = ft
			if ft != intelligence.FieldDropdown || table == "" {
				continue
			}
			opts, err := h.source.DropdownOptions(ctx, table, dp.Key)
			if err != nil {
				h.logger.Warn("dropdown options fetch failed",
					slog.String("module", desc.Name()),
					slog.String("field", dp.Key),
					slog.Any("error", err))
				continue
			}
			if resp.Dropdowns == nil {
				resp.Dropdowns = make(map[string][]upstream.DropdownOption)
			}
			resp.Dropdowns[dp.Key] = opts
		}
	}
	annotate(structure.AllDatapoints)
	for _, points := range structure.DatapointsBySubGroup {
		annotate(points)
	}
	return resp
}

// fieldMeta loads field descriptors for a module: table metadata when the
// module is table-backed, the datapoint catalog otherwise.
func (h *Handler) fieldMeta(ctx context.Context, desc intelligence.Descriptor, table string) []upstream.FieldMeta {
	var (
		fields []upstream.FieldMeta
		err    error
	)
	if table != "" {
		fields, err = h.source.FieldMetadata(ctx, table)
	} else {
		fields, err = h.source.DataPoints(ctx, desc.Name())
	}
	if err != nil {
		h.logger.Warn("field metadata fetch failed",
			slog.String("module", desc.Name()), slog.Any("error", err))
		return nil
	}
	return fields
}

func (h *Handler) fetchSample(ctx context.Context, desc intelligence.Descriptor, projectID int64) (upstream.Payload, error) {
	if desc.FetchKind() == upstream.FetchSubmodule {
		return h.source.FinanceSubmodule(ctx, desc.Name(), projectID)
	}
	return h.source.ProjectModule(ctx, desc.Name(), projectID)
}

type selectionRequest struct {
	Action    string                  `json:"action" validate:"required"`
	ProjectID int64                   `json:"project_id"`
	Module    string                  `json:"module"`
	SubGroup  *intelligence.SubGroup  `json:"sub_group"`
	Datapoint *intelligence.Datapoint `json:"datapoint"`
	SubKey    string                  `json:"sub_key"`
	Mode      string                  `json:"mode"`
}

func (h *Handler) handleSelectionApply(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	action := intelligence.Action{
		Type:      intelligence.ActionType(req.Action),
		ProjectID: req.ProjectID,
		Module:    req.Module,
		SubKey:    req.SubKey,
		Mode:      intelligence.Mode(req.Mode),
	}
	if req.SubGroup != nil {
		action.SubGroup = *req.SubGroup
	}
	if req.Datapoint != nil {
		action.Datapoint = *req.Datapoint
	}

	state := sess.State(page.Name)
	if err := state.Apply(action, h.registry); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess.Touch()
	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) handleSelectionReset(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	state := sess.State(page.Name)
	if err := state.Apply(intelligence.Action{Type: intelligence.ActionReset}, h.registry); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess.SetTracker(page.Name, intelligence.NewTracker())
	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, state)
}

// tableContext gathers everything needed to generate tables for the current
// selection: project list, fan-out fetch, snapshot.
func (h *Handler) tableContext(ctx context.Context, sess *session.Session, page intelligence.Page) ([]upstream.Project, upstream.Snapshot, error) {
	state := sess.State(page.Name)
	projects, err := h.source.Projects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("project list: %w", err)
	}

	var pairs []upstream.FetchPair
	for _, projectID := range state.Projects {
		project, ok := projectByID(projects, projectID)
		if !ok {
			continue
		}
		for _, name := range state.Modules {
			desc, ok := h.registry.Get(name)
			if !ok {
				continue
			}
			pairs = append(pairs, upstream.FetchPair{
				Project:   project,
				Module:    name,
				Kind:      desc.FetchKind(),
				Submodule: name,
			})
		}
	}
	snap := h.fetcher.Fetch(ctx, sess.ID+":"+page.Name, state.Version, pairs)
	return projects, snap, nil
}

// renderedTable is the wire shape of one generated table: formatted cells
// addressed by column key, with pending edits already applied.
type renderedTable struct {
	Module  string                `json:"module"`
	Label   string                `json:"label"`
	Columns []intelligence.Column `json:"columns"`
	Rows    []map[string]string   `json:"rows"`
}

func renderTables(tables []intelligence.Table, tracker *intelligence.Tracker) []renderedTable {
	out := make([]renderedTable, 0, len(tables))
	for _, table := range tables {
		edits := make(map[editAddr]any)
		for _, edit := range tracker.Module(table.Module) {
			edits[editAddr{rowIndex: edit.RowIndex, field: edit.Field}] = edit.Value
		}
		rendered := renderedTable{
			Module:  table.Module,
			Label:   table.Label,
			Columns: table.Columns,
			Rows:    make([]map[string]string, 0, len(table.Rows)),
		}
		for idx, row := range table.Rows {
			cells := make(map[string]string, len(table.Columns))
			for _, col := range table.Columns {
				if value, ok := edits[editAddr{rowIndex: idx, field: col.Key}]; ok {
					cells[col.Key] = intelligence.FormatValue(value, intelligence.DisplayKey(row, col))
					continue
				}
				cells[col.Key] = intelligence.FormatCell(row, col)
			}
			rendered.Rows = append(rendered.Rows, cells)
		}
		out = append(out, rendered)
	}
	return out
}

type editAddr struct {
	rowIndex int
	field    string
}

func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := sess.State(page.Name)
	projects, snap, err := h.tableContext(ctx, sess, page)
	if err != nil {
		h.logger.Error("table generation failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not fetch project data")
		return
	}
	tables := intelligence.BuildTables(h.registry, state, projects, snap)
	tracker := sess.Tracker(page.Name)

	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Version int64           `json:"version"`
		Pending int             `json:"pending_edits"`
		Tables  []renderedTable `json:"tables"`
	}{Version: state.Version, Pending: tracker.Len(), Tables: renderTables(tables, tracker)})
}

type editRequest struct {
	ProjectID int64  `json:"project_id" validate:"required"`
	RowIndex  int    `json:"row_index" validate:"gte=0"`
	Module    string `json:"module" validate:"required"`
	Field     string `json:"field" validate:"required"`
	Value     any    `json:"value"`
	Original  any    `json:"original_value"`
}

func (h *Handler) handleEditSet(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if _, ok := h.registry.Get(req.Module); !ok || !pageHas(page, req.Module) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unknown module %q", req.Module))
		return
	}

	tracker := sess.Tracker(page.Name)
	tracker.Set(intelligence.Edit{
		ProjectID: req.ProjectID,
		RowIndex:  req.RowIndex,
		Module:    req.Module,
		Field:     req.Field,
		Value:     req.Value,
		Original:  req.Original,
	})
	sess.SetTracker(page.Name, tracker)
	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Pending int `json:"pending_edits"`
	}{Pending: tracker.Len()})
}

func (h *Handler) handleEditsClear(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	sess.SetTracker(page.Name, intelligence.NewTracker())
	if !h.commit(w, r, sess) {
		return
	}
	httpx.JSON(w, http.StatusOK, struct {
		Pending int `json:"pending_edits"`
	}{Pending: 0})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := sess.State(page.Name)
	tracker := sess.Tracker(page.Name)
	if tracker.Len() == 0 {
		httpx.JSON(w, http.StatusOK, intelligence.SaveResult{Saved: []string{}})
		return
	}

	projects, snap, err := h.tableContext(ctx, sess, page)
	if err != nil {
		h.logger.Error("save fetch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not fetch project data")
		return
	}

	result := h.orch.Save(ctx, state, projects, snap, tracker)
	sess.SetTracker(page.Name, tracker)
	if !h.commit(w, r, sess) {
		return
	}
	if !result.Ok() {
		httpx.JSON(w, http.StatusBadGateway, result)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type exportRequest struct {
	Async bool `json:"async"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}

	var req exportRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
			return
		}
	}

	if req.Async {
		if h.exports == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background exports not configured")
			return
		}
		jobID, err := h.exports.Enqueue(r.Context(), page.Name, sess.ID)
		if err != nil {
			h.logger.Error("export enqueue failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "could not enqueue export")
			return
		}
		httpx.JSON(w, http.StatusAccepted, struct {
			JobID string `json:"job_id"`
		}{JobID: jobID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := sess.State(page.Name)
	projects, snap, err := h.tableContext(ctx, sess, page)
	if err != nil {
		h.logger.Error("export fetch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not fetch project data")
		return
	}
	tables := intelligence.BuildTables(h.registry, state, projects, snap)

	f, err := export.BuildWorkbook(tables)
	if err != nil {
		h.logger.Error("workbook build failed", slog.Any("error", err))
		h.metrics.ObserveExport("xlsx", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	defer func() { _ = f.Close() }()

	filename := export.Filename(page.Name, h.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		h.logger.Error("workbook write failed", slog.Any("error", err))
	}
	h.metrics.ObserveExport("xlsx", nil)
}

func (h *Handler) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background exports not configured")
		return
	}
	jobID := pathValue(r, "jobID")
	job, err := h.exports.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, ErrExportJobNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unknown export job %q", jobID))
			return
		}
		httpx.RespondError(w, err)
		return
	}

	if job.State == ExportDone && r.URL.Query().Get("download") == "true" {
		file, filename, err := h.exports.Open(r.Context(), jobID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		defer func() { _ = file.Close() }()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = io.Copy(w, file)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "pdf rendering not configured")
		return
	}
	sess, ok := h.load(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := sess.State(page.Name)
	projects, snap, err := h.tableContext(ctx, sess, page)
	if err != nil {
		h.logger.Error("pdf fetch failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "could not fetch project data")
		return
	}
	tables := intelligence.BuildTables(h.registry, state, projects, snap)

	out, err := h.pdf.Render(ctx, pdf.Snapshot{
		Title:  fmt.Sprintf("OneView %s - %s", page.Name, h.now().Format("2006-01-02")),
		Tables: tables,
	})
	if err != nil {
		h.logger.Error("pdf render failed", slog.Any("error", err))
		h.metrics.ObserveExport("pdf", err)
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "pdf rendering failed")
		return
	}
	h.metrics.ObserveExport("pdf", nil)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "oneview-"+page.Name+".pdf"))
	_, _ = w.Write(out)
}

func pageHas(page intelligence.Page, module string) bool {
	for _, m := range page.Modules {
		if m == module {
			return true
		}
	}
	return false
}

func projectByID(projects []upstream.Project, id int64) (upstream.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return upstream.Project{}, false
}
