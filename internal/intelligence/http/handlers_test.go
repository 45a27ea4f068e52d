package intelhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oneview-energy/oneview/internal/intelligence"
	"github.com/oneview-energy/oneview/internal/session"
	_ "github.com/oneview-energy/oneview/internal/testing/guard"
	"github.com/oneview-energy/oneview/internal/upstream"
)

// fakeSource serves canned payloads and records saves.
type fakeSource struct {
	mu         sync.Mutex
	projects   []upstream.Project
	submodules map[string]map[int64]upstream.Payload
	modules    map[string]map[int64]upstream.Payload
	meta       map[string][]upstream.FieldMeta
	dropdowns  map[string][]upstream.DropdownOption
	saved      []upstream.SubmoduleSave
	savedTable []map[string]any
}

func (f *fakeSource) Projects(ctx context.Context) ([]upstream.Project, error) {
	return f.projects, nil
}

func (f *fakeSource) ProjectModule(ctx context.Context, module string, projectID int64) (upstream.Payload, error) {
	return f.modules[module][projectID], nil
}

func (f *fakeSource) FinanceSubmodule(ctx context.Context, submodule string, projectID int64) (upstream.Payload, error) {
	return f.submodules[submodule][projectID], nil
}

func (f *fakeSource) FieldMetadata(ctx context.Context, table string) ([]upstream.FieldMeta, error) {
	return f.meta[table], nil
}

func (f *fakeSource) DataPoints(ctx context.Context, module string) ([]upstream.FieldMeta, error) {
	return f.meta[module], nil
}

func (f *fakeSource) DropdownOptions(ctx context.Context, table, field string) ([]upstream.DropdownOption, error) {
	return f.dropdowns[field], nil
}

func (f *fakeSource) UpdateProjectData(ctx context.Context, table string, projectID int64, record map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedTable = append(f.savedTable, record)
	return nil
}

func (f *fakeSource) UpdateFinanceSubmodule(ctx context.Context, submodule string, projectID int64, save upstream.SubmoduleSave) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, save)
	return nil
}

type fixture struct {
	router *chi.Mux
	source *fakeSource
	cookie *http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := intelligence.NewRegistry()
	sessions := session.NewManager(client, time.Hour, false)

	source := &fakeSource{
		projects: []upstream.Project{{ID: 1, Name: "Desert Sun"}},
		submodules: map[string]map[int64]upstream.Payload{
			intelligence.ModuleEnergy: {
				1: {Data: map[string]any{"id": 77.0, "capacity_mw": 150.0, "offtake_price": 42.5}},
			},
		},
	}
	store := upstream.NewStore()
	fetcher := upstream.NewFetcher(source, store, logger)
	orch := intelligence.NewOrchestrator(registry, source, logger, nil)

	h := NewHandler(logger, registry, sessions, source, fetcher, orch, nil, nil, nil)
	router := chi.NewRouter()
	h.MountRoutes(router)
	return &fixture{router: router, source: source}
}

// do runs one request through the router, carrying the session cookie across
// calls.
func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			f.cookie = c
		}
	}
	return rec
}

func (f *fixture) selectEnergy(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/selection", map[string]any{
		"action": "toggle_project", "project_id": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/intelligence/finance/selection", map[string]any{
		"action": "toggle_module", "module": intelligence.ModuleEnergy,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/intelligence/finance/structure?module=energy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/intelligence/finance/selection", map[string]any{
		"action": "set_mode", "module": intelligence.ModuleEnergy, "mode": "all",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownPageIs404(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/intelligence/nope/modules", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModulesRoster(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/intelligence/finance/modules", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		ExclusiveModules bool `json:"exclusive_modules"`
		Modules          []struct {
			Name string `json:"name"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.ExclusiveModules)
	require.Len(t, out.Modules, 14)
}

func TestSelectionRejectsMalformedAction(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/selection", map[string]any{
		"action": "explode",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestStructureCarriesFieldTypesAndDropdowns(t *testing.T) {
	f := newFixture(t)
	f.source.meta = map[string][]upstream.FieldMeta{
		"project_energy": {
			{FieldKey: "capacity_mw", DisplayLabel: "Capacity Mw", DataType: "number", TableName: "project_energy"},
			{FieldKey: "offtake_price", DisplayLabel: "Offtake Price", DataType: "dropdown", TableName: "project_energy"},
		},
	}
	f.source.dropdowns = map[string][]upstream.DropdownOption{
		"offtake_price": {{ID: 1, OptionValue: "Fixed"}, {ID: 2, OptionValue: "Indexed"}},
	}

	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/selection", map[string]any{
		"action": "toggle_project", "project_id": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/intelligence/finance/structure?module=energy", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FieldTypes map[string]string                    `json:"field_types"`
		Dropdowns  map[string][]upstream.DropdownOption `json:"dropdown_options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "number", resp.FieldTypes["capacity_mw"])
	require.Equal(t, "dropdown", resp.FieldTypes["offtake_price"])
	require.Equal(t, []upstream.DropdownOption{
		{ID: 1, OptionValue: "Fixed"}, {ID: 2, OptionValue: "Indexed"},
	}, resp.Dropdowns["offtake_price"])
}

func TestTableRendersFormattedCellsAndPendingEdits(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)

	rec := f.do(t, http.MethodGet, "/api/intelligence/finance/table", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Pending int `json:"pending_edits"`
		Tables  []struct {
			Module string              `json:"module"`
			Rows   []map[string]string `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Tables, 1)
	require.Equal(t, intelligence.ModuleEnergy, out.Tables[0].Module)
	require.Len(t, out.Tables[0].Rows, 2, "one row per datapoint")
	require.Equal(t, "Desert Sun", out.Tables[0].Rows[0]["project"])

	// Record an edit and re-render: the edited cell shows the new value.
	rec = f.do(t, http.MethodPut, "/api/intelligence/finance/edits", map[string]any{
		"project_id": 1, "row_index": 0, "module": intelligence.ModuleEnergy,
		"field": "value", "value": 175.0, "original_value": 150.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/intelligence/finance/table", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out.Pending)
	require.Equal(t, "175", out.Tables[0].Rows[0]["value"])
}

func TestEditRevertClearsPending(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)

	f.do(t, http.MethodPut, "/api/intelligence/finance/edits", map[string]any{
		"project_id": 1, "row_index": 0, "module": intelligence.ModuleEnergy,
		"field": "value", "value": 175.0, "original_value": 150.0,
	})
	rec := f.do(t, http.MethodPut, "/api/intelligence/finance/edits", map[string]any{
		"project_id": 1, "row_index": 0, "module": intelligence.ModuleEnergy,
		"field": "value", "value": 150.0, "original_value": 175.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Pending int `json:"pending_edits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 0, out.Pending)
}

func TestSavePersistsThroughUpstream(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)

	f.do(t, http.MethodPut, "/api/intelligence/finance/edits", map[string]any{
		"project_id": 1, "row_index": 0, "module": intelligence.ModuleEnergy,
		"field": "value", "value": 175.0, "original_value": 150.0,
	})

	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result intelligence.SaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Saved, 1)

	require.Len(t, f.source.savedTable, 1)
	require.Equal(t, 175.0, f.source.savedTable[0]["capacity_mw"])

	// The tracker drained: another save is a no-op.
	rec = f.do(t, http.MethodPost, "/api/intelligence/finance/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.source.savedTable, 1)
}

func TestExportStreamsWorkbook(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)

	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "oneview-finance-")
	require.NotZero(t, rec.Body.Len())
}

func TestAsyncExportWithoutServiceIs503(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)

	rec := f.do(t, http.MethodPost, "/api/intelligence/finance/export", map[string]any{"async": true})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSelectionResetDropsEdits(t *testing.T) {
	f := newFixture(t)
	f.selectEnergy(t)
	f.do(t, http.MethodPut, "/api/intelligence/finance/edits", map[string]any{
		"project_id": 1, "row_index": 0, "module": intelligence.ModuleEnergy,
		"field": "value", "value": 175.0, "original_value": 150.0,
	})

	rec := f.do(t, http.MethodDelete, "/api/intelligence/finance/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/intelligence/finance/table", nil)
	var out struct {
		Pending int `json:"pending_edits"`
		Tables  []struct {
			Rows []map[string]string `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Zero(t, out.Pending)
	require.Empty(t, out.Tables)
}
