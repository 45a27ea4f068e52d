package pdf

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

func snapshot() Snapshot {
	return Snapshot{
		Title: "Finance Intelligence",
		Tables: []intelligence.Table{
			{
				Module: intelligence.ModuleFinancingTerms,
				Label:  "Financing Terms",
				Columns: []intelligence.Column{
					{Key: "project", Title: "Project", Role: intelligence.RoleLabel},
					{Key: "Construction", Title: "Construction", Group: "Loan Types", Role: intelligence.RoleValue},
					{Key: "Term", Title: "Term", Group: "Loan Types", Role: intelligence.RoleValue},
				},
				Rows: []intelligence.Row{
					{
						ProjectName: "Desert Sun",
						Cells:       map[string]any{"Construction": 5000000.0, "Term": nil},
					},
				},
			},
		},
	}
}

func TestBuildHTMLRendersGroupedHeaderAndFormattedCells(t *testing.T) {
	html := BuildHTML(snapshot())

	require.Contains(t, html, "<h1>Finance Intelligence</h1>")
	require.Contains(t, html, "<h2>Financing Terms</h2>")
	require.Contains(t, html, `<th colspan="2">Loan Types</th>`)
	require.Contains(t, html, `<th rowspan="2">Project</th>`)
	require.Contains(t, html, "<td>5000000</td>")
	require.Contains(t, html, "<td>-</td>")
}

func TestRenderPostsMultipartToGotenberg(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer server.Close()

	exporter := &Exporter{Endpoint: server.URL}
	out, err := exporter.Render(context.Background(), snapshot())
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.7 fake"), out)

	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.True(t, strings.HasPrefix(gotContentType, "multipart/form-data"))
	require.Contains(t, string(gotBody), "Finance Intelligence")
}

func TestRenderRejectsGotenbergError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	exporter := &Exporter{Endpoint: server.URL}
	_, err := exporter.Render(context.Background(), snapshot())
	require.Error(t, err)
	require.Contains(t, err.Error(), "chromium crashed")
}
