// Package pdf renders a table snapshot to PDF through a Gotenberg instance.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

// Exporter wraps Gotenberg interactions for table snapshots.
type Exporter struct {
	Endpoint string
	Client   *http.Client
}

// Snapshot describes one render request: the page title line plus the tables
// currently on screen.
type Snapshot struct {
	Title  string
	Tables []intelligence.Table
}

// Render sends the snapshot HTML to Gotenberg and returns the PDF bytes.
func (e *Exporter) Render(ctx context.Context, snap Snapshot) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(e.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, BuildHTML(snap)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("landscape", "true"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}
	return io.ReadAll(resp.Body)
}

// BuildHTML renders the snapshot as a self-contained HTML document. Cells go
// through the shared formatter, so the PDF shows exactly what the screen and
// the spreadsheet show.
func BuildHTML(snap Snapshot) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}h2{font-size:16px;margin-top:24px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:left;}th{background:#f5f5f5;}")
	b.WriteString("</style></head><body>")
	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(snap.Title))
	b.WriteString("</h1>")

	for _, table := range snap.Tables {
		b.WriteString("<h2>")
		b.WriteString(html.EscapeString(table.Label))
		b.WriteString("</h2><table><thead>")
		writeHeader(&b, table.Columns)
		b.WriteString("</thead><tbody>")
		for _, row := range table.Rows {
			b.WriteString("<tr>")
			for _, col := range table.Columns {
				b.WriteString("<td>")
				b.WriteString(html.EscapeString(intelligence.FormatCell(row, col)))
				b.WriteString("</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeHeader(b *strings.Builder, columns []intelligence.Column) {
	grouped := false
	for _, col := range columns {
		if col.Group != "" {
			grouped = true
			break
		}
	}
	if grouped {
		b.WriteString("<tr>")
		for i := 0; i < len(columns); {
			group := columns[i].Group
			span := 1
			for i+span < len(columns) && columns[i+span].Group == group {
				span++
			}
			if group == "" {
				for j := 0; j < span; j++ {
					b.WriteString("<th rowspan=\"2\">")
					b.WriteString(html.EscapeString(columns[i+j].Title))
					b.WriteString("</th>")
				}
			} else {
				fmt.Fprintf(b, "<th colspan=\"%d\">", span)
				b.WriteString(html.EscapeString(group))
				b.WriteString("</th>")
			}
			i += span
		}
		b.WriteString("</tr><tr>")
		for _, col := range columns {
			if col.Group == "" {
				continue
			}
			b.WriteString("<th>")
			b.WriteString(html.EscapeString(col.Title))
			b.WriteString("</th>")
		}
		b.WriteString("</tr>")
		return
	}
	b.WriteString("<tr>")
	for _, col := range columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col.Title))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>")
}
