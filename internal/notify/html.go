package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/dunamismax/brandflow/internal/domain"
)

// summaryTemplate mirrors the result email layout: an optional zip download
// block, then one side-by-side original/processed block per image with a
// capped-width preview.
var summaryTemplate = template.Must(template.New("summary").Parse(`<html><body>
{{- if .ZipURL}}
<div style="margin-top: 20px;">
<h3>Download Zip File</h3>
<a href="{{.ZipURL}}">{{.ZipURL}}</a><br/>
</div><br/>
{{- end}}
{{- range .Results}}
<div style="display: flex;">
<div style="flex: 1;">
<h3>Original Image</h3>
<a href="{{.OriginalURL}}">{{.OriginalURL}}</a><br/>
<a href="{{.OriginalURL}}"><img src="{{.OriginalURL}}" alt="Original Image" style="max-width: 400px;"/><br/></a>
</div>
<div style="flex: 1;">
<h3>Processed Image</h3>
<a href="{{.ProcessedURL}}">{{.ProcessedURL}}</a><br/>
<a href="{{.ProcessedURL}}"><img src="{{.ProcessedURL}}" alt="Processed Image" style="max-width: 400px;"/><br/></a>
</div>
</div>
{{- end}}
</body></html>`))

// RenderSummary produces the HTML body shared by the notification email and
// the successful HTTP reply.
func RenderSummary(res domain.PackagedResponse) (string, error) {
	var b strings.Builder
	if err := summaryTemplate.Execute(&b, res); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return b.String(), nil
}

// RenderError produces the HTML fragment returned on a failed request.
func RenderError(err error) string {
	var b strings.Builder
	b.WriteString("<h1>Error processing request</h1>")
	b.WriteString("<p>")
	b.WriteString(template.HTMLEscapeString(err.Error()))
	b.WriteString("</p>")
	return b.String()
}
