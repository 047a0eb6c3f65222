package report

import (
	"bytes"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/tradedash/dashboard"
)

var orgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(backtestOrgTemplate))

// FormatOrg renders v as an Org-mode entry.
func FormatOrg(v dashboard.View) (string, error) {
	var buf bytes.Buffer
	if err := orgTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg writes FormatOrg(v) to path.
func WriteOrg(path string, v dashboard.View) error {
	s, err := FormatOrg(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

const backtestOrgTemplate = `* BACKTEST: {{.Details.Symbol}} {{.Details.Timeframes}}
:PROPERTIES:
:RENDER_ID:   {{.RenderID}}
:SOURCE:      {{if .Source}}{{.Source}}{{else}}(source?){{end}}
:SYMBOL:      {{.Details.Symbol}}
:TIMEFRAMES:  {{.Details.Timeframes}}
:PERIOD:      {{.Details.Period}}
:CREATED:     [{{(orTime .ModTime).Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Error}}

Load failed: {{.Error}}
{{- else}}

** Key Metrics
| Metric | Value |
|--------+-------|
{{- range .Metrics.Cards}}
| {{.Label}} | {{.Value}} |
{{- end}}

** Trading
{{- range .Statistics.Trading}}
- {{.Label}}: *{{.Value}}*
{{- end}}

** Capital
{{- range .Statistics.Capital}}
- {{.Label}}: *{{.Value}}*
{{- end}}

** Trades
{{- if .Trades.Rows}}
| Type | Entry | Exit | Entry price | Exit price | P/L | Duration |
|------+-------+------+-------------+------------+-----+----------|
{{- range .Trades.Rows}}
| {{.Type}} | {{.EntryText}} | {{.ExitText}} | {{printf "%.2f" .EntryPrice}} | {{printf "%.2f" .ExitPrice}} | {{printf "%.2f" .PnL}} | {{.DurationText}} |
{{- end}}
{{- else}}
{{if .Trades.Error}}{{.Trades.Error}}{{else}}{{.Trades.Empty}}{{end}}
{{- end}}
{{- end}}
`
