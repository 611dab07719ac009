// Render HTML for browsing the candidates of a run

package render

import (
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/model"
)

var candidate_page_template *template.Template

// identityColor maps an identity from 70 to 100 to a color between #ff0000 (red) and #00ff00 (green).
func identityColor(value float64) string {

	if value >= 100 {
		return fmt.Sprintf("#%02X%02X00", 0, 255)
	}

	// Return grey color if it is lower than 70%
	if value < 70 {
		return "#8B8989"
	}

	// Normalized value into 0-1
	normalized := (value - 70) / (100 - 70)

	var r, g int

	if normalized <= 0.5 {
		r = 255
		g = int(math.Round(normalized * 2 * 255))
	} else {
		r = int(math.Round((1 - normalized) * 2 * 255))
		g = 255
	}

	return fmt.Sprintf("#%02X%02X00", r, g)
}

func categoryColor(c model.MatchCategory) string {
	switch c {
	case model.MatchEnd:
		return "#f2e6d9"
	case model.MatchFullLength:
		return "#f2d9d9"
	default:
		return "#d9f2e6"
	}
}

// init initializes the templates used for rendering the candidate page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>HGT candidates</title>
	</head>
	<body>
		<h1>HGT candidates</h1>
		{{ if .Run }}
			{{template "run_summary" . }}
			{{template "cutoff_table" .Cutoffs }}
			{{template "candidate_table" .Candidates }}
		{{ else }}
			<p>No run stored yet.</p>
		{{ end }}
	</body>
	</html>`

	runSummaryTmpl := `
	{{define "run_summary"}}
		<div>
			<p>Run {{ .Run.RunID }} ({{ .Run.CreatedAt.Format "2006-01-02 15:04:05" }})</p>
			<p>Output: {{ .Run.OutputDir }}</p>
			<p>{{ .Run.HitsKept }} of {{ .Run.HitsTotal }} hits passed the filter, {{ len .Candidates }} candidates ({{ .EndMatches }} end match, {{ .FullLength }} full length match).</p>
		</div>
	{{end}}`

	cutoffTmpl := `
	{{define "cutoff_table"}}
		<h2>Identity cutoffs</h2>
		<table border="1">
		<tr>
			<th>Groups</th>
			<th>Cutoff</th>
			<th>Hits</th>
		</tr>
		{{ range . }}
			{{ if not .Pair.IsSelf }}
				<tr{{ if not .Sufficient }} style="color: #8B8989"{{ end }}>
					<td>{{ .Pair.String }}</td>
					<td>{{ printf "%.2f" .Cutoff }}</td>
					<td>{{ .Samples }}</td>
				</tr>
			{{ end }}
		{{ end }}
		</table>
	{{end}}`

	candidateTmpl := `
	{{define "candidate_table"}}
		<h2>Candidates</h2>
		<table border="1">
		<tr>
			<th>Recipient</th>
			<th>Donor</th>
			<th>Recipient group</th>
			<th>Donor group</th>
			<th>Identity</th>
			<th>Contig match</th>
		</tr>
		{{ range . }}
			<tr style="background-color: {{ categoryColor .Category }}; color: #333333">
				<td>{{ .Recipient }}</td>
				<td>{{ .Donor }}</td>
				<td>{{ .RecipientGroup }}</td>
				<td>{{ .DonorGroup }}</td>
				<td style="background-color: {{ identityColor .Identity }}">{{ .Identity }}</td>
				<td>{{ .Category }}</td>
			</tr>
		{{ end }}
		</table>
	{{end}}`

	candidate_page_template = template.New("candidate_page")

	funcMap := template.FuncMap{
		"identityColor": identityColor,
		"categoryColor": categoryColor,
	}

	candidate_page_template = candidate_page_template.Funcs(funcMap)
	candidate_page_template = template.Must(candidate_page_template.Parse(mainTmpl))
	candidate_page_template = template.Must(candidate_page_template.Parse(runSummaryTmpl))
	candidate_page_template = template.Must(candidate_page_template.Parse(cutoffTmpl))
	candidate_page_template = template.Must(candidate_page_template.Parse(candidateTmpl))
}

// RenderCandidatePage writes the run summary, cutoff and candidate tables.
// A nil run renders the empty page.
func RenderCandidatePage(w io.Writer, run *db.Run, cutoffs []model.PairThreshold, candidates []*model.AnnotatedCandidate) error {

	endMatches, fullLength := 0, 0
	for _, c := range candidates {
		switch c.Category {
		case model.MatchEnd:
			endMatches++
		case model.MatchFullLength:
			fullLength++
		}
	}

	data := struct {
		Run        *db.Run
		Cutoffs    []model.PairThreshold
		Candidates []*model.AnnotatedCandidate
		EndMatches int
		FullLength int
	}{
		Run:        run,
		Cutoffs:    cutoffs,
		Candidates: candidates,
		EndMatches: endMatches,
		FullLength: fullLength,
	}

	return candidate_page_template.Execute(w, data)
}
