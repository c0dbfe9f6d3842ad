package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/modelcsv/internal/core"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// MaxPreviewSamples caps the number of samples shown on a detail page.
const MaxPreviewSamples = 200

// DocumentList renders the index page body: an upload form and every stored
// document.
func DocumentList(docs []core.DocumentInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeAll(w,
			"<h1>Model files</h1>",
			"<form method=\"post\" action=\"/api/documents\" enctype=\"multipart/form-data\">",
			"<input type=\"text\" name=\"name\" placeholder=\"Name\"> ",
			"<input type=\"file\" name=\"file\" accept=\".csv,text/csv\" required> ",
			"<button type=\"submit\">Import</button></form>",
		); err != nil {
			return err
		}
		if len(docs) == 0 {
			return writeAll(w, "<p class=\"muted\">No documents yet.</p>")
		}

		if err := writeAll(w,
			"<table><thead><tr><th>Name</th><th>Inputs</th><th>Outputs</th>",
			"<th>Samples</th><th>Imported</th><th>Source</th></tr></thead><tbody>",
		); err != nil {
			return err
		}
		for _, d := range docs {
			if err := writeAll(w,
				"<tr><td><a href=\"", documentURL(d.ID), "\">", templ.EscapeString(d.Name), "</a></td>",
				"<td class=\"num\">", strconv.Itoa(d.Inputs), "</td>",
				"<td class=\"num\">", strconv.Itoa(d.Outputs), "</td>",
				"<td class=\"num\">", strconv.Itoa(d.Samples), "</td>",
				"<td>", d.CreatedAt.Format("2006-01-02 15:04"), "</td>",
				"<td class=\"muted\">", templ.EscapeString(d.Source), "</td></tr>",
			); err != nil {
				return err
			}
		}
		return writeAll(w, "</tbody></table>")
	})
}

// DocumentDetail renders the element grid and a sample preview of doc.
func DocumentDetail(doc *core.Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := documentURL(doc.ID)
		if err := writeAll(w,
			"<h1>", templ.EscapeString(doc.Name), "</h1>",
			"<p><a href=\"/api", base, "/csv\">Download CSV</a> · ",
			"<a href=\"/api", base, "/arrow\">Download Arrow</a></p>",
			"<h2>Elements</h2>",
		); err != nil {
			return err
		}
		if err := elementGrid(w, doc.Definition); err != nil {
			return err
		}
		return sampleTable(w, doc.Definition, doc.Data)
	})
}

func elementGrid(w io.Writer, def *model.DataDefinition) error {
	if err := writeAll(w, "<table><thead><tr><th>Role</th>"); err != nil {
		return err
	}
	for _, h := range model.GridHeader() {
		if err := writeAll(w, "<th>", templ.EscapeString(h), "</th>"); err != nil {
			return err
		}
	}
	if err := writeAll(w, "</tr></thead><tbody>"); err != nil {
		return err
	}
	for _, e := range def.Inputs {
		if err := gridRow(w, core.RoleInput, model.InputGridRow(e)); err != nil {
			return err
		}
	}
	for _, e := range def.Outputs {
		if err := gridRow(w, core.RoleOutput, model.OutputGridRow(e)); err != nil {
			return err
		}
	}
	return writeAll(w, "</tbody></table>")
}

func gridRow(w io.Writer, role string, cells []string) error {
	if err := writeAll(w, "<tr><td>", role, "</td>"); err != nil {
		return err
	}
	for _, c := range cells {
		if err := writeAll(w, "<td>", templ.EscapeString(c), "</td>"); err != nil {
			return err
		}
	}
	return writeAll(w, "</tr>")
}

func sampleTable(w io.Writer, def *model.DataDefinition, set *model.SampledDataSet) error {
	n := set.Len()
	if err := writeAll(w, "<h2>Samples</h2>"); err != nil {
		return err
	}
	if n == 0 {
		return writeAll(w, "<p class=\"muted\">No samples.</p>")
	}
	if n > MaxPreviewSamples {
		if err := writeAll(w, fmt.Sprintf("<p class=\"muted\">Showing %d of %d samples.</p>", MaxPreviewSamples, n)); err != nil {
			return err
		}
		n = MaxPreviewSamples
	}

	if err := writeAll(w, "<table><thead><tr><th>#</th>"); err != nil {
		return err
	}
	for _, name := range columnNames(def) {
		if err := writeAll(w, "<th>", templ.EscapeString(name), "</th>"); err != nil {
			return err
		}
	}
	if err := writeAll(w, "</tr></thead><tbody>"); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		rec := set.Records[i]
		if err := writeAll(w, "<tr><td class=\"num\">", strconv.Itoa(i+1), "</td>"); err != nil {
			return err
		}
		if err := sampleCells(w, rec.Inputs, set.InputLength); err != nil {
			return err
		}
		if err := sampleCells(w, rec.Outputs, set.OutputLength); err != nil {
			return err
		}
		if err := writeAll(w, "</tr>"); err != nil {
			return err
		}
	}
	return writeAll(w, "</tbody></table>")
}

func sampleCells(w io.Writer, v []float64, n int) error {
	for i := 0; i < n; i++ {
		s := ""
		if i < len(v) {
			s = table.FormatDouble(v[i])
		}
		if s == "" {
			if err := writeAll(w, "<td class=\"absent\">–</td>"); err != nil {
				return err
			}
			continue
		}
		if err := writeAll(w, "<td class=\"num\">", s, "</td>"); err != nil {
			return err
		}
	}
	return nil
}

// columnNames lists the sample column headers, generating names for unnamed
// elements the same way the CSV writer does.
func columnNames(def *model.DataDefinition) []string {
	named := def.Clone()
	named.EnsureNames()
	names := make([]string, 0, len(named.Inputs)+len(named.Outputs))
	for _, e := range named.Inputs {
		names = append(names, e.Name)
	}
	for _, e := range named.Outputs {
		names = append(names, e.Name)
	}
	return names
}

func documentURL(id string) string {
	return "/documents/" + url.PathEscape(id)
}
