// Package templates holds the HTML views of the web UI as templ components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 0; color: #1f2937; }
header { background: #111827; color: #f9fafb; padding: 0.75rem 1.5rem; }
header a { color: inherit; text-decoration: none; font-weight: 600; }
main { padding: 1.5rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d1d5db; padding: 0.25rem 0.5rem; text-align: left; }
th { background: #f3f4f6; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
td.absent { color: #9ca3af; }
.alert { border: 1px solid #fca5a5; background: #fef2f2; padding: 0.75rem; margin: 1rem 0; }
.alert pre { margin: 0.5rem 0 0; white-space: pre-wrap; }
.muted { color: #6b7280; }
`

// Page wraps body in the common document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeAll(w,
			"<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">",
			"<title>", templ.EscapeString(title), " · modelcsv</title>",
			"<style>", stylesheet, "</style></head><body>",
			"<header><a href=\"/\">modelcsv</a></header><main>",
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return writeAll(w, "</main></body></html>")
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code, detail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeAll(w,
			"<div class=\"alert\" role=\"alert\"><strong>", templ.EscapeString(message), "</strong>",
			" <span class=\"muted\">(Code: ", templ.EscapeString(code), ")</span>",
		); err != nil {
			return err
		}
		if action != "" {
			if err := writeAll(w, "<p>", templ.EscapeString(action), "</p>"); err != nil {
				return err
			}
		}
		if detail != "" {
			if err := writeAll(w, "<pre>", templ.EscapeString(detail), "</pre>"); err != nil {
				return err
			}
		}
		return writeAll(w, "</div>")
	})
}

func writeAll(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
