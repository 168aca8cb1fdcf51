package ui

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"redevdash/domain/pipeline"

	"github.com/dustin/go-humanize"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"num": func(n pipeline.Number, decimals int) string {
			if !n.Valid {
				return "—"
			}
			return humanize.CommafWithDigits(n.Value, decimals)
		},
		"year": func(n pipeline.Number) string {
			if !n.Valid {
				return "—"
			}
			return strconv.Itoa(int(n.Value))
		},
		"comma": func(v float64) string { return humanize.CommafWithDigits(v, 1) },
		"selected": func(current, option string) bool {
			return strings.EqualFold(current, option)
		},
	}
}

// renderTemplate executes a template into a buffer so a failure never sends a partial page
func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.log.Error("[App] template %s failed: %v", name, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		a.log.Warn("[App] writing %s response: %v", name, err)
	}
}

// renderMarkdown turns an analysis report into HTML
func renderMarkdown(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}
