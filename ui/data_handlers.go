package ui

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"redevdash/app"
	"redevdash/domain/pipeline"
	"redevdash/internal/errors"

	"github.com/go-chi/chi/v5"
)

// viewRequestFromQuery reads filter, sort and search controls from the query string
func viewRequestFromQuery(q url.Values) app.ViewRequest {
	return app.ViewRequest{
		Criteria: pipeline.Criteria{
			Region:      q.Get("region"),
			Process:     q.Get("process"),
			Owner:       q.Get("owner"),
			Voltage:     q.Get("voltage"),
			Excess:      q.Get("excess"),
			ProjectType: q.Get("project_type"),
		},
		Sort: pipeline.SortSpec{
			Column:    q.Get("sort"),
			Direction: q.Get("direction"),
		},
		Search: pipeline.SearchSpec{
			Term:  q.Get("q"),
			Field: q.Get("field"),
		},
	}
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	req := viewRequestFromQuery(r.URL.Query())
	view, err := a.dashboard.View(r.Context(), req)
	if err != nil {
		a.log.Error("[App] loading dashboard: %v", err)
		http.Error(w, errors.PublicMessage(err), errors.HTTPStatus(err))
		return
	}

	top, bottom := view.Summary.KPIRows()
	a.renderTemplate(w, "dashboard.html", map[string]interface{}{
		"Title":       "Redevelopment Pipeline",
		"Source":      a.dashboard.SourceName(),
		"View":        view,
		"KPITop":      top,
		"KPIBottom":   bottom,
		"Request":     req,
		"FilterAll":   pipeline.FilterAll,
		"SortColumns": pipeline.SortableColumns(),
		"Query":       r.URL.RawQuery,
	})
}

func (a *App) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := a.dashboard.View(r.Context(), viewRequestFromQuery(r.URL.Query()))
	if err != nil {
		a.writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *App) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	analysis, err := a.dashboard.Analysis(r.Context(), key)
	if err != nil {
		http.Error(w, errors.PublicMessage(err), errors.HTTPStatus(err))
		return
	}
	a.renderTemplate(w, "analysis.html", map[string]interface{}{
		"Title":    analysis.ProjectName + " analysis",
		"Key":      key,
		"Analysis": analysis,
		"Report":   renderMarkdown(analysis.Markdown()),
	})
}

func (a *App) handleAnalysisJSON(w http.ResponseWriter, r *http.Request) {
	analysis, err := a.dashboard.Analysis(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		a.writeJSONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"source":    a.dashboard.SourceName(),
		"timestamp": time.Now().UTC(),
	})
}

func (a *App) writeJSONError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("[App] %v", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   errors.GetCode(err),
		"message": errors.PublicMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
