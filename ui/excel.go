package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// handleExport downloads the current filtered view as a workbook
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := a.dashboard.View(r.Context(), viewRequestFromQuery(r.URL.Query()))
	if err != nil {
		a.writeJSONError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := a.exporter.WriteView(&buf, view); err != nil {
		a.log.Error("[Export] failed to build workbook: %v", err)
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("pipeline-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		a.log.Warn("[Export] writing workbook: %v", err)
	}
	a.log.Debug("[Export] sent %d rows", len(view.Rows))
}
