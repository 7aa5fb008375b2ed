package site

import (
	"net/http"
	"strconv"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Placeholders and attachment name used by the results view.
const (
	MsgLoadingResults = "Loading results..."
	MsgNoMissing      = "No missing skills"
	MsgNoTypos        = "No typos found"
	ExportFilename    = "resume_analysis.pdf"
)

type resultsBody struct {
	Result *model.AnalysisResult
}

// results fetches the latest analysis on every visit. A failed fetch is
// logged and the page stays on its loading placeholder.
func (rt *Router) results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := rt.deps.FetchLatestResult(ctx)
	if err != nil {
		rt.log.Error(ctx, "fetching latest result failed", logger.Error(err))
		metrics.RecordErrorByComponent("site", "results")
		rt.render(w, r, route.Results, http.StatusOK, "loading", page{
			Title: "Analysis Results",
			Body:  resultsBody{},
		})
		return
	}
	rt.render(w, r, route.Results, http.StatusOK, "ready", page{
		Title: "Analysis Results",
		Body:  resultsBody{Result: &res},
	})
}

// exportPDF streams the backend's report as a download. Failures are only
// logged; the browser gets 204 and stays where it is.
func (rt *Router) exportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := rt.deps.ExportResultAsPDF(ctx)
	if err != nil {
		rt.log.Error(ctx, "pdf export failed", logger.Error(err))
		metrics.RecordPDFExport("failed", 0)
		metrics.RecordErrorByComponent("site", "export")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		rt.log.Warn(ctx, "pdf download interrupted", logger.Error(err))
		metrics.RecordPDFExport("interrupted", 0)
		return
	}
	metrics.RecordPDFExport("ok", len(data))
}
