package site

import (
	"net/http"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Placeholders used by the history view.
const (
	MsgLoadingHistory = "Loading history..."
	MsgNoHistory      = "No analysis history available."
)

type historyBody struct {
	Loaded  bool
	Entries []model.HistoryEntry
}

func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := rt.deps.FetchHistory(ctx)
	if err != nil {
		rt.log.Error(ctx, "fetching history failed", logger.Error(err))
		metrics.RecordErrorByComponent("site", "history")
		rt.render(w, r, route.History, http.StatusOK, "loading", page{
			Title: "Analysis History",
			Body:  historyBody{},
		})
		return
	}

	state := "ready"
	if len(entries) == 0 {
		state = "empty"
	}
	rt.render(w, r, route.History, http.StatusOK, state, page{
		Title: "Analysis History",
		Body:  historyBody{Loaded: true, Entries: entries},
	})
}
