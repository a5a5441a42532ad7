package api

import (
	"net/http"
)

//go:generate templ generate -f status.templ

func statusPageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := StatusPage(SnapshotToResponse(cfg.Requests.Snapshot()), cfg.Version)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := page.Render(r.Context(), w); err != nil {
			cfg.Logger.Error("failed to render status page", "error", err)
		}
	}
}
