package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/questworld/questbot/internal/handler/webhook"
	"github.com/questworld/questbot/internal/service/tracker"
	"github.com/questworld/questbot/pkg/utils"
)

// NewRouter wires HTTP routes to core services. Recoverer is the process
// error boundary: one chat's bad update must never take down handling for
// the rest.
func NewRouter(trackerSvc *tracker.Service, displayField string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	webhookHandler := webhook.New(trackerSvc, displayField)
	webhookHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
