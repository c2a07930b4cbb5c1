package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/pvolek/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	statusHandler := handlers.NewStatusHandler(deps.Loader, deps.Matcher, deps.Registry, deps.Monitor)
	identifyHandler := handlers.NewIdentifyHandler(deps.Pipeline)
	peopleHandler := handlers.NewPeopleHandler(deps.Registry, deps.Suggest, deps.Store, deps.Pipeline)
	eventsHandler := handlers.NewEventsHandler(deps.History, deps.Events)

	s.router.Get("/healthz", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)

		r.Post("/identify", identifyHandler.Identify)

		r.Get("/people", peopleHandler.List)
		r.Post("/people", peopleHandler.Create)
		r.Get("/people/{id}", peopleHandler.Get)
		r.Delete("/people/{id}", peopleHandler.Delete)
		r.Post("/people/{id}/samples", peopleHandler.AddSample)
		r.Delete("/people/{id}/samples/{index}", peopleHandler.RemoveSample)
		r.Get("/people/{id}/similar", peopleHandler.Similar)

		r.Get("/events", eventsHandler.List)
		r.Get("/events/stream", eventsHandler.Stream)
	})
}
