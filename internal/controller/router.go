package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)

		r.Get("/ws/party/{room-id}", c.party)

		r.Route("/proxy", func(r chi.Router) {
			r.Get("/video", c.proxyVideo)
			r.Head("/video", c.proxyVideo)
			r.Get("/subtitle", c.proxySubtitle)
		})

		r.Get("/iplog/{ip}", c.ipLog)
	})

	return r
}
