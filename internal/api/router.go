package api

import (
	_ "go-energy-dashboard/docs"
	"go-energy-dashboard/internal/api/handler"
	"go-energy-dashboard/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/sessions", h.CreateSession)
	r.GET("/api/v1/sessions", h.ListSessions)
	// More specific routes first
	r.GET("/api/v1/sessions/*/errors", h.GetSessionErrors)
	r.GET("/api/v1/sessions/*/data", h.GetData)
	r.GET("/api/v1/sessions/*/grid", h.GetGrid)
	r.GET("/api/v1/sessions/*/download", h.Download)
	r.GET("/api/v1/sessions/*/chart", h.GetChart)
	// Generic session routes last
	r.GET("/api/v1/sessions/*", h.GetSession)
	r.DELETE("/api/v1/sessions/*", h.DeleteSession)

	r.GET("/swagger/**", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")).ServeHTTP)
}
