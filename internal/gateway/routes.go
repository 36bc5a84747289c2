package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/security"
)

// RegisterRoutes mounts the Unified Gateway's API (spec §4.1, §6): the
// two token-issuance endpoints and health run the public chain (no
// Bearer token required — they authenticate by api_key or not at
// all), everything else runs the protected chain and additionally
// requires a Frontend-kind Principal (spec §4.1's table: "Auth:
// Frontend" on every cross-location and proxy endpoint).
func RegisterRoutes(router gin.IRouter, h *Handlers, publicChain, protectedChain []gin.HandlerFunc) {
	public := router.Group("/")
	public.Use(publicChain...)
	public.POST("/auth/frontend/token", h.FrontendToken)
	public.POST("/auth/place/token", h.PlaceToken)
	public.GET("/health", h.Health)

	frontend := router.Group("/")
	frontend.Use(protectedChain...)
	frontend.Use(security.RequireKind(entities.KindFrontend))
	frontend.GET("/places", h.Places)
	frontend.GET("/devices/all", h.AllDevices)
	frontend.GET("/users/all", h.AllUsers)
	frontend.GET("/attendance/all", h.AllAttendance)
	frontend.GET("/summary/all", h.AllSummary)
	frontend.GET("/place/:id/*path", h.Place)
	frontend.GET("/device/:name/*path", h.Device)
}
