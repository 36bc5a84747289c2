package locationservice

import (
	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/pkg/security"
)

// RegisterRoutes mounts the Location Service's API (spec §4.2, §6)
// under router, with the shared security chain applied to every
// protected group and a separate, auth-exempt group for token
// issuance and health.
func RegisterRoutes(router gin.IRouter, h *Handlers, publicChain, protectedChain []gin.HandlerFunc) {
	public := router.Group("/")
	public.Use(publicChain...)
	public.POST("/auth/token", h.IssueToken)
	public.GET("/health", h.Health)

	protected := router.Group("/")
	protected.Use(protectedChain...)
	protected.GET("/devices", h.ListDevices)
	protected.GET("/devices/:name/info", h.DeviceInfo)
	protected.GET("/users", h.GetUsers)
	protected.GET("/attendance", h.GetAttendance)
	protected.GET("/attendance/summary", h.GetSummary)
}
