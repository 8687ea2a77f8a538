package api

import (
	"github.com/gin-gonic/gin"

	"github.com/houzhh15/resumedit/cmd/server/internal/middleware"
)

// RegisterEditRoutes 注册 diff/edit/history 路由
// diff 与 edit 受并发限制，所有请求体大小受 maxBodyBytes 限制
func RegisterEditRoutes(r gin.IRouter, h *EditHandler, limiter *middleware.ConcurrencyLimiter, maxBodyBytes int64) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(maxBodyBytes))

	limited := v1.Group("")
	limited.Use(limiter.Middleware())
	limited.POST("/diff", h.HandleDiff)
	limited.POST("/edit", h.HandleEdit)

	v1.GET("/edit/history/:section_id", h.HandleGetHistory)
	v1.DELETE("/edit/history/:section_id", h.HandleClearSectionHistory)
	v1.DELETE("/edit/history", h.HandleClearAllHistory)
	v1.POST("/edit/restore/:change_id", h.HandleRestore)
}
