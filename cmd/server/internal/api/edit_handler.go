package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/resumedit/cmd/server/internal/history"
	"github.com/houzhh15/resumedit/cmd/server/internal/services"
)

// DiffRequest 差异预览请求，未设置的选项使用服务端默认值
type DiffRequest struct {
	Original         string `json:"original"`
	Current          string `json:"current"`
	Mode             string `json:"mode,omitempty"` // markup (默认) 或 text
	IgnoreWhitespace *bool  `json:"ignoreWhitespace,omitempty"`
	IgnoreCase       *bool  `json:"ignoreCase,omitempty"`
}

// EditHandler 章节编辑与历史 API 处理器
type EditHandler struct {
	service *services.EditService
}

// NewEditHandler 创建EditHandler实例
func NewEditHandler(service *services.EditService) *EditHandler {
	return &EditHandler{service: service}
}

// HandleDiff 计算差异预览
// POST /api/v1/diff
func (h *EditHandler) HandleDiff(c *gin.Context) {
	var req DiffRequest
	if !bindJSON(c, &req) {
		return
	}

	opts := h.service.DefaultOptions()
	if req.IgnoreWhitespace != nil {
		opts.IgnoreWhitespace = *req.IgnoreWhitespace
	}
	if req.IgnoreCase != nil {
		opts.IgnoreCase = *req.IgnoreCase
	}

	switch req.Mode {
	case "", "markup":
		successResponse(c, h.service.Preview(req.Original, req.Current, opts))
	case "text":
		successResponse(c, h.service.PreviewText(req.Original, req.Current, opts))
	default:
		badRequestResponse(c, "invalid mode "+strconv.Quote(req.Mode)+" (must be: markup, text)")
	}
}

// HandleEdit 记录一次 accept/reject/restore 操作
// POST /api/v1/edit
func (h *EditHandler) HandleEdit(c *gin.Context) {
	var req services.EditRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := services.WithOperator(c.Request.Context(), currentOperator(c))
	resp, err := h.service.ApplyEdit(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			badRequestResponse(c, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to process edit: "+err.Error())
		return
	}
	successResponse(c, resp)
}

// HandleGetHistory 获取章节的最近变更，按时间倒序
// GET /api/v1/edit/history/:section_id?limit=N
func (h *EditHandler) HandleGetHistory(c *gin.Context) {
	sectionID := c.Param("section_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequestResponse(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	view, _ := h.service.History(sectionID, limit)
	successResponse(c, view)
}

// HandleRestore 恢复到指定变更的内容
// POST /api/v1/edit/restore/:change_id
func (h *EditHandler) HandleRestore(c *gin.Context) {
	changeID := c.Param("change_id")

	ctx := services.WithOperator(c.Request.Context(), currentOperator(c))
	resp, err := h.service.Restore(ctx, changeID)
	if err != nil {
		if errors.Is(err, history.ErrChangeNotFound) {
			notFoundResponse(c, "change "+changeID)
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to restore change: "+err.Error())
		return
	}
	successResponse(c, resp)
}

// HandleClearSectionHistory 清空单个章节历史
// DELETE /api/v1/edit/history/:section_id
func (h *EditHandler) HandleClearSectionHistory(c *gin.Context) {
	sectionID := c.Param("section_id")
	h.service.ClearSection(services.WithOperator(c.Request.Context(), currentOperator(c)), sectionID)
	successResponse(c, gin.H{"success": true, "sectionId": sectionID})
}

// HandleClearAllHistory 清空全部历史
// DELETE /api/v1/edit/history
func (h *EditHandler) HandleClearAllHistory(c *gin.Context) {
	h.service.ClearAll(services.WithOperator(c.Request.Context(), currentOperator(c)))
	successResponse(c, gin.H{"success": true})
}
