package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/internal/service"
	"github.com/Nefnief-tech/gardes-v2/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	prefs     SyncPreferenceSource // 可为 nil
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, prefs SyncPreferenceSource) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, prefs: prefs}
}

// ExportWorkbook 导出成绩 Excel
// GET /api/v1/export/grades.xlsx?sync=true
func (h *ExportHandler) ExportWorkbook(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportWorkbook(c.Request.Context(), opts)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出成绩日历
// GET /api/v1/export/grades.ics?sync=true
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), opts)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, icsContentType, data)
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoGrades):
		response.NotFound(c, 16101, "暂无成绩可导出")
	default:
		response.InternalError(c)
	}
}
