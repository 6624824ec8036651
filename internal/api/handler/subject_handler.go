package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nefnief-tech/gardes-v2/internal/api/middleware"
	"github.com/Nefnief-tech/gardes-v2/internal/dto"
	"github.com/Nefnief-tech/gardes-v2/internal/model"
	"github.com/Nefnief-tech/gardes-v2/internal/service"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
	"github.com/Nefnief-tech/gardes-v2/pkg/response"
)

// SubjectHandler 科目/成绩 HTTP 处理器
type SubjectHandler struct {
	gradeSvc service.GradeService
	prefs    SyncPreferenceSource // 可为 nil
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(gradeSvc service.GradeService, prefs SyncPreferenceSource) *SubjectHandler {
	return &SubjectHandler{gradeSvc: gradeSvc, prefs: prefs}
}

// ListSubjects 获取科目集合（缺失的默认科目会被补齐）
// GET /api/v1/subjects?sync=true
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	result := h.gradeSvc.ListSubjects(c.Request.Context(), opts)
	response.OK(c, dto.SubjectListResponse{
		Subjects: result.Subjects,
		Source:   string(result.Source),
	})
}

// AddSubject 新增科目
// POST /api/v1/subjects
func (h *SubjectHandler) AddSubject(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	var req dto.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.gradeSvc.AddSubject(c.Request.Context(), req.Name, opts)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, dto.MutationResponse{Subject: result.Subject, Sync: toSyncStatus(result.Sync)})
}

// AddGrade 为科目新增成绩
// POST /api/v1/subjects/:id/grades
func (h *SubjectHandler) AddGrade(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	var req dto.AddGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	grade := model.Grade{
		Value:  req.Value,
		Type:   req.Type,
		Weight: req.Weight,
		Date:   req.Date,
	}
	result, err := h.gradeSvc.AddGrade(c.Request.Context(), c.Param("id"), grade, opts)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, dto.MutationResponse{Subject: result.Subject, Sync: toSyncStatus(result.Sync)})
}

// DeleteGrade 按录入位置删除成绩
// DELETE /api/v1/subjects/:id/grades/:index
func (h *SubjectHandler) DeleteGrade(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, 10001, "index 必须为整数")
		return
	}

	result, err := h.gradeSvc.DeleteGrade(c.Request.Context(), c.Param("id"), index, opts)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, dto.MutationResponse{Subject: result.Subject, Sync: toSyncStatus(result.Sync)})
}

// GetHistory 获取科目成绩趋势
// GET /api/v1/subjects/:id/history
func (h *SubjectHandler) GetHistory(c *gin.Context) {
	opts, ok := syncOptions(c, h.prefs)
	if !ok {
		return
	}

	result, err := h.gradeSvc.History(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, dto.HistoryResponse{
		SubjectID:    result.Subject.ID,
		Name:         result.Subject.Name,
		AverageGrade: result.Subject.AverageGrade,
		Points:       result.Points,
		Summary:      result.Summary,
	})
}

func (h *SubjectHandler) handleBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		middleware.RejectBodyTooLarge(c)
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 13001, "科目不存在")
	case errors.Is(err, service.ErrGradeNotFound):
		response.NotFound(c, 13002, "成绩不存在")
	case errors.Is(err, service.ErrDuplicateSubject):
		response.Conflict(c, 13003, "同名科目已存在")
	case errors.Is(err, service.ErrSubjectNameEmpty):
		response.BadRequest(c, 13004, "科目名称不能为空")
	case errors.Is(err, apperrors.ErrSerialization):
		response.Error(c, http.StatusInternalServerError, 13005, "本地保存失败")
	default:
		response.InternalError(c)
	}
}
