package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
	apperrors "github.com/Nefnief-tech/gardes-v2/pkg/errors"
)

var (
	ErrSubjectNotFound  = fmt.Errorf("%w: 科目不存在", apperrors.ErrNotFound)
	ErrGradeNotFound    = fmt.Errorf("%w: 成绩不存在", apperrors.ErrNotFound)
	ErrDuplicateSubject = fmt.Errorf("%w: 同名科目已存在", apperrors.ErrDuplicateID)
	ErrSubjectNameEmpty = errors.New("科目名称不能为空")
)

// MutationResult 修改类操作的结果：修改后的科目与本次写入的同步结果
type MutationResult struct {
	Subject *model.Subject
	Sync    SyncResult
}

// HistoryResult 单科目成绩趋势
type HistoryResult struct {
	Subject model.Subject
	Points  []model.HistoryPoint
	Summary model.SubjectSummary
}

// GradeService 科目与成绩操作
// 每个操作都是对整个集合的读-改-写，不与外部并发写入互斥
type GradeService interface {
	ListSubjects(ctx context.Context, opts SyncOptions) *LoadResult
	AddGrade(ctx context.Context, subjectID string, grade model.Grade, opts SyncOptions) (*MutationResult, error)
	DeleteGrade(ctx context.Context, subjectID string, index int, opts SyncOptions) (*MutationResult, error)
	AddSubject(ctx context.Context, name string, opts SyncOptions) (*MutationResult, error)
	History(ctx context.Context, subjectID string, opts SyncOptions) (*HistoryResult, error)
}

type gradeService struct {
	sync   SyncService
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(sync SyncService, logger *zap.Logger) GradeService {
	return &gradeService{
		sync:   sync,
		logger: logger,
	}
}

func (s *gradeService) ListSubjects(ctx context.Context, opts SyncOptions) *LoadResult {
	result := s.sync.Load(ctx, opts)
	result.Subjects = model.EnsureAllSubjectsExist(result.Subjects)
	return result
}

func (s *gradeService) AddGrade(ctx context.Context, subjectID string, grade model.Grade, opts SyncOptions) (*MutationResult, error) {
	subjects := s.sync.Load(ctx, opts).Subjects

	idx := model.FindSubject(subjects, subjectID)
	if idx < 0 {
		return nil, ErrSubjectNotFound
	}

	if grade.Weight == nil {
		grade.Weight = model.Float64Ptr(model.DefaultWeight(grade.Type))
	}

	subject := &subjects[idx]
	subject.Grades = append(subject.Grades, grade)
	model.RecalculateAverage(subject)

	return s.persist(ctx, subjects, idx, opts)
}

func (s *gradeService) DeleteGrade(ctx context.Context, subjectID string, index int, opts SyncOptions) (*MutationResult, error) {
	subjects := s.sync.Load(ctx, opts).Subjects

	idx := model.FindSubject(subjects, subjectID)
	if idx < 0 {
		return nil, ErrSubjectNotFound
	}

	subject := &subjects[idx]
	if len(subject.Grades) == 0 {
		// 空列表：不写入，视为成功
		return &MutationResult{Subject: subject, Sync: SyncResult{LocalOK: true}}, nil
	}
	if index < 0 || index >= len(subject.Grades) {
		return nil, ErrGradeNotFound
	}

	subject.Grades = append(subject.Grades[:index], subject.Grades[index+1:]...)
	model.RecalculateAverage(subject)

	return s.persist(ctx, subjects, idx, opts)
}

func (s *gradeService) AddSubject(ctx context.Context, name string, opts SyncOptions) (*MutationResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSubjectNameEmpty
	}

	subjects := s.sync.Load(ctx, opts).Subjects

	id := model.SubjectIDFromName(name)
	if model.FindSubject(subjects, id) >= 0 {
		return nil, ErrDuplicateSubject
	}

	subjects = append(subjects, model.Subject{ID: id, Name: name, Grades: []model.Grade{}})

	return s.persist(ctx, subjects, len(subjects)-1, opts)
}

func (s *gradeService) History(ctx context.Context, subjectID string, opts SyncOptions) (*HistoryResult, error) {
	subjects := s.sync.Load(ctx, opts).Subjects

	idx := model.FindSubject(subjects, subjectID)
	if idx < 0 {
		return nil, ErrSubjectNotFound
	}

	subject := subjects[idx]
	return &HistoryResult{
		Subject: subject,
		Points:  model.History(subject.Grades),
		Summary: model.Summarize(subject.Grades),
	}, nil
}

// persist 写回整个集合，返回下标 idx 处的科目
func (s *gradeService) persist(ctx context.Context, subjects []model.Subject, idx int, opts SyncOptions) (*MutationResult, error) {
	result, err := s.sync.Save(ctx, subjects, opts)
	if err != nil {
		s.logger.Error("保存科目集合失败", zap.Error(err))
		return nil, err
	}

	subject := subjects[idx]
	return &MutationResult{Subject: &subject, Sync: result}, nil
}
