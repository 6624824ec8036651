package model

import (
	"math"
	"strings"
)

// TestGradeType 权重为 2 的成绩类型，其余类型默认权重为 1
const TestGradeType = "Test"

const (
	testWeight    = 2.0
	defaultWeight = 1.0
)

// Grade 单次成绩记录（德国计分制 1.0 最好，6.0 最差）
// Weight 在旧数据中可能缺失，经过一次读取迁移后总是显式存在
type Grade struct {
	Value  float64  `json:"value"`
	Type   string   `json:"type"`
	Weight *float64 `json:"weight,omitempty"`
	Date   string   `json:"date"` // YYYY-MM-DD，字典序即时间序
}

// Subject 科目
// Grades 按录入顺序保存，不保证按日期排序；AverageGrade 为缓存字段，每次修改 Grades 后必须重算
type Subject struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Grades       []Grade  `json:"grades"`
	AverageGrade *float64 `json:"averageGrade,omitempty"`
}

// DefaultWeight 根据成绩类型返回默认权重
func DefaultWeight(gradeType string) float64 {
	if gradeType == TestGradeType {
		return testWeight
	}
	return defaultWeight
}

// EffectiveWeight 返回成绩参与计算的权重，缺失时按 1.0 处理（与迁移逻辑无关）
func (g Grade) EffectiveWeight() float64 {
	if g.Weight == nil {
		return defaultWeight
	}
	return *g.Weight
}

// ComputeAverage 计算加权平均分，保留两位小数；空序列返回 0
func ComputeAverage(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}

	var sum, weights float64
	for _, g := range grades {
		w := g.EffectiveWeight()
		sum += g.Value * w
		weights += w
	}
	if weights == 0 {
		return 0
	}

	return Round2(sum / weights)
}

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RecalculateAverage 重算科目的平均分缓存；无成绩时清空该字段
func RecalculateAverage(s *Subject) {
	if len(s.Grades) == 0 {
		s.AverageGrade = nil
		return
	}
	avg := ComputeAverage(s.Grades)
	s.AverageGrade = &avg
}

// SubjectIDFromName 由科目名派生 ID：去首尾空白、转小写、连续空白替换为单个连字符
func SubjectIDFromName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// ── 默认科目 ──

var defaultSubjects = []struct {
	id   string
	name string
}{
	{"math", "Mathematik"},
	{"german", "Deutsch"},
	{"english", "Englisch"},
	{"science", "Naturwissenschaften"},
	{"history", "Geschichte"},
}

// DefaultSubjects 返回五个默认科目（每次返回新切片）
func DefaultSubjects() []Subject {
	out := make([]Subject, 0, len(defaultSubjects))
	for _, d := range defaultSubjects {
		out = append(out, Subject{ID: d.id, Name: d.name, Grades: []Grade{}})
	}
	return out
}

// EnsureAllSubjectsExist 补齐缺失的默认科目，幂等
func EnsureAllSubjectsExist(subjects []Subject) []Subject {
	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		seen[s.ID] = true
	}

	out := make([]Subject, len(subjects), len(subjects)+len(defaultSubjects))
	copy(out, subjects)
	for _, d := range DefaultSubjects() {
		if !seen[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// FindSubject 按 ID 查找科目下标，不存在返回 -1
func FindSubject(subjects []Subject, id string) int {
	for i := range subjects {
		if subjects[i].ID == id {
			return i
		}
	}
	return -1
}

// ValidateSubjects 判断集合是否结构完整：每个科目须有 ID 与名称
func ValidateSubjects(subjects []Subject) bool {
	for _, s := range subjects {
		if s.ID == "" || strings.TrimSpace(s.Name) == "" {
			return false
		}
	}
	return true
}

// Float64Ptr 返回指向 v 的指针
func Float64Ptr(v float64) *float64 {
	return &v
}
