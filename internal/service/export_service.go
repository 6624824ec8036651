package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Nefnief-tech/gardes-v2/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoGrades     = errors.New("暂无成绩可导出")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	overviewSheet = "概览"
	calendarProd  = "-//gardes//grades//DE"
	dateLayout    = "2006-01-02"
	maxSheetName  = 31
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 数据来源与科目列表一致（经 SyncService 读取，云端优先）
//   - Excel：概览 Sheet + 每个科目一个 Sheet（按日期排序的成绩与累计平均）
//   - iCalendar：每条成绩一个全天事件，UID 为 subjectId-index@gardes，重复导入不会产生重复事件
//   - 以字节形式返回，由 Handler 层设置 HTTP 响应头
type ExportService interface {
	ExportWorkbook(ctx context.Context, opts SyncOptions) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, opts SyncOptions) ([]byte, string, error)
}

type exportService struct {
	sync   SyncService
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(sync SyncService, logger *zap.Logger) ExportService {
	return &exportService{sync: sync, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportWorkbook 导出成绩为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "概览"：科目 | 成绩数 | 加权平均 | 最好 | 最差
//   - 每个科目一个 Sheet：日期 | 类型 | 成绩 | 权重 | 累计平均
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportWorkbook(ctx context.Context, opts SyncOptions) (*bytes.Buffer, string, error) {
	subjects := model.EnsureAllSubjectsExist(s.sync.Load(ctx, opts).Subjects)

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(overviewSheet)
	if err != nil {
		s.logger.Error("创建概览 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 概览
	writeHeader(f, overviewSheet, headerStyle, "科目", "成绩数", "加权平均", "最好", "最差")
	f.SetColWidth(overviewSheet, "A", "A", 24)
	f.SetColWidth(overviewSheet, "B", "E", 12)

	used := map[string]bool{overviewSheet: true}
	for i, subj := range subjects {
		row := i + 2
		summary := model.Summarize(subj.Grades)

		f.SetCellValue(overviewSheet, cell("A", row), subj.Name)
		f.SetCellValue(overviewSheet, cell("B", row), summary.Count)
		if summary.Count > 0 {
			f.SetCellValue(overviewSheet, cell("C", row), summary.Average)
			f.SetCellValue(overviewSheet, cell("D", row), summary.Best)
			f.SetCellValue(overviewSheet, cell("E", row), summary.Worst)
		} else {
			f.SetCellValue(overviewSheet, cell("C", row), "-")
		}

		// 科目明细
		name := uniqueSheetName(subj.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			s.logger.Error("创建科目 Sheet 失败", zap.String("subject", subj.ID), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		writeHeader(f, name, headerStyle, "日期", "类型", "成绩", "权重", "累计平均")
		f.SetColWidth(name, "A", "B", 14)
		f.SetColWidth(name, "C", "E", 10)

		for j, p := range model.History(subj.Grades) {
			r := j + 2
			f.SetCellValue(name, cell("A", r), p.Date)
			f.SetCellValue(name, cell("B", r), p.Type)
			f.SetCellValue(name, cell("C", r), p.Value)
			f.SetCellValue(name, cell("D", r), p.Weight)
			f.SetCellValue(name, cell("E", r), p.RunningAverage)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("noten_%s.xlsx", s.now().Format(dateLayout))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出成绩为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, opts SyncOptions) ([]byte, string, error) {
	subjects := s.sync.Load(ctx, opts).Subjects

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProd)
	cal.SetXWRCalName("Noten")

	stamp := s.now().UTC()
	count := 0
	for _, subj := range subjects {
		for i, g := range subj.Grades {
			day, err := time.Parse(dateLayout, g.Date)
			if err != nil {
				s.logger.Warn("成绩日期无法解析，跳过", zap.String("subject", subj.ID), zap.String("date", g.Date))
				continue
			}

			evt := cal.AddEvent(fmt.Sprintf("%s-%d@gardes", subj.ID, i))
			evt.SetDtStampTime(stamp)
			evt.SetAllDayStartAt(day)
			evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
			evt.SetSummary(fmt.Sprintf("%s: %s (%s)", subj.Name, formatGrade(g.Value), g.Type))
			evt.SetDescription(fmt.Sprintf("Gewichtung: %s", formatGrade(g.EffectiveWeight())))
			count++
		}
	}

	if count == 0 {
		return nil, "", ErrExportNoGrades
	}

	return []byte(cal.Serialize()), "noten.ics", nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, style int, titles ...string) {
	for i, title := range titles {
		f.SetCellValue(sheet, cell(colName(i), 1), title)
	}
	f.SetCellStyle(sheet, cell("A", 1), cell(colName(len(titles)-1), 1), style)
}

// uniqueSheetName 生成合法且不重复的 Sheet 名（去除非法字符，最长 31 字符）
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Fach"
	}

	candidate := truncateRunes(clean, maxSheetName)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatGrade(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
