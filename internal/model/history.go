package model

import "sort"

// HistoryPoint 趋势图上的一个点：某次成绩及截至该成绩的累计加权平均
type HistoryPoint struct {
	Date           string  `json:"date"`
	Value          float64 `json:"value"`
	Type           string  `json:"type"`
	Weight         float64 `json:"weight"`
	RunningAverage float64 `json:"runningAverage"`
}

// SubjectSummary 科目统计摘要（德国计分制：数值越小越好）
type SubjectSummary struct {
	Count   int     `json:"count"`
	Best    float64 `json:"best"`
	Worst   float64 `json:"worst"`
	Average float64 `json:"average"`
}

// History 按日期排序（稳定排序，同日期保持录入顺序）并计算累计加权平均
func History(grades []Grade) []HistoryPoint {
	sorted := make([]Grade, len(grades))
	copy(sorted, grades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	points := make([]HistoryPoint, 0, len(sorted))
	var sum, weights float64
	for _, g := range sorted {
		w := g.EffectiveWeight()
		sum += g.Value * w
		weights += w

		running := 0.0
		if weights != 0 {
			running = Round2(sum / weights)
		}
		points = append(points, HistoryPoint{
			Date:           g.Date,
			Value:          g.Value,
			Type:           g.Type,
			Weight:         w,
			RunningAverage: running,
		})
	}
	return points
}

// Summarize 计算科目统计摘要；无成绩时返回零值
func Summarize(grades []Grade) SubjectSummary {
	if len(grades) == 0 {
		return SubjectSummary{}
	}

	summary := SubjectSummary{
		Count:   len(grades),
		Best:    grades[0].Value,
		Worst:   grades[0].Value,
		Average: ComputeAverage(grades),
	}
	for _, g := range grades[1:] {
		if g.Value < summary.Best {
			summary.Best = g.Value
		}
		if g.Value > summary.Worst {
			summary.Worst = g.Value
		}
	}
	return summary
}
