package model

// MigrateSubjects 读取迁移：为缺失权重的成绩补齐默认权重，并重算每个科目的平均分
// grades 为 null 的旧数据统一为空数组
// 返回深拷贝，不修改入参；对已迁移数据再次执行结果不变
func MigrateSubjects(subjects []Subject) []Subject {
	out := CloneSubjects(subjects)
	for i := range out {
		if out[i].Grades == nil {
			out[i].Grades = []Grade{}
		}
		for j := range out[i].Grades {
			if out[i].Grades[j].Weight == nil {
				out[i].Grades[j].Weight = Float64Ptr(DefaultWeight(out[i].Grades[j].Type))
			}
		}
		RecalculateAverage(&out[i])
	}
	return out
}

// CloneSubjects 深拷贝科目集合（含成绩与指针字段）
func CloneSubjects(subjects []Subject) []Subject {
	if subjects == nil {
		return nil
	}
	out := make([]Subject, len(subjects))
	for i, s := range subjects {
		out[i] = s
		if s.AverageGrade != nil {
			out[i].AverageGrade = Float64Ptr(*s.AverageGrade)
		}
		if s.Grades != nil {
			out[i].Grades = make([]Grade, len(s.Grades))
			for j, g := range s.Grades {
				out[i].Grades[j] = g
				if g.Weight != nil {
					out[i].Grades[j].Weight = Float64Ptr(*g.Weight)
				}
			}
		}
	}
	return out
}
