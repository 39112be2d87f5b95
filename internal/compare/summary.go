package compare

// 报告中每个分类保留的代表性文本数量和截断长度
const (
	maxReportTexts    = 5
	reportTextMaxLen  = 200
	reportEllipsisLen = 3
)

// Summarize 对整个文档对的所有语义配对做统计
// 纯函数，无I/O，输入相同则输出相同
func Summarize(diffs []SemanticDiff) Summary {
	var s Summary
	for _, diff := range diffs {
		for _, m := range diff.Matches {
			s.TotalMatches++
			switch m.DiffType {
			case DiffHighSimilarity:
				s.HighSimilarity++
			case DiffPartialMatch:
				s.PartialMatches++
			case DiffUniqueToSource:
				s.UniqueToSource++
			case DiffOmission:
				s.Omissions++
			case DiffConflict:
				s.Conflicts++
			}
		}
	}
	return s
}

// GroupBySection 按章节分组生成代表性文本报告
// advantages收集源独有内容，gaps收集缺失内容，conflicts收集冲突内容，
// 每类最多保留maxReportTexts条，超长文本截断。
// 三类都为空的章节不出现在结果中
func GroupBySection(diffs []SemanticDiff) []SectionReport {
	var reports []SectionReport

	for _, diff := range diffs {
		report := SectionReport{SectionTitle: diff.SectionTitle}

		for _, m := range diff.Matches {
			switch m.DiffType {
			case DiffUniqueToSource:
				if m.Source != nil {
					report.Advantages = appendReportText(report.Advantages, m.Source.Text)
				}
			case DiffOmission:
				if m.Target != nil {
					report.Gaps = appendReportText(report.Gaps, m.Target.Text)
				}
			case DiffConflict:
				if m.Target != nil {
					report.Conflicts = appendReportText(report.Conflicts, m.Target.Text)
				}
			case DiffHighSimilarity, DiffPartialMatch:
				// 匹配内容不进入报告
			}
		}

		if len(report.Advantages) > 0 || len(report.Gaps) > 0 || len(report.Conflicts) > 0 {
			reports = append(reports, report)
		}
	}

	return reports
}

// appendReportText 追加一条代表性文本，带数量上限和长度截断
func appendReportText(texts []string, text string) []string {
	if len(texts) >= maxReportTexts {
		return texts
	}
	return append(texts, truncateText(text, reportTextMaxLen))
}

// truncateText 按rune截断文本，超长时以省略号结尾
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-reportEllipsisLen]) + "..."
}
