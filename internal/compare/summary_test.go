package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentOf(text string, diffType DiffType) *SemanticSegment {
	return &SemanticSegment{Text: text, StartOffset: 0, EndOffset: len(text), DiffType: diffType}
}

func matchOf(diffType DiffType, sourceText, targetText string) SemanticMatch {
	m := SemanticMatch{DiffType: diffType}
	if sourceText != "" {
		m.Source = segmentOf(sourceText, diffType)
	}
	if targetText != "" {
		m.Target = segmentOf(targetText, diffType)
	}
	return m
}

// TestSummarize 测试文档级统计
func TestSummarize(t *testing.T) {
	diffs := []SemanticDiff{
		{
			SectionKey: "indications",
			Matches: []SemanticMatch{
				matchOf(DiffHighSimilarity, "a", "a'"),
				matchOf(DiffPartialMatch, "b", "b'"),
				matchOf(DiffUniqueToSource, "c", ""),
			},
		},
		{
			SectionKey: "dosage",
			Matches: []SemanticMatch{
				matchOf(DiffOmission, "", "d"),
				matchOf(DiffConflict, "e", "e'"),
				matchOf(DiffHighSimilarity, "f", "f'"),
			},
		},
	}

	s := Summarize(diffs)
	assert.Equal(t, 6, s.TotalMatches)
	assert.Equal(t, 2, s.HighSimilarity)
	assert.Equal(t, 1, s.PartialMatches)
	assert.Equal(t, 1, s.UniqueToSource)
	assert.Equal(t, 1, s.Omissions)
	assert.Equal(t, 1, s.Conflicts)
}

// TestSummarizeEmpty 测试空输入的统计
func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)

	s = Summarize([]SemanticDiff{{SectionKey: "empty"}})
	assert.Equal(t, Summary{}, s)
}

// TestGroupBySection 测试按章节分组的报告
func TestGroupBySection(t *testing.T) {
	diffs := []SemanticDiff{
		{
			SectionKey:   "warnings",
			SectionTitle: "Warnings and Precautions",
			Matches: []SemanticMatch{
				matchOf(DiffUniqueToSource, "Our label covers renal impairment.", ""),
				matchOf(DiffOmission, "", "Competitor covers hepatic dosing."),
				matchOf(DiffConflict, "Max dose 10 mg.", "Max dose 20 mg."),
				matchOf(DiffHighSimilarity, "Shared warning.", "Shared warning."),
			},
		},
		{
			SectionKey:   "storage",
			SectionTitle: "Storage",
			Matches: []SemanticMatch{
				matchOf(DiffHighSimilarity, "Store at room temperature.", "Store at room temperature."),
			},
		},
	}

	reports := GroupBySection(diffs)

	// 只有匹配内容的章节不出现在报告中
	require.Len(t, reports, 1)
	report := reports[0]
	assert.Equal(t, "Warnings and Precautions", report.SectionTitle)
	assert.Equal(t, []string{"Our label covers renal impairment."}, report.Advantages)
	assert.Equal(t, []string{"Competitor covers hepatic dosing."}, report.Gaps)
	// 冲突取目标侧文本
	assert.Equal(t, []string{"Max dose 20 mg."}, report.Conflicts)
}

// TestGroupBySectionLimits 测试数量上限和长度截断
func TestGroupBySectionLimits(t *testing.T) {
	var matches []SemanticMatch
	for i := 0; i < 8; i++ {
		matches = append(matches, matchOf(DiffUniqueToSource, "unique sentence", ""))
	}
	longText := strings.Repeat("x", 300)
	matches = append(matches, matchOf(DiffOmission, "", longText))

	reports := GroupBySection([]SemanticDiff{
		{SectionKey: "dosage", SectionTitle: "Dosage", Matches: matches},
	})

	require.Len(t, reports, 1)
	assert.Len(t, reports[0].Advantages, 5, "at most five texts per category")

	require.Len(t, reports[0].Gaps, 1)
	gap := reports[0].Gaps[0]
	assert.Len(t, []rune(gap), 200)
	assert.True(t, strings.HasSuffix(gap, "..."))
}
