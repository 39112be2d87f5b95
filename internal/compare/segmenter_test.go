package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSpanFidelity 校验句子span精确指向原文内容
func assertSpanFidelity(t *testing.T, text string, sentences []Sentence) {
	t.Helper()
	prev := 0
	for _, s := range sentences {
		assert.Equal(t, text[s.StartOffset:s.EndOffset], s.Text, "span must match original text")
		assert.GreaterOrEqual(t, s.StartOffset, prev, "spans must be ordered and non-overlapping")
		prev = s.EndOffset
	}
}

// TestSegmentBasic 测试基本的句子切分
func TestSegmentBasic(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	text := "This is the first sentence. This is the second one! Is this the third?"
	sentences := segmenter.Segment(text)

	require.Len(t, sentences, 3)
	assert.Equal(t, "This is the first sentence.", sentences[0].Text)
	assert.Equal(t, "This is the second one!", sentences[1].Text)
	assert.Equal(t, "Is this the third?", sentences[2].Text)
	assertSpanFidelity(t, text, sentences)
}

// TestSegmentEmpty 测试空文本和纯空白文本
func TestSegmentEmpty(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	assert.Empty(t, segmenter.Segment(""))
	assert.Empty(t, segmenter.Segment("   \n\t  "))
}

// TestSegmentAbbreviations 测试缩写不触发切分
func TestSegmentAbbreviations(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	// "Dr."后不切分
	text := "Dr. Smith reviewed the label. The review was approved."
	sentences := segmenter.Segment(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Dr. Smith reviewed the label.", sentences[0].Text)

	// 计量单位缩写后跟大写也不切分
	text = "Take 10 mg. Do not exceed the dose."
	sentences = segmenter.Segment(text)
	require.Len(t, sentences, 1)
	assert.Equal(t, text, sentences[0].Text)

	// 引用缩写后跟数字不切分
	text = "See Fig. 3 for details."
	sentences = segmenter.Segment(text)
	require.Len(t, sentences, 1)
}

// TestSegmentDecimals 测试小数点不触发切分
func TestSegmentDecimals(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	text := "The recommended dose is 2.5 tablets daily. Adjust as needed."
	sentences := segmenter.Segment(text)

	require.Len(t, sentences, 2)
	assert.Equal(t, "The recommended dose is 2.5 tablets daily.", sentences[0].Text)
	assertSpanFidelity(t, text, sentences)
}

// TestSegmentTrailingWithoutTerminator 测试末尾无终止符的句子
func TestSegmentTrailingWithoutTerminator(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	text := "First sentence here. Trailing fragment without a period"
	sentences := segmenter.Segment(text)

	require.Len(t, sentences, 2)
	assert.Equal(t, "Trailing fragment without a period", sentences[1].Text)
	assertSpanFidelity(t, text, sentences)

	// 末尾带空白时span不包含空白
	text = "Only a fragment   \n"
	sentences = segmenter.Segment(text)
	require.Len(t, sentences, 1)
	assert.Equal(t, "Only a fragment", sentences[0].Text)
}

// TestSegmentLeadingWhitespace 测试句首空白不计入span
func TestSegmentLeadingWhitespace(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	text := "  Indented sentence. \n Second line sentence."
	sentences := segmenter.Segment(text)

	require.Len(t, sentences, 2)
	assert.Equal(t, "Indented sentence.", sentences[0].Text)
	assert.Equal(t, 2, sentences[0].StartOffset)
	assert.Equal(t, "Second line sentence.", sentences[1].Text)
	assertSpanFidelity(t, text, sentences)
}

// TestSegmentCustomAbbreviations 测试自定义缩写表
func TestSegmentCustomAbbreviations(t *testing.T) {
	segmenter := NewSentenceSegmenterWithAbbreviations([]string{"approx"})

	// 自定义表中没有"Dr"，会被切开
	text := "Dr. Smith arrived."
	sentences := segmenter.Segment(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Dr.", sentences[0].Text)

	text = "It takes approx. Two hours."
	sentences = segmenter.Segment(text)
	require.Len(t, sentences, 1)
}

// TestSegmentNumberedList 测试编号后跟数字大写的边界
func TestSegmentNumberedList(t *testing.T) {
	segmenter := NewSentenceSegmenter()

	// 终止符后跟数字视为新句子的开头
	text := "Stop use immediately. 2 weeks later resume."
	sentences := segmenter.Segment(text)
	require.Len(t, sentences, 2)
	assert.Equal(t, "2 weeks later resume.", sentences[1].Text)
}
