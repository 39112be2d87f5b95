package compare

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripChanges 从文本中移除变更区间，得到两侧共有的等值部分
// 删除区间作用于源文本，新增区间作用于目标文本，
// 两侧剥离后的剩余文本必须完全一致
func stripChanges(text string, changes []TextChange) string {
	sorted := make([]TextChange, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartOffset < sorted[j].StartOffset
	})

	var sb strings.Builder
	prev := 0
	for _, c := range sorted {
		sb.WriteString(text[prev:c.StartOffset])
		prev = c.EndOffset
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// assertDiffContract 校验编辑脚本的区间划分契约
func assertDiffContract(t *testing.T, source, target string, deletions, additions []TextChange) {
	t.Helper()

	for _, d := range deletions {
		assert.Equal(t, ChangeDeletion, d.Type)
		assert.Equal(t, source[d.StartOffset:d.EndOffset], d.Text, "deletion text must match source span")
	}
	for _, a := range additions {
		assert.Equal(t, ChangeAddition, a.Type)
		assert.Equal(t, target[a.StartOffset:a.EndOffset], a.Text, "addition text must match target span")
	}

	assert.Equal(t, stripChanges(source, deletions), stripChanges(target, additions),
		"equal parts of source and target must be identical")
}

// TestLexicalDiffIdentical 测试相同文本不产生任何差异
func TestLexicalDiffIdentical(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	deletions, additions := differ.Diff("same text", "same text")
	assert.Empty(t, deletions)
	assert.Empty(t, additions)

	deletions, additions = differ.Diff("", "")
	assert.Empty(t, deletions)
	assert.Empty(t, additions)
}

// TestLexicalDiffEmptySides 测试单侧为空的边界情况
func TestLexicalDiffEmptySides(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	// 空源：全部是新增
	deletions, additions := differ.Diff("", "new content")
	assert.Empty(t, deletions)
	require.Len(t, additions, 1)
	assert.Equal(t, "new content", additions[0].Text)
	assert.Equal(t, 0, additions[0].StartOffset)
	assert.Equal(t, len("new content"), additions[0].EndOffset)

	// 空目标：全部是删除
	deletions, additions = differ.Diff("old content", "")
	assert.Empty(t, additions)
	require.Len(t, deletions, 1)
	assert.Equal(t, "old content", deletions[0].Text)
}

// TestLexicalDiffSuffixInsertion 测试尾部插入时产生最小编辑脚本
func TestLexicalDiffSuffixInsertion(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "Take one tablet daily."
	target := "Take one tablet daily, taken with food."

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	// 末尾的句号仍然匹配，插入的只有中间的从句
	assert.Empty(t, deletions)
	require.Len(t, additions, 1)
	assert.Equal(t, ", taken with food", additions[0].Text)
	assert.Equal(t, 21, additions[0].StartOffset)
	assert.Equal(t, 38, additions[0].EndOffset)
}

// TestLexicalDiffReplacement 测试中段替换
func TestLexicalDiffReplacement(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "dose: 5 mg"
	target := "dose: 10 mg"

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	require.Len(t, deletions, 1)
	assert.Equal(t, "5", deletions[0].Text)
	require.Len(t, additions, 1)
	assert.Equal(t, "10", additions[0].Text)
}

// TestLexicalDiffDisjoint 测试完全不同的文本
func TestLexicalDiffDisjoint(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "abc"
	target := "xyz"

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	require.Len(t, deletions, 1)
	assert.Equal(t, "abc", deletions[0].Text)
	require.Len(t, additions, 1)
	assert.Equal(t, "xyz", additions[0].Text)
}

// TestLexicalDiffUnicodeOffsets 测试多字节字符的字节偏移
func TestLexicalDiffUnicodeOffsets(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "剂量为5mg。"
	target := "剂量为10mg。"

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	require.Len(t, deletions, 1)
	assert.Equal(t, "5", deletions[0].Text)
	// "剂量为"共9字节
	assert.Equal(t, 9, deletions[0].StartOffset)
	assert.Equal(t, 10, deletions[0].EndOffset)

	require.Len(t, additions, 1)
	assert.Equal(t, "10", additions[0].Text)
}

// TestLexicalDiffOrdering 测试变更区间按偏移有序且不重叠
func TestLexicalDiffOrdering(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "The dose is 5 mg. Store below 25 degrees. Do not freeze."
	target := "The dose is 10 mg. Store below 30 degrees. Keep dry. Do not freeze."

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	for i := 1; i < len(deletions); i++ {
		assert.GreaterOrEqual(t, deletions[i].StartOffset, deletions[i-1].EndOffset)
	}
	for i := 1; i < len(additions); i++ {
		assert.GreaterOrEqual(t, additions[i].StartOffset, additions[i-1].EndOffset)
	}
}

// TestLexicalDiffBlockFallback 测试超大文本降级为段落块diff
func TestLexicalDiffBlockFallback(t *testing.T) {
	// 压低上限强制走段落块路径
	differ := NewLexicalDiffer(LexicalConfig{MaxDiffRunes: 16})

	source := "Paragraph one.\n\nParagraph two.\n\nParagraph three."
	target := "Paragraph one.\n\nParagraph 2 revised.\n\nParagraph three."

	deletions, additions := differ.Diff(source, target)
	assertDiffContract(t, source, target, deletions, additions)

	// 块级diff的粒度是整个段落
	require.Len(t, deletions, 1)
	assert.Equal(t, "Paragraph two.\n\n", deletions[0].Text)
	require.Len(t, additions, 1)
	assert.Equal(t, "Paragraph 2 revised.\n\n", additions[0].Text)
}

// TestLexicalDiffDeterministic 测试相同输入产生相同输出
func TestLexicalDiffDeterministic(t *testing.T) {
	differ := NewLexicalDiffer(DefaultLexicalConfig())

	source := "aba aba aba"
	target := "ab aba abab"

	d1, a1 := differ.Diff(source, target)
	for i := 0; i < 10; i++ {
		d2, a2 := differ.Diff(source, target)
		assert.Equal(t, d1, d2)
		assert.Equal(t, a1, a2)
	}
	assertDiffContract(t, source, target, d1, a1)
}

// TestSplitBlocks 测试段落块切分保留分隔符
func TestSplitBlocks(t *testing.T) {
	text := "first\n\nsecond\n\n\nthird"
	blocks, offsets := splitBlocks(text)

	require.Len(t, blocks, 3)
	assert.Equal(t, "first\n\n", blocks[0])
	assert.Equal(t, "second\n\n\n", blocks[1])
	assert.Equal(t, "third", blocks[2])

	// 拼接所有块应还原原文
	assert.Equal(t, text, strings.Join(blocks, ""))

	require.Len(t, offsets, 4)
	assert.Equal(t, 0, offsets[0])
	assert.Equal(t, len(text), offsets[3])
}
