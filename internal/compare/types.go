package compare

import "fmt"

// DiffType 语义差异类型
// 封闭枚举，所有分支处必须穷举匹配
type DiffType string

const (
	// DiffHighSimilarity 高相似度匹配（两侧语义基本一致）
	DiffHighSimilarity DiffType = "high_similarity"
	// DiffPartialMatch 部分匹配（相似但存在差异）
	DiffPartialMatch DiffType = "partial_match"
	// DiffUniqueToSource 源文档独有内容（目标侧无对应句子）
	DiffUniqueToSource DiffType = "unique_to_source"
	// DiffOmission 源文档缺失内容（目标侧独有句子）
	DiffOmission DiffType = "omission"
	// DiffConflict 冲突内容（部分匹配且触发矛盾检测）
	DiffConflict DiffType = "conflict"
)

// Valid 检查差异类型是否为合法枚举值
func (t DiffType) Valid() bool {
	switch t {
	case DiffHighSimilarity, DiffPartialMatch, DiffUniqueToSource, DiffOmission, DiffConflict:
		return true
	default:
		return false
	}
}

// ChangeType 词法变更类型
type ChangeType string

const (
	// ChangeAddition 新增内容（出现在目标文本中）
	ChangeAddition ChangeType = "addition"
	// ChangeDeletion 删除内容（出现在源文本中）
	ChangeDeletion ChangeType = "deletion"
)

// Valid 检查变更类型是否为合法枚举值
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeAddition, ChangeDeletion:
		return true
	default:
		return false
	}
}

// TextChange 词法差异的一个变更区间
// 偏移量以字节计，0起始，左闭右开，相对于变更所属的一侧
// （删除相对源文本，新增相对目标文本）
type TextChange struct {
	Type        ChangeType `json:"change_type"`  // 变更类型
	Text        string     `json:"text"`         // 变更文本内容
	StartOffset int        `json:"start_offset"` // 起始偏移（字节）
	EndOffset   int        `json:"end_offset"`   // 结束偏移（字节）
}

// LexicalDiff 单个章节的词法差异结果
type LexicalDiff struct {
	SectionKey   string       `json:"section_key"`   // 章节标识码
	SectionTitle string       `json:"section_title"` // 章节标题
	SourceText   string       `json:"source_text"`   // 源章节文本
	TargetText   string       `json:"target_text"`   // 目标章节文本
	Deletions    []TextChange `json:"deletions"`     // 删除区间（源侧）
	Additions    []TextChange `json:"additions"`     // 新增区间（目标侧）
}

// SemanticSegment 语义比较中的一个句子片段
type SemanticSegment struct {
	Text        string   `json:"text"`            // 句子文本
	StartOffset int      `json:"start_offset"`    // 在章节文本中的起始字节偏移
	EndOffset   int      `json:"end_offset"`      // 结束字节偏移
	DiffType    DiffType `json:"diff_type"`       // 差异类型
	Score       *float64 `json:"score,omitempty"` // 相似度分数（未匹配时为空）
}

// SemanticMatch 一个句子配对或未匹配句子
// 不变式：Source和Target至少一个非空；Score仅在两侧都存在时非空
type SemanticMatch struct {
	Source   *SemanticSegment `json:"source_segment"`             // 源侧片段
	Target   *SemanticSegment `json:"target_segment"`             // 目标侧片段
	Score    *float64         `json:"similarity_score,omitempty"` // 余弦相似度
	DiffType DiffType         `json:"diff_type"`                  // 差异类型
}

// SemanticDiff 单个章节的语义差异结果
type SemanticDiff struct {
	SectionKey   string          `json:"section_key"`     // 章节标识码
	SectionTitle string          `json:"section_title"`   // 章节标题
	Matches      []SemanticMatch `json:"matches"`         // 配对结果
	Error        string          `json:"error,omitempty"` // 该章节语义计算失败时的错误信息
}

// Summary 文档级语义差异统计
type Summary struct {
	TotalMatches   int `json:"total_matches"`    // 总配对数
	HighSimilarity int `json:"high_similarity"`  // 高相似度数量
	PartialMatches int `json:"partial_matches"`  // 部分匹配数量
	UniqueToSource int `json:"unique_to_source"` // 源独有数量
	Omissions      int `json:"omissions"`        // 缺失数量
	Conflicts      int `json:"conflicts"`        // 冲突数量
}

// SectionReport 按章节分组的代表性文本报告
type SectionReport struct {
	SectionTitle string   `json:"section_title"` // 章节标题
	Advantages   []string `json:"advantages"`    // 源独有内容（竞争优势）
	Gaps         []string `json:"gaps"`          // 缺失内容（需补齐的差距）
	Conflicts    []string `json:"conflicts"`     // 冲突内容
}

// Sentence 带偏移的句子片段
// 所有span按顺序拼接并补上span之间的空白后应精确还原原文
type Sentence struct {
	Text        string // 句子文本
	StartOffset int    // 起始字节偏移
	EndOffset   int    // 结束字节偏移
}

// scoreOf 构造分数指针的辅助函数
func scoreOf(v float64) *float64 {
	return &v
}

// String 实现Stringer接口，便于日志输出
func (m SemanticMatch) String() string {
	src, tgt := "<nil>", "<nil>"
	if m.Source != nil {
		src = m.Source.Text
	}
	if m.Target != nil {
		tgt = m.Target.Text
	}
	return fmt.Sprintf("%s: %q <-> %q", m.DiffType, src, tgt)
}
