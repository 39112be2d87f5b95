package compare

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// defaultAbbreviations 终止符前出现这些词时不切分句子
// 覆盖药品标签语料中常见的称谓、计量单位和引用缩写
var defaultAbbreviations = map[string]struct{}{
	"Dr":     {},
	"Mr":     {},
	"Mrs":    {},
	"Ms":     {},
	"No":     {},
	"vs":     {},
	"etc":    {},
	"approx": {},
	"Fig":    {},
	"Tab":    {},
	"Ref":    {},
	"mg":     {},
	"mcg":    {},
	"mL":     {},
	"ml":     {},
	"kg":     {},
	"e.g":    {},
	"i.e":    {},
	"al":     {},
}

// SentenceSegmenter 句子切分器
// 把章节文本切成带偏移的有序、不重叠的句子span
// 所有span加上span之间的间隙可以精确还原原文
type SentenceSegmenter struct {
	abbreviations map[string]struct{}
}

// NewSentenceSegmenter 创建使用默认缩写表的句子切分器
func NewSentenceSegmenter() *SentenceSegmenter {
	return &SentenceSegmenter{abbreviations: defaultAbbreviations}
}

// NewSentenceSegmenterWithAbbreviations 创建使用自定义缩写表的句子切分器
func NewSentenceSegmenterWithAbbreviations(abbrevs []string) *SentenceSegmenter {
	m := make(map[string]struct{}, len(abbrevs))
	for _, a := range abbrevs {
		m[a] = struct{}{}
	}
	return &SentenceSegmenter{abbreviations: m}
}

// Segment 将文本切分为句子span
// 启发式规则：`.`/`!`/`?`后跟空白加大写字母、或到达文本末尾时切分；
// 终止符前是缩写表中的词、或后面紧跟小写字母/数字且无空白时不切分
// 空文本返回空切片而不是错误
func (s *SentenceSegmenter) Segment(text string) []Sentence {
	if text == "" {
		return nil
	}

	var sentences []Sentence
	start := -1 // 当前句子的起始字节偏移，-1表示还没遇到非空白字符

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		if start < 0 {
			if !unicode.IsSpace(r) {
				start = i
			}
			i += size
			continue
		}

		if isTerminator(r) && s.isBoundary(text, start, i, i+size) {
			sentences = append(sentences, Sentence{
				Text:        text[start : i+size],
				StartOffset: start,
				EndOffset:   i + size,
			})
			start = -1
		}
		i += size
	}

	// 最后一个没有终止符的句子
	if start >= 0 {
		end := len(text)
		// 去掉尾部空白，保持span落在实际内容上
		for end > start {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !unicode.IsSpace(r) {
				break
			}
			end -= size
		}
		if end > start {
			sentences = append(sentences, Sentence{
				Text:        text[start:end],
				StartOffset: start,
				EndOffset:   end,
			})
		}
	}

	return sentences
}

// isTerminator 判断是否是句子终止符
func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isBoundary 判断位于[termStart,termEnd)的终止符是否构成句子边界
func (s *SentenceSegmenter) isBoundary(text string, sentStart, termStart, termEnd int) bool {
	// 终止符前的词是缩写时不切分
	if s.isAbbreviation(text[sentStart:termStart]) {
		return false
	}

	// 文本末尾总是边界
	if termEnd >= len(text) {
		return true
	}

	next, _ := utf8.DecodeRuneInString(text[termEnd:])

	// 紧跟小写字母或数字且无空白，视为小数点或编号（如"5.4"、"v2.raw"）
	if unicode.IsLower(next) || unicode.IsDigit(next) {
		return false
	}

	// 连续的终止符（"etc.."、省略号）留给后续字符判断
	if isTerminator(next) {
		return false
	}

	if !unicode.IsSpace(next) {
		return false
	}

	// 跳过空白，检查下一个非空白字符
	rest := strings.TrimLeftFunc(text[termEnd:], unicode.IsSpace)
	if rest == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(first) || unicode.IsDigit(first) || first == '(' || first == '"'
}

// isAbbreviation 检查句子片段的最后一个词是否在缩写表中
func (s *SentenceSegmenter) isAbbreviation(fragment string) bool {
	fragment = strings.TrimRight(fragment, " \t\n")
	if fragment == "" {
		return false
	}

	// 取最后一个空白分隔的词，剥掉包裹的标点
	idx := strings.LastIndexFunc(fragment, unicode.IsSpace)
	word := fragment[idx+1:]
	word = strings.Trim(word, "()[],;:")

	if _, ok := s.abbreviations[word]; ok {
		return true
	}
	// 带内部点号的缩写（e.g / i.e）按去掉尾点后的形式查表
	if _, ok := s.abbreviations[strings.TrimSuffix(word, ".")]; ok {
		return true
	}
	return false
}
