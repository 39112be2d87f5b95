package compare

import (
	"regexp"
	"strconv"
	"strings"
)

// ConflictDetector 矛盾检测器接口
// 判断一对部分匹配的句子是否表述了相互冲突的信息。
// 实现是可插拔的，默认的启发式实现需要按语料调参后才适合生产使用
type ConflictDetector interface {
	// Detect 判断两个句子是否存在矛盾
	Detect(source, target string) bool
}

// negationMarkers 否定语气标记词
var negationMarkers = map[string]struct{}{
	"not":             {},
	"no":              {},
	"never":           {},
	"without":         {},
	"none":            {},
	"neither":         {},
	"cannot":          {},
	"contraindicated": {},
	"avoid":           {},
	"discontinue":     {},
}

// quantityPattern 匹配"数值+单位"形式的计量表述
var quantityPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mg|mcg|g|kg|ml|mL|units?|hours?|weeks?|days?|months?|years?|%)`)

// HeuristicConflictDetector 默认的启发式矛盾检测器
// 两条线索：否定语气只出现在单侧，或同一单位下数值不一致。
// 只是尽力而为，误报漏报都可能发生
type HeuristicConflictDetector struct{}

// NewHeuristicConflictDetector 创建默认矛盾检测器
func NewHeuristicConflictDetector() *HeuristicConflictDetector {
	return &HeuristicConflictDetector{}
}

// Detect 实现ConflictDetector接口
func (d *HeuristicConflictDetector) Detect(source, target string) bool {
	if d.negationDiverges(source, target) {
		return true
	}
	return d.quantitiesDiverge(source, target)
}

// negationDiverges 检查否定标记是否只出现在单侧
func (d *HeuristicConflictDetector) negationDiverges(source, target string) bool {
	return hasNegation(source) != hasNegation(target)
}

// hasNegation 检查文本是否包含否定标记词
func hasNegation(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()")
		if _, ok := negationMarkers[word]; ok {
			return true
		}
	}
	return false
}

// quantitiesDiverge 检查同一单位下的数值是否不一致
// 两侧都提到了同一计量单位但数值集合没有交集时视为矛盾
func (d *HeuristicConflictDetector) quantitiesDiverge(source, target string) bool {
	srcQuantities := extractQuantities(source)
	tgtQuantities := extractQuantities(target)

	for unit, srcValues := range srcQuantities {
		tgtValues, ok := tgtQuantities[unit]
		if !ok {
			continue
		}
		if !valuesOverlap(srcValues, tgtValues) {
			return true
		}
	}
	return false
}

// extractQuantities 提取文本中的计量表述，按规范化单位分组
func extractQuantities(text string) map[string][]float64 {
	result := make(map[string][]float64)
	for _, m := range quantityPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := normalizeUnit(m[2])
		result[unit] = append(result[unit], value)
	}
	return result
}

// normalizeUnit 规范化单位写法（复数、大小写）
func normalizeUnit(unit string) string {
	unit = strings.ToLower(unit)
	unit = strings.TrimSuffix(unit, "s")
	return unit
}

// valuesOverlap 检查两个数值集合是否有交集
func valuesOverlap(a, b []float64) bool {
	for _, va := range a {
		for _, vb := range b {
			if va == vb {
				return true
			}
		}
	}
	return false
}
