package compare

import "github.com/fyerfyer/label-compare-system/internal/models"

// AlignSections 计算两个文档的公共章节标识码
// 返回顺序遵循第一个文档的章节顺序
// 只出现在单侧的章节被静默排除，不会作为"缺失章节"差异上报
func AlignSections(source, target []models.Section) []string {
	targetKeys := make(map[string]struct{}, len(target))
	for _, s := range target {
		targetKeys[s.Key] = struct{}{}
	}

	var common []string
	for _, s := range source {
		if _, ok := targetKeys[s.Key]; ok {
			common = append(common, s.Key)
		}
	}
	return common
}

// AlignSection 按指定章节标识码对齐
// 两侧都存在时返回单元素列表，否则返回空列表
func AlignSection(source, target []models.Section, key string) []string {
	inSource := false
	for _, s := range source {
		if s.Key == key {
			inSource = true
			break
		}
	}
	if !inSource {
		return nil
	}
	for _, s := range target {
		if s.Key == key {
			return []string{key}
		}
	}
	return nil
}
