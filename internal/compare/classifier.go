package compare

// ClassifierConfig 差异分类器配置
type ClassifierConfig struct {
	SimilarityThreshold  float64 // 匹配阈值（partial_match的下界）
	HighSimilarityCutoff float64 // 高相似度分界线
	ConflictBandLow      float64 // 冲突检测分数带下界
	ConflictBandHigh     float64 // 冲突检测分数带上界
}

// DefaultClassifierConfig 返回默认分类器配置
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SimilarityThreshold:  0.65,
		HighSimilarityCutoff: 0.85,
		ConflictBandLow:      0.40,
		ConflictBandHigh:     0.80,
	}
}

// DiffClassifier 差异分类器
// 按自上而下的规则给每个配对/未匹配句子打差异类型标签
type DiffClassifier struct {
	config   ClassifierConfig
	detector ConflictDetector
}

// NewDiffClassifier 创建差异分类器
// detector为nil时冲突检测被禁用，partial_match不会被重分类
func NewDiffClassifier(config ClassifierConfig, detector ConflictDetector) *DiffClassifier {
	if config.HighSimilarityCutoff == 0 {
		config.HighSimilarityCutoff = DefaultClassifierConfig().HighSimilarityCutoff
	}
	return &DiffClassifier{config: config, detector: detector}
}

// Classify 给配对结果和未匹配句子打标签
// 规则自上而下：
//  1. 两侧都存在且分数 >= 高相似度分界线 -> high_similarity
//  2. 两侧都存在且阈值 <= 分数 < 分界线 -> partial_match
//  3. 只有源句 -> unique_to_source
//  4. 只有目标句 -> omission
//  5. partial_match落在冲突分数带内且矛盾检测触发 -> conflict
//
// 规则5只是尽力而为的启发式，绝不单凭相似度分数判定冲突
func (c *DiffClassifier) Classify(
	pairs []matchedPair,
	srcSentences, tgtSentences []Sentence,
	matchedSrc, matchedTgt map[int]bool,
) []SemanticMatch {
	matches := make([]SemanticMatch, 0, len(pairs))

	for _, p := range pairs {
		diffType := c.classifyPair(p)
		score := scoreOf(p.score)
		matches = append(matches, SemanticMatch{
			Source: &SemanticSegment{
				Text:        p.source.Text,
				StartOffset: p.source.StartOffset,
				EndOffset:   p.source.EndOffset,
				DiffType:    diffType,
				Score:       score,
			},
			Target: &SemanticSegment{
				Text:        p.target.Text,
				StartOffset: p.target.StartOffset,
				EndOffset:   p.target.EndOffset,
				DiffType:    diffType,
				Score:       score,
			},
			Score:    score,
			DiffType: diffType,
		})
	}

	// 未匹配的源句：目标侧没有对应内容
	for i, s := range srcSentences {
		if matchedSrc[i] {
			continue
		}
		matches = append(matches, SemanticMatch{
			Source: &SemanticSegment{
				Text:        s.Text,
				StartOffset: s.StartOffset,
				EndOffset:   s.EndOffset,
				DiffType:    DiffUniqueToSource,
			},
			DiffType: DiffUniqueToSource,
		})
	}

	// 未匹配的目标句：源侧缺失的内容
	for j, s := range tgtSentences {
		if matchedTgt[j] {
			continue
		}
		matches = append(matches, SemanticMatch{
			Target: &SemanticSegment{
				Text:        s.Text,
				StartOffset: s.StartOffset,
				EndOffset:   s.EndOffset,
				DiffType:    DiffOmission,
			},
			DiffType: DiffOmission,
		})
	}

	return matches
}

// classifyPair 给一个已锁定的配对打标签
func (c *DiffClassifier) classifyPair(p matchedPair) DiffType {
	if p.score >= c.config.HighSimilarityCutoff {
		return DiffHighSimilarity
	}

	if c.detector != nil &&
		p.score >= c.config.ConflictBandLow &&
		p.score <= c.config.ConflictBandHigh &&
		c.detector.Detect(p.source.Text, p.target.Text) {
		return DiffConflict
	}

	return DiffPartialMatch
}
