package compare

import (
	"context"
	"math"
	"sort"

	"github.com/fyerfyer/label-compare-system/internal/embedding"
)

// SemanticConfig 语义匹配器配置
type SemanticConfig struct {
	SimilarityThreshold  float64 // 匹配阈值，默认0.65
	HighSimilarityCutoff float64 // 高相似度分界线，默认0.85
	Dimensions           int     // 期望向量维度，0表示以第一个向量为准
}

// DefaultSemanticConfig 返回默认语义匹配配置
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		SimilarityThreshold:  0.65,
		HighSimilarityCutoff: 0.85,
		Dimensions:           0,
	}
}

// SemanticMatcher 语义匹配器
// 对一个公共章节的两侧文本做句子级配对：
// 切句 -> 批量嵌入 -> 余弦相似度矩阵 -> 贪心一对一匹配 -> 分类
type SemanticMatcher struct {
	processor  embedding.BatchProcessor
	segmenter  *SentenceSegmenter
	classifier *DiffClassifier
	config     SemanticConfig
}

// NewSemanticMatcher 创建语义匹配器
func NewSemanticMatcher(
	processor embedding.BatchProcessor,
	segmenter *SentenceSegmenter,
	classifier *DiffClassifier,
	config SemanticConfig,
) *SemanticMatcher {
	if config.SimilarityThreshold == 0 {
		config.SimilarityThreshold = DefaultSemanticConfig().SimilarityThreshold
	}
	if config.HighSimilarityCutoff == 0 {
		config.HighSimilarityCutoff = DefaultSemanticConfig().HighSimilarityCutoff
	}
	return &SemanticMatcher{
		processor:  processor,
		segmenter:  segmenter,
		classifier: classifier,
		config:     config,
	}
}

// matchedPair 一对已锁定的句子配对
type matchedPair struct {
	source Sentence
	target Sentence
	score  float64
}

// MatchSection 对单个章节的两侧文本做语义配对
// 两侧文本都为空时返回空结果而不是错误
// 嵌入调用失败时返回错误，由调用方按章节上报
func (m *SemanticMatcher) MatchSection(ctx context.Context, sourceText, targetText string) ([]SemanticMatch, error) {
	if err := ValidateThreshold(m.config.SimilarityThreshold); err != nil {
		return nil, err
	}

	srcSentences := m.segmenter.Segment(sourceText)
	tgtSentences := m.segmenter.Segment(targetText)

	if len(srcSentences) == 0 && len(tgtSentences) == 0 {
		return nil, nil
	}

	// 两侧句子合并为一次批量嵌入调用，减少对嵌入服务的请求数
	texts := make([]string, 0, len(srcSentences)+len(tgtSentences))
	for _, s := range srcSentences {
		texts = append(texts, s.Text)
	}
	for _, s := range tgtSentences {
		texts = append(texts, s.Text)
	}

	vectors, err := m.processor.Process(ctx, texts)
	if err != nil {
		return nil, err
	}

	if err := m.checkDimensions(vectors); err != nil {
		return nil, err
	}

	srcVectors := vectors[:len(srcSentences)]
	tgtVectors := vectors[len(srcSentences):]

	pairs, matchedSrc, matchedTgt := m.assign(srcSentences, tgtSentences, srcVectors, tgtVectors)

	return m.classifier.Classify(pairs, srcSentences, tgtSentences, matchedSrc, matchedTgt), nil
}

// checkDimensions 校验所有向量维度一致
// 维度漂移是致命的配置错误，必须硬失败而不是截断或填充
func (m *SemanticMatcher) checkDimensions(vectors [][]float32) error {
	expected := m.config.Dimensions
	for _, v := range vectors {
		if v == nil {
			continue
		}
		if expected == 0 {
			expected = len(v)
			continue
		}
		if len(v) != expected {
			return &DimensionMismatchError{Expected: expected, Actual: len(v)}
		}
	}
	return nil
}

// candidate 相似度矩阵中一个达到阈值的单元格
type candidate struct {
	i, j  int
	score float64
}

// assign 贪心一对一分配
// 反复取剩余单元格中分数最高的配对并锁定，直到没有达到阈值的单元格。
// 分数相同时按源句起始偏移、再目标句起始偏移排序，保证输出确定性。
// 贪心避免了O(n^3)的最优二分图匹配，对几百句以内的章节足够好
func (m *SemanticMatcher) assign(
	srcSentences, tgtSentences []Sentence,
	srcVectors, tgtVectors [][]float32,
) (pairs []matchedPair, matchedSrc, matchedTgt map[int]bool) {
	var candidates []candidate
	for i, sv := range srcVectors {
		for j, tv := range tgtVectors {
			score := cosineSimilarity(sv, tv)
			if score >= m.config.SimilarityThreshold {
				candidates = append(candidates, candidate{i: i, j: j, score: score})
			}
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.score != cb.score {
			return ca.score > cb.score
		}
		if srcSentences[ca.i].StartOffset != srcSentences[cb.i].StartOffset {
			return srcSentences[ca.i].StartOffset < srcSentences[cb.i].StartOffset
		}
		return tgtSentences[ca.j].StartOffset < tgtSentences[cb.j].StartOffset
	})

	matchedSrc = make(map[int]bool)
	matchedTgt = make(map[int]bool)
	for _, c := range candidates {
		if matchedSrc[c.i] || matchedTgt[c.j] {
			continue
		}
		matchedSrc[c.i] = true
		matchedTgt[c.j] = true
		pairs = append(pairs, matchedPair{
			source: srcSentences[c.i],
			target: tgtSentences[c.j],
			score:  c.score,
		})
	}

	// 输出按源句位置排序，与章节文本的阅读顺序一致
	sort.Slice(pairs, func(a, b int) bool {
		return pairs[a].source.StartOffset < pairs[b].source.StartOffset
	})

	return pairs, matchedSrc, matchedTgt
}

// cosineSimilarity 计算两个向量的余弦相似度
// 任一侧为零向量或为空时返回0
func cosineSimilarity(v1, v2 []float32) float64 {
	if len(v1) == 0 || len(v2) == 0 || len(v1) != len(v2) {
		return 0
	}

	var dot, norm1, norm2 float64
	for i := range v1 {
		dot += float64(v1[i]) * float64(v2[i])
		norm1 += float64(v1[i]) * float64(v1[i])
		norm2 += float64(v2[i]) * float64(v2[i])
	}

	if norm1 == 0 || norm2 == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
	// 浮点精度截断
	if sim > 1.0 {
		sim = 1.0
	}
	if sim < -1.0 {
		sim = -1.0
	}
	return sim
}
