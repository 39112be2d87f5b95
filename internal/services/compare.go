package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/internal/cache"
	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/internal/embedding"
	"github.com/fyerfyer/label-compare-system/internal/models"
	"github.com/fyerfyer/label-compare-system/internal/repository"
)

// LexicalResult 词法比较的文档级结果
type LexicalResult struct {
	SourceDocumentID string                `json:"source_document_id"` // 源文档ID
	TargetDocumentID string                `json:"target_document_id"` // 目标文档ID
	SectionKey       string                `json:"section_key,omitempty"`
	Diffs            []compare.LexicalDiff `json:"diffs"` // 按源文档章节顺序
}

// SemanticResult 语义比较的文档级结果
type SemanticResult struct {
	SourceDocumentID    string                  `json:"source_document_id"`
	TargetDocumentID    string                  `json:"target_document_id"`
	SectionKey          string                  `json:"section_key,omitempty"`
	SimilarityThreshold float64                 `json:"similarity_threshold"`
	Diffs               []compare.SemanticDiff  `json:"diffs"`
	Summary             compare.Summary         `json:"summary"`
	Sections            []compare.SectionReport `json:"sections"`
}

// CompareService 文档比较服务
// 负责加载文档、对齐章节并协调词法和语义两条比较流水线
type CompareService struct {
	store      repository.DocumentStore
	processor  embedding.BatchProcessor
	differ     *compare.LexicalDiffer
	segmenter  *compare.SentenceSegmenter
	detector   compare.ConflictDetector
	cache      cache.Cache
	logger     *logrus.Logger
	cacheTTL   time.Duration
	maxWorkers int
	config     compare.SemanticConfig
}

// CompareOption 比较服务配置选项
type CompareOption func(*CompareService)

// NewCompareService 创建文档比较服务实例
func NewCompareService(
	store repository.DocumentStore,
	processor embedding.BatchProcessor,
	cacheClient cache.Cache,
	opts ...CompareOption,
) *CompareService {
	service := &CompareService{
		store:      store,
		processor:  processor,
		differ:     compare.NewLexicalDiffer(compare.DefaultLexicalConfig()),
		segmenter:  compare.NewSentenceSegmenter(),
		detector:   compare.NewHeuristicConflictDetector(),
		cache:      cacheClient,
		logger:     logrus.New(),
		cacheTTL:   time.Hour, // 默认缓存1小时
		maxWorkers: 4,         // 默认4个并发章节
		config:     compare.DefaultSemanticConfig(),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithCompareLogger 设置日志记录器
func WithCompareLogger(logger *logrus.Logger) CompareOption {
	return func(s *CompareService) {
		s.logger = logger
	}
}

// WithCompareCacheTTL 设置结果缓存有效期
func WithCompareCacheTTL(ttl time.Duration) CompareOption {
	return func(s *CompareService) {
		s.cacheTTL = ttl
	}
}

// WithMaxWorkers 设置语义比较的最大并发章节数
func WithMaxWorkers(n int) CompareOption {
	return func(s *CompareService) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// WithSemanticConfig 设置语义比较默认配置
func WithSemanticConfig(config compare.SemanticConfig) CompareOption {
	return func(s *CompareService) {
		s.config = config
	}
}

// WithLexicalConfig 设置词法比较配置
func WithLexicalConfig(config compare.LexicalConfig) CompareOption {
	return func(s *CompareService) {
		s.differ = compare.NewLexicalDiffer(config)
	}
}

// WithConflictDetector 设置冲突检测器，nil表示禁用冲突分类
func WithConflictDetector(detector compare.ConflictDetector) CompareOption {
	return func(s *CompareService) {
		s.detector = detector
	}
}

// LexicalCompare 对两个文档执行章节级词法比较
// sectionKey非空时只比较指定章节，该章节在任一文档中缺失时返回ErrSectionNotFound
func (s *CompareService) LexicalCompare(ctx context.Context, sourceID, targetID, sectionKey string) (*LexicalResult, error) {
	cacheKey := cache.GenerateCacheKey("lexical", sourceID, targetID, sectionKey)
	if cached := s.loadCached(cacheKey, &LexicalResult{}); cached != nil {
		return cached.(*LexicalResult), nil
	}

	source, target, keys, err := s.loadAndAlign(ctx, sourceID, targetID, sectionKey)
	if err != nil {
		return nil, err
	}

	result := &LexicalResult{
		SourceDocumentID: sourceID,
		TargetDocumentID: targetID,
		SectionKey:       sectionKey,
		Diffs:            make([]compare.LexicalDiff, 0, len(keys)),
	}

	for _, key := range keys {
		srcSec := source.SectionByKey(key)
		tgtSec := target.SectionByKey(key)

		diff := compare.LexicalDiff{
			SectionKey:   key,
			SectionTitle: sectionTitle(srcSec, tgtSec),
			SourceText:   sectionText(srcSec),
			TargetText:   sectionText(tgtSec),
		}
		diff.Deletions, diff.Additions = s.differ.Diff(diff.SourceText, diff.TargetText)
		result.Diffs = append(result.Diffs, diff)
	}

	s.storeCached(cacheKey, result)
	return result, nil
}

// SemanticCompare 对两个文档执行章节级语义比较
// threshold为0时使用配置的默认阈值，超出(0,1]时返回ErrInvalidThreshold
func (s *CompareService) SemanticCompare(ctx context.Context, sourceID, targetID, sectionKey string, threshold float64) (*SemanticResult, error) {
	if threshold == 0 {
		threshold = s.config.SimilarityThreshold
	}
	if err := compare.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateCacheKey("semantic", sourceID, targetID, sectionKey, fmt.Sprintf("%.4f", threshold))
	if cached := s.loadCached(cacheKey, &SemanticResult{}); cached != nil {
		return cached.(*SemanticResult), nil
	}

	source, target, keys, err := s.loadAndAlign(ctx, sourceID, targetID, sectionKey)
	if err != nil {
		return nil, err
	}

	matcher := s.buildMatcher(threshold)
	diffs := make([]compare.SemanticDiff, len(keys))

	pool := workerpool.New(s.maxWorkers)
	var mu sync.Mutex
	for i, key := range keys {
		i, key := i, key
		pool.Submit(func() {
			diff := s.compareSection(ctx, matcher, source, target, key)
			mu.Lock()
			diffs[i] = diff
			mu.Unlock()
		})
	}
	pool.StopWait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SemanticResult{
		SourceDocumentID:    sourceID,
		TargetDocumentID:    targetID,
		SectionKey:          sectionKey,
		SimilarityThreshold: threshold,
		Diffs:               diffs,
		Summary:             compare.Summarize(diffs),
		Sections:            compare.GroupBySection(diffs),
	}

	s.storeCached(cacheKey, result)
	return result, nil
}

// compareSection 计算单个章节的语义差异
// 章节级失败不中断整个比较，错误记录在结果中
func (s *CompareService) compareSection(ctx context.Context, matcher *compare.SemanticMatcher, source, target *models.Document, key string) compare.SemanticDiff {
	srcSec := source.SectionByKey(key)
	tgtSec := target.SectionByKey(key)

	diff := compare.SemanticDiff{
		SectionKey:   key,
		SectionTitle: sectionTitle(srcSec, tgtSec),
	}

	matches, err := matcher.MatchSection(ctx, sectionText(srcSec), sectionText(tgtSec))
	if err != nil {
		secErr := &compare.SectionError{SectionKey: key, Err: err}
		s.logger.WithFields(logrus.Fields{
			"section_key": key,
			"error":       err.Error(),
		}).Warn("semantic comparison failed for section")
		diff.Error = secErr.Error()
		return diff
	}

	diff.Matches = matches
	return diff
}

// buildMatcher 按请求阈值构造语义匹配器
func (s *CompareService) buildMatcher(threshold float64) *compare.SemanticMatcher {
	classifierConfig := compare.DefaultClassifierConfig()
	classifierConfig.SimilarityThreshold = threshold
	classifierConfig.HighSimilarityCutoff = s.config.HighSimilarityCutoff

	matcherConfig := s.config
	matcherConfig.SimilarityThreshold = threshold

	classifier := compare.NewDiffClassifier(classifierConfig, s.detector)
	return compare.NewSemanticMatcher(s.processor, s.segmenter, classifier, matcherConfig)
}

// loadAndAlign 加载两个文档并对齐章节
func (s *CompareService) loadAndAlign(ctx context.Context, sourceID, targetID, sectionKey string) (*models.Document, *models.Document, []string, error) {
	source, err := s.store.GetDocumentWithSections(ctx, sourceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("source document %s: %w", sourceID, err)
	}
	target, err := s.store.GetDocumentWithSections(ctx, targetID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("target document %s: %w", targetID, err)
	}

	var keys []string
	if sectionKey != "" {
		keys = compare.AlignSection(source.Sections, target.Sections, sectionKey)
		if len(keys) == 0 {
			return nil, nil, nil, fmt.Errorf("section %s: %w", sectionKey, models.ErrSectionNotFound)
		}
	} else {
		keys = compare.AlignSections(source.Sections, target.Sections)
	}

	return source, target, keys, nil
}

// loadCached 从缓存读取结果，未命中或反序列化失败返回nil
func (s *CompareService) loadCached(key string, out interface{}) interface{} {
	if s.cache == nil {
		return nil
	}
	value, found, err := s.cache.Get(key)
	if err != nil || !found {
		return nil
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.logger.WithField("cache_key", key).Warn("failed to unmarshal cached result, recomputing")
		return nil
	}
	return out
}

// storeCached 将结果写入缓存，失败只记录日志
func (s *CompareService) storeCached(key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, string(data), s.cacheTTL); err != nil {
		s.logger.WithField("cache_key", key).Warnf("failed to cache result: %v", err)
	}
}

// sectionTitle 取两侧章节中第一个非空标题
func sectionTitle(src, tgt *models.Section) string {
	if src != nil && src.Title != "" {
		return src.Title
	}
	if tgt != nil {
		return tgt.Title
	}
	return ""
}

// sectionText 缺失章节按空文本处理
func sectionText(sec *models.Section) string {
	if sec == nil {
		return ""
	}
	return sec.Text
}
