package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/label-compare-system/internal/cache"
	"github.com/fyerfyer/label-compare-system/internal/llm"
	"github.com/fyerfyer/label-compare-system/internal/models"
	"github.com/fyerfyer/label-compare-system/internal/repository"
)

// ExplainService 差异解释服务
// 调用大模型对指定章节的差异生成业务解读
type ExplainService struct {
	store     repository.DocumentStore
	explainer *llm.Explainer
	cache     cache.Cache
	logger    *logrus.Logger
	cacheTTL  time.Duration
}

// ExplainOption 解释服务配置选项
type ExplainOption func(*ExplainService)

// NewExplainService 创建差异解释服务实例
func NewExplainService(
	store repository.DocumentStore,
	explainer *llm.Explainer,
	cacheClient cache.Cache,
	opts ...ExplainOption,
) *ExplainService {
	service := &ExplainService{
		store:     store,
		explainer: explainer,
		cache:     cacheClient,
		logger:    logrus.New(),
		cacheTTL:  24 * time.Hour, // 解释结果对相同输入稳定，默认缓存24小时
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// WithExplainLogger 设置日志记录器
func WithExplainLogger(logger *logrus.Logger) ExplainOption {
	return func(s *ExplainService) {
		s.logger = logger
	}
}

// WithExplainCacheTTL 设置解释结果缓存有效期
func WithExplainCacheTTL(ttl time.Duration) ExplainOption {
	return func(s *ExplainService) {
		s.cacheTTL = ttl
	}
}

// Explain 为指定章节的差异生成解释
// 章节在两个文档中都不存在时返回ErrSectionNotFound
func (s *ExplainService) Explain(ctx context.Context, sourceID, targetID, sectionKey string) (*llm.Explanation, error) {
	cacheKey := cache.GenerateCacheKey("explain", sourceID, targetID, sectionKey)
	if s.cache != nil {
		if value, found, err := s.cache.Get(cacheKey); err == nil && found {
			var explanation llm.Explanation
			if err := json.Unmarshal([]byte(value), &explanation); err == nil {
				return &explanation, nil
			}
		}
	}

	source, err := s.store.GetDocumentWithSections(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("source document %s: %w", sourceID, err)
	}
	target, err := s.store.GetDocumentWithSections(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("target document %s: %w", targetID, err)
	}

	srcSec := source.SectionByKey(sectionKey)
	tgtSec := target.SectionByKey(sectionKey)
	if srcSec == nil && tgtSec == nil {
		return nil, fmt.Errorf("section %s: %w", sectionKey, models.ErrSectionNotFound)
	}

	explanation, err := s.explainer.Explain(ctx, source.Name, target.Name, sectionText(srcSec), sectionText(tgtSec), sectionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to explain section %s: %w", sectionKey, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(explanation); err == nil {
			if err := s.cache.Set(cacheKey, string(data), s.cacheTTL); err != nil {
				s.logger.WithField("cache_key", cacheKey).Warnf("failed to cache explanation: %v", err)
			}
		}
	}

	return explanation, nil
}
