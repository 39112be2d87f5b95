package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/label-compare-system/internal/cache"
	"github.com/fyerfyer/label-compare-system/internal/compare"
	"github.com/fyerfyer/label-compare-system/internal/models"
)

// fakeStore 基于map的文档存储，测试用
type fakeStore struct {
	docs  map[string]*models.Document
	calls int
}

func newFakeStore(docs ...*models.Document) *fakeStore {
	store := &fakeStore{docs: make(map[string]*models.Document)}
	for _, doc := range docs {
		store.docs[doc.ID] = doc
	}
	return store
}

func (s *fakeStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) GetDocumentWithSections(ctx context.Context, id string) (*models.Document, error) {
	s.calls++
	doc, ok := s.docs[id]
	if !ok {
		return nil, models.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *fakeStore) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error) {
	var docs []*models.Document
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, int64(len(docs)), nil
}

func (s *fakeStore) DeleteDocument(ctx context.Context, id string) error {
	if _, ok := s.docs[id]; !ok {
		return models.ErrDocumentNotFound
	}
	delete(s.docs, id)
	return nil
}

// fixedProcessor 按句子文本返回预设向量
// 未登记的文本统一返回正交向量，保证不会误配
type fixedProcessor struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  string
	calls   int
}

func (p *fixedProcessor) Process(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	results := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		if p.failOn != "" && text == p.failOn {
			return nil, fmt.Errorf("embedding backend unavailable")
		}
		if v, ok := p.vectors[text]; ok {
			results[i] = v
		} else {
			results[i] = []float32{0, 0, 0, 1}
		}
	}
	return results, nil
}

func (p *fixedProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// labelDoc 构造带章节的测试文档
func labelDoc(id, name string, sections ...models.Section) *models.Document {
	return &models.Document{ID: id, Name: name, Sections: sections}
}

// TestLexicalCompareSuffixAddition 测试整篇词法比较的尾部新增
func TestLexicalCompareSuffixAddition(t *testing.T) {
	store := newFakeStore(
		labelDoc("src", "DrugA", models.Section{
			Key: "dosage", Title: "Dosage", Text: "Take one tablet daily.", Order: 1,
		}),
		labelDoc("tgt", "DrugB", models.Section{
			Key: "dosage", Title: "Dosage", Text: "Take one tablet daily, taken with food.", Order: 1,
		}),
	)
	service := NewCompareService(store, &fixedProcessor{}, nil)

	result, err := service.LexicalCompare(context.Background(), "src", "tgt", "")
	require.NoError(t, err)
	assert.Equal(t, "src", result.SourceDocumentID)
	assert.Equal(t, "tgt", result.TargetDocumentID)
	require.Len(t, result.Diffs, 1)

	diff := result.Diffs[0]
	assert.Equal(t, "dosage", diff.SectionKey)
	assert.Equal(t, "Dosage", diff.SectionTitle)
	assert.Empty(t, diff.Deletions)
	require.Len(t, diff.Additions, 1)
	assert.Equal(t, ", taken with food", diff.Additions[0].Text)
}

// TestLexicalCompareSectionFilter 测试指定章节的词法比较
func TestLexicalCompareSectionFilter(t *testing.T) {
	store := newFakeStore(
		labelDoc("src", "DrugA",
			models.Section{Key: "dosage", Text: "One tablet.", Order: 1},
			models.Section{Key: "warnings", Text: "Warning text.", Order: 2},
		),
		labelDoc("tgt", "DrugB",
			models.Section{Key: "dosage", Text: "Two tablets.", Order: 1},
			models.Section{Key: "warnings", Text: "Warning text.", Order: 2},
		),
	)
	service := NewCompareService(store, &fixedProcessor{}, nil)

	result, err := service.LexicalCompare(context.Background(), "src", "tgt", "warnings")
	require.NoError(t, err)
	require.Len(t, result.Diffs, 1)
	assert.Equal(t, "warnings", result.Diffs[0].SectionKey)

	// 任一侧缺失的章节
	_, err = service.LexicalCompare(context.Background(), "src", "tgt", "overdosage")
	assert.ErrorIs(t, err, models.ErrSectionNotFound)
}

// TestLexicalCompareDocumentNotFound 测试文档不存在的错误传递
func TestLexicalCompareDocumentNotFound(t *testing.T) {
	service := NewCompareService(newFakeStore(), &fixedProcessor{}, nil)

	_, err := service.LexicalCompare(context.Background(), "missing", "tgt", "")
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
}

// TestSemanticCompareService 测试整篇语义比较的端到端流程
func TestSemanticCompareService(t *testing.T) {
	store := newFakeStore(
		labelDoc("src", "DrugA", models.Section{
			Key: "dosage", Title: "Dosage", Text: "Take one tablet daily.", Order: 1,
		}),
		labelDoc("tgt", "DrugB", models.Section{
			Key: "dosage", Title: "Dosage", Text: "Take one tablet each day. Take with food.", Order: 1,
		}),
	)
	processor := &fixedProcessor{vectors: map[string][]float32{
		"Take one tablet daily.":    {1, 0, 0, 0},
		"Take one tablet each day.": {1, 0.1, 0, 0},
		"Take with food.":           {0, 1, 0, 0},
	}}
	service := NewCompareService(store, processor, nil)

	result, err := service.SemanticCompare(context.Background(), "src", "tgt", "", 0)
	require.NoError(t, err)

	// 阈值为0时回落到默认配置
	assert.Equal(t, compare.DefaultSemanticConfig().SimilarityThreshold, result.SimilarityThreshold)

	require.Len(t, result.Diffs, 1)
	diff := result.Diffs[0]
	assert.Empty(t, diff.Error)
	require.Len(t, diff.Matches, 2)

	// 近似句子配对成功，目标独有句子标记为缺失
	assert.Equal(t, compare.DiffHighSimilarity, diff.Matches[0].DiffType)
	assert.Equal(t, compare.DiffOmission, diff.Matches[1].DiffType)

	assert.Equal(t, 2, result.Summary.TotalMatches)
	assert.Equal(t, 1, result.Summary.HighSimilarity)
	assert.Equal(t, 1, result.Summary.Omissions)
}

// TestSemanticCompareInvalidThreshold 测试非法阈值在任何文档加载之前被拒绝
func TestSemanticCompareInvalidThreshold(t *testing.T) {
	store := newFakeStore()
	service := NewCompareService(store, &fixedProcessor{}, nil)

	_, err := service.SemanticCompare(context.Background(), "src", "tgt", "", 1.5)
	assert.ErrorIs(t, err, compare.ErrInvalidThreshold)
	assert.Zero(t, store.calls)

	_, err = service.SemanticCompare(context.Background(), "src", "tgt", "", -0.2)
	assert.ErrorIs(t, err, compare.ErrInvalidThreshold)
}

// TestSemanticCompareSectionFailureIsolated 测试单章节失败不影响其他章节
func TestSemanticCompareSectionFailureIsolated(t *testing.T) {
	store := newFakeStore(
		labelDoc("src", "DrugA",
			models.Section{Key: "dosage", Text: "Take one tablet daily.", Order: 1},
			models.Section{Key: "warnings", Text: "FAILME", Order: 2},
		),
		labelDoc("tgt", "DrugB",
			models.Section{Key: "dosage", Text: "Take one tablet daily.", Order: 1},
			models.Section{Key: "warnings", Text: "Other warning text.", Order: 2},
		),
	)
	processor := &fixedProcessor{
		vectors: map[string][]float32{"Take one tablet daily.": {1, 0, 0, 0}},
		failOn:  "FAILME",
	}
	service := NewCompareService(store, processor, nil)

	result, err := service.SemanticCompare(context.Background(), "src", "tgt", "", 0.65)
	require.NoError(t, err)
	require.Len(t, result.Diffs, 2)

	assert.Empty(t, result.Diffs[0].Error)
	assert.NotEmpty(t, result.Diffs[0].Matches)

	// 失败章节带错误信息，无配对结果
	assert.NotEmpty(t, result.Diffs[1].Error)
	assert.Contains(t, result.Diffs[1].Error, "warnings")
	assert.Empty(t, result.Diffs[1].Matches)
}

// TestSemanticCompareCacheHit 测试命中缓存后不再调用嵌入服务
func TestSemanticCompareCacheHit(t *testing.T) {
	store := newFakeStore(
		labelDoc("src", "DrugA", models.Section{Key: "dosage", Text: "Take one tablet daily.", Order: 1}),
		labelDoc("tgt", "DrugB", models.Section{Key: "dosage", Text: "Take one tablet daily.", Order: 1}),
	)
	processor := &fixedProcessor{vectors: map[string][]float32{
		"Take one tablet daily.": {1, 0, 0, 0},
	}}
	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)
	service := NewCompareService(store, processor, memCache)

	first, err := service.SemanticCompare(context.Background(), "src", "tgt", "", 0.65)
	require.NoError(t, err)
	callsAfterFirst := processor.callCount()

	second, err := service.SemanticCompare(context.Background(), "src", "tgt", "", 0.65)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, processor.callCount())
	assert.Equal(t, first.Summary, second.Summary)

	// 不同阈值是独立的缓存键
	_, err = service.SemanticCompare(context.Background(), "src", "tgt", "", 0.9)
	require.NoError(t, err)
	assert.Greater(t, processor.callCount(), callsAfterFirst)
}
