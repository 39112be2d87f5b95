package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Explanation 差异解释结果
type Explanation struct {
	Explanation  string   `json:"explanation"`  // 差异的具体解释
	Significance string   `json:"significance"` // 临床意义
	Implication  string   `json:"implication"`  // 市场影响
	ActionItems  []string `json:"action_items"` // 建议的后续动作
}

// explainSystemPrompt 解释服务的系统提示词
const explainSystemPrompt = `You are a pharmaceutical regulatory and marketing expert analyzing drug label differences.

Provide:
1. Clear explanation of what differs
2. Clinical significance (safety, efficacy, patient impact)
3. Marketing implications (advantage, gap, or neutral)
4. Specific action items

Be concise, precise, and actionable.`

// ExplainerConfig 解释服务配置
type ExplainerConfig struct {
	MaxContextChars int // 送入模型的单侧文本长度上限
}

// DefaultExplainerConfig 返回默认解释服务配置
func DefaultExplainerConfig() ExplainerConfig {
	return ExplainerConfig{
		MaxContextChars: 2000,
	}
}

// Explainer 差异解释服务
// 按需对单个已配对的差异生成自然语言解释，不参与核心比较流程
type Explainer struct {
	client Client
	config ExplainerConfig
}

// NewExplainer 创建解释服务
func NewExplainer(client Client, config ExplainerConfig) *Explainer {
	if config.MaxContextChars <= 0 {
		config.MaxContextChars = DefaultExplainerConfig().MaxContextChars
	}
	return &Explainer{client: client, config: config}
}

// Explain 解释一对文本片段的差异
// sourceText和targetText允许单侧为空（对应unique_to_source/omission）
func (e *Explainer) Explain(ctx context.Context, sourceName, targetName, sourceText, targetText, sectionKey string) (*Explanation, error) {
	userPrompt := e.buildPrompt(sourceName, targetName, sourceText, targetText, sectionKey)

	resp, err := e.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: explainSystemPrompt},
		{Role: RoleUser, Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate explanation: %w", err)
	}

	return parseExplanation(resp.Text), nil
}

// buildPrompt 构造用户提示词
func (e *Explainer) buildPrompt(sourceName, targetName, sourceText, targetText, sectionKey string) string {
	srcText := truncateForPrompt(sourceText, e.config.MaxContextChars)
	tgtText := truncateForPrompt(targetText, e.config.MaxContextChars)
	if srcText == "" {
		srcText = "[No matching text]"
	}
	if tgtText == "" {
		tgtText = "[No matching text]"
	}

	var b strings.Builder
	b.WriteString("Analyze this difference between two drug labels:\n\n")
	fmt.Fprintf(&b, "SOURCE DRUG: %s\nText: %s\n\n", sourceName, srcText)
	fmt.Fprintf(&b, "COMPETITOR DRUG: %s\nText: %s\n\n", targetName, tgtText)
	fmt.Fprintf(&b, "Section: %s\n\n", sectionKey)
	b.WriteString("Provide:\n")
	b.WriteString("1. Explanation of the difference\n")
	b.WriteString("2. Clinical significance\n")
	b.WriteString("3. Marketing implication\n")
	b.WriteString("4. Action items (2-3 specific recommendations)")
	return b.String()
}

// parseExplanation 把模型的自由文本回答解析成结构化字段
// 按小节标题逐行归类，解析失败时退回到带默认值的整段回答
func parseExplanation(text string) *Explanation {
	var explanation, significance, implication strings.Builder
	var actions []string

	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "explanation") || strings.Contains(lower, "difference"):
			section = "explanation"
		case strings.Contains(lower, "clinical") || strings.Contains(lower, "significance"):
			section = "significance"
		case strings.Contains(lower, "marketing") || strings.Contains(lower, "implication"):
			section = "implication"
		case strings.Contains(lower, "action"):
			section = "actions"
		default:
			switch section {
			case "explanation":
				explanation.WriteString(line + " ")
			case "significance":
				significance.WriteString(line + " ")
			case "implication":
				implication.WriteString(line + " ")
			case "actions":
				if item := trimListMarker(line); item != "" {
					actions = append(actions, item)
				}
			}
		}
	}

	result := &Explanation{
		Explanation:  strings.TrimSpace(explanation.String()),
		Significance: strings.TrimSpace(significance.String()),
		Implication:  strings.TrimSpace(implication.String()),
		ActionItems:  actions,
	}

	// 解析不出结构时的兜底内容
	if result.Explanation == "" {
		result.Explanation = truncateForPrompt(text, 500)
	}
	if result.Significance == "" {
		result.Significance = "Review clinical data"
	}
	if result.Implication == "" {
		result.Implication = "Assess competitive positioning"
	}
	if len(result.ActionItems) == 0 {
		result.ActionItems = []string{
			"Review with medical affairs team",
			"Consider for future label updates",
		}
	}

	return result
}

// trimListMarker 剥掉列表项前缀（短横、圆点、编号）
// 不是列表项的行返回空字符串
func trimListMarker(line string) string {
	first, _ := utf8.DecodeRuneInString(line)
	if first != '-' && first != '*' && first != '•' && !unicode.IsDigit(first) {
		return ""
	}
	return strings.TrimLeft(line, "-•*0123456789. ")
}

// truncateForPrompt 按rune截断送入提示词的文本
func truncateForPrompt(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen])
}
