package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// 默认DashScope OpenAI兼容对话端点
	defaultChatEndpoint = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
)

func init() {
	RegisterClient("dashscope", NewDashScopeClient)
}

// chatRequest OpenAI兼容对话API请求结构
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

// chatResponse OpenAI兼容对话API响应结构
type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// DashScopeClient DashScope对话API客户端
type DashScopeClient struct {
	apiKey      string
	endpoint    string
	model       string
	httpClient  *http.Client
	maxRetries  int
	maxTokens   int
	temperature float32
}

// NewDashScopeClient 创建DashScope对话客户端
func NewDashScopeClient(opts ...Option) (Client, error) {
	cfg := NewConfig(opts...)

	if cfg.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, "invalid API key")
	}

	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultChatEndpoint
	}

	return &DashScopeClient{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint,
		model:       cfg.Model,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name 返回模型名称
func (c *DashScopeClient) Name() string {
	return c.model
}

// Generate 根据提示词生成回答
func (c *DashScopeClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

// Chat 进行多轮对话
func (c *DashScopeClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeInvalidRequest, "messages cannot be empty")
	}

	reqData := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var resp chatResponse
	if err := c.sendRequest(ctx, reqData, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, NewLLMError(ErrCodeEmptyResponse, "no choices returned")
	}

	return &Response{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: resp.Choices[0].FinishReason,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// sendRequest 发送HTTP请求，暂时性故障按指数退避重试
func (c *DashScopeClient) sendRequest(ctx context.Context, reqData interface{}, respData interface{}) error {
	body, err := json.Marshal(reqData)
	if err != nil {
		return NewLLMError(ErrCodeInvalidRequest, err.Error())
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return NewLLMError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return NewLLMError(ErrCodeInvalidRequest, err.Error())
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return NewLLMError(ErrCodeTimeout, err.Error())
			}
			lastErr = NewLLMError(ErrCodeNetworkError, err.Error())
			continue
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = NewLLMError(ErrCodeNetworkError, err.Error())
			continue
		}

		switch {
		case httpResp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(respBody, respData); err != nil {
				return NewLLMError(ErrCodeServerError, "invalid response body: "+err.Error())
			}
			return nil
		case httpResp.StatusCode == http.StatusUnauthorized:
			return NewLLMError(ErrCodeInvalidAPIKey, "invalid API key")
		case httpResp.StatusCode == http.StatusTooManyRequests:
			lastErr = NewLLMError(ErrCodeRateLimited, "rate limit exceeded")
		case httpResp.StatusCode >= 500:
			lastErr = NewLLMError(ErrCodeServerError,
				fmt.Sprintf("server error: status %d", httpResp.StatusCode))
		default:
			return NewLLMError(ErrCodeInvalidRequest,
				fmt.Sprintf("unexpected status %d: %s", httpResp.StatusCode, string(respBody)))
		}
	}

	return lastErr
}
