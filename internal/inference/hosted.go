package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"welcome-api/internal/logger"
	"welcome-api/internal/metrics"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Model    string        `json:"model"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Hosted：OpenAI 兼容的 chat completions 客户端
// 约束：Bearer 鉴权；超时由 http.Client 控制（默认 15s）；不做重试
type Hosted struct {
	Endpoint string
	APIKey   string
	Model    string
	Client   *http.Client
}

// NewHosted：构建托管推理客户端；timeout<=0 时使用 15s
func NewHosted(endpoint, apiKey, model string, timeout time.Duration) *Hosted {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Hosted{Endpoint: endpoint, APIKey: apiKey, Model: model, Client: &http.Client{Timeout: timeout}}
}

// Configured：是否具备调用所需凭证
func (h *Hosted) Configured() bool { return h.APIKey != "" }

// 文档注释：调用生成接口
// 返回：choices[0].message.content 原文；缺少密钥返回 ErrConfigMissing（不发请求），
// 网络错误、非 2xx、响应无法解码或无候选均包装为 ErrUnavailable。
func (h *Hosted) Infer(ctx context.Context, q Query) (string, error) {
	if h.APIKey == "" {
		metrics.InferenceFailTotal.WithLabelValues("hosted", "config").Inc()
		return "", ErrConfigMissing
	}
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{{Role: "user", Content: BuildPrompt(q)}},
		Model:    h.Model,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+h.APIKey)

	t0 := time.Now()
	metrics.InferenceRequestsTotal.WithLabelValues("hosted").Inc()
	logger.L().Debug("inference_req", "ip", q.IP, "country", q.Country, "model", h.Model)
	resp, err := h.Client.Do(req)
	metrics.InferenceDurationMs.WithLabelValues("hosted").Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		logger.L().Error("inference_http_error", "err", err)
		metrics.InferenceFailTotal.WithLabelValues("hosted", "network").Inc()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.L().Error("inference_status_error", "status", resp.StatusCode, "body", string(snippet))
		metrics.InferenceFailTotal.WithLabelValues("hosted", "status").Inc()
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var r chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("inference_decode_error", "err", err)
		metrics.InferenceFailTotal.WithLabelValues("hosted", "decode").Inc()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(r.Choices) == 0 {
		metrics.InferenceFailTotal.WithLabelValues("hosted", "empty").Inc()
		return "", fmt.Errorf("%w: no choices", ErrUnavailable)
	}
	content := r.Choices[0].Message.Content
	logger.L().Debug("inference_resp", "ip", q.IP, "chars", len(content), "duration_ms", time.Since(t0).Milliseconds())
	return content, nil
}
