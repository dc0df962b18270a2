package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"welcome-api/internal/logger"
)

// 文档注释：Azure Maps IP 定位响应结构
// 背景：仅解析国家 ISO 代码；其他字段对欢迎语无意义。
type azureResponse struct {
	CountryRegion struct {
		IsoCode string `json:"isoCode"`
	} `json:"countryRegion"`
	IPAddress string `json:"ipAddress"`
}

// AzureMapsLookup：Azure Maps 在线国家查询
type AzureMapsLookup struct {
	Endpoint   string
	Key        string
	APIVersion string
	Client     *http.Client
}

// NewAzureMapsLookup：构建 Azure Maps 查询；client 为空时使用 5s 超时的默认客户端
func NewAzureMapsLookup(endpoint, key string, client *http.Client) *AzureMapsLookup {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &AzureMapsLookup{Endpoint: endpoint, Key: key, APIVersion: "1.0", Client: client}
}

// 文档注释：查询单个 IP 的国家代码（REST）
// 参数：ctx 控制超时与取消；ip 为目标 IPv4 文本，不在此处校验格式。
// 返回：上游返回的 isoCode；缺少密钥返回 ErrConfigMissing 且不发起请求；网络错误与非 2xx 包装为 ErrUnavailable。
func (a *AzureMapsLookup) LookupCountry(ctx context.Context, ip string) (string, error) {
	if a.Key == "" {
		return "", ErrConfigMissing
	}
	q := url.Values{}
	q.Set("api-version", a.APIVersion)
	q.Set("ip", ip)
	q.Set("subscription-key", a.Key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logger.L().Debug("azure_maps_req", "ip", ip)
	resp, err := a.Client.Do(req)
	if err != nil {
		logger.L().Error("azure_maps_http_error", "err", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Error("azure_maps_status_error", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var r azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("azure_maps_decode_error", "err", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if r.CountryRegion.IsoCode == "" {
		return "", ErrNotFound
	}
	return r.CountryRegion.IsoCode, nil
}
