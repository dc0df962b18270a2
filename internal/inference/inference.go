// 包 inference：请求生成式文本服务给出国家、语言与本地化欢迎语
// 背景：推理调用是整条流水线中最昂贵、受限流的资源；此处只负责构造提示词并取回原始文本，
// 结构化解析交给 parser 包，失败以可区分的错误返回，由编排层决定回退。
package inference

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing：缺少凭证，未发起任何网络调用
	ErrConfigMissing = errors.New("inference: credential missing")
	// ErrUnavailable：网络错误、非 2xx 或响应体不可用
	ErrUnavailable = errors.New("inference: upstream unavailable")
)

// Query：一次推理请求的输入
// 约束：Country 为空表示需由模型根据 IP 一并推断国家
type Query struct {
	IP      string
	Country string
}

// CountryKnown：国家已由地理定位给出
func (q Query) CountryKnown() bool { return q.Country != "" }

// Client：推理能力
// 约束：实现需尊重 ctx 的超时与取消；返回模型原始输出文本
type Client interface {
	Infer(ctx context.Context, q Query) (string, error)
}

// ClientFunc：函数适配器
type ClientFunc func(ctx context.Context, q Query) (string, error)

func (f ClientFunc) Infer(ctx context.Context, q Query) (string, error) { return f(ctx, q) }

const fullPrompt = `You are a localization assistant. A website visitor connects from the IP address %s.
Determine the visitor's most likely country, the primary language spoken there, and write a short, warm welcome message in that language.
Respond with a strict JSON object and nothing else, using exactly these keys:
{"country_code": "<ISO 3166-1 alpha-2, uppercase>", "language": "<ISO 639-1, lowercase>", "message": "<welcome message>"}`

const countryPrompt = `You are a localization assistant. A website visitor connects from the country with ISO code %s.
Determine the primary language spoken there and write a short, warm welcome message in that language.
Respond with a strict JSON object and nothing else, using exactly these keys:
{"language": "<ISO 639-1, lowercase>", "message": "<welcome message>"}`

// BuildPrompt：按是否已知国家选择提示词模板
func BuildPrompt(q Query) string {
	if q.CountryKnown() {
		return fmt.Sprintf(countryPrompt, q.Country)
	}
	return fmt.Sprintf(fullPrompt, q.IP)
}
