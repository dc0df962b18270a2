package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"welcome-api/internal/metrics"
)

// Translation：静态表中的一条欢迎语
type Translation struct {
	Language string
	Message  string
}

// 文档注释：离线欢迎语表
// 背景：无推理凭证或需完全离线演示时使用；与地理定位静态前缀表的国家集合一致。
var DefaultTranslations = map[string]Translation{
	"US": {Language: "en", Message: "Welcome"},
	"GB": {Language: "en", Message: "Welcome"},
	"FR": {Language: "fr", Message: "Bienvenue"},
	"ES": {Language: "es", Message: "Bienvenido"},
	"DE": {Language: "de", Message: "Willkommen"},
	"CN": {Language: "zh", Message: "欢迎"},
	"JP": {Language: "ja", Message: "ようこそ"},
	"IN": {Language: "hi", Message: "स्वागत है"},
	"MY": {Language: "ms", Message: "Selamat Datang"},
}

// DefaultGreeting：国家未知或不在表中时使用的欢迎语
var DefaultGreeting = Translation{Language: "en", Message: "Welcome"}

// UnknownRegion：国家未知时输出的区域代码（ISO 3166 保留的未知区域）
const UnknownRegion = "ZZ"

// Static：基于静态表的推理实现
// 背景：输出与托管模型相同格式的 JSON 文本，使解析与缓存路径保持一致。
// 约束：国家未知或不在表中时使用默认欢迎语；未配置默认欢迎语时返回 ErrUnavailable 以触发回退。
type Static struct {
	table map[string]Translation
	def   *Translation
}

// NewStatic：构建静态推理；table 为空时使用 DefaultTranslations，默认欢迎语为 DefaultGreeting
func NewStatic(table map[string]Translation) *Static {
	d := DefaultGreeting
	return NewStaticWithDefault(table, &d)
}

// NewStaticWithDefault：指定默认欢迎语；def 为 nil 时未知国家返回错误
func NewStaticWithDefault(table map[string]Translation, def *Translation) *Static {
	if len(table) == 0 {
		table = DefaultTranslations
	}
	return &Static{table: table, def: def}
}

func (s *Static) Infer(_ context.Context, q Query) (string, error) {
	metrics.InferenceRequestsTotal.WithLabelValues("static").Inc()
	cc := strings.ToUpper(strings.TrimSpace(q.Country))
	t, ok := s.table[cc]
	if !ok {
		if s.def == nil {
			metrics.InferenceFailTotal.WithLabelValues("static", "unknown_country").Inc()
			return "", fmt.Errorf("%w: no translation for %q", ErrUnavailable, q.Country)
		}
		t = *s.def
		if cc == "" || cc == "DEFAULT" {
			cc = UnknownRegion
		}
	}
	b, err := json.Marshal(map[string]string{
		"country_code": cc,
		"language":     t.Language,
		"message":      t.Message,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return string(b), nil
}
