// 包 parser：从模型生成的自由文本中提取并校验欢迎语 JSON 对象
// 背景：生成式模型经常在 JSON 前后附带说明文字，甚至输出不完整对象；此处给出明确的提取文法，
// 任何失败都以 *ParseError 返回，绝不向上抛出 panic。
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale：解析后的本地化结果
type Locale struct {
	CountryCode string `json:"country_code"`
	Language    string `json:"language"`
	Message     string `json:"message"`
}

// ParseError：生成文本无法解析为 Locale
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "parse generation: " + e.Reason
}

func fail(raw, format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// 文档注释：解析生成文本
// 参数：raw 为模型原始输出；requireCountry 为 false 时（国家已由地理定位给出）允许缺少 country_code。
// 返回：规范化后的 Locale（国家大写、语言小写并归约为基础语言、消息仅去首尾空白）；失败返回 *ParseError。
// 约束：语言必须能解析出 ISO 639 基础语言代码，国家（若要求）必须是合法 ISO 3166 区域代码。
func Parse(raw string, requireCountry bool) (loc Locale, err error) {
	defer func() {
		if r := recover(); r != nil {
			loc = Locale{}
			err = fail(raw, "panic: %v", r)
		}
	}()
	obj, ok := ExtractObject(raw)
	if !ok {
		return Locale{}, fail(raw, "no json object found")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return Locale{}, fail(raw, "invalid json: %v", err)
	}
	required := []string{"language", "message"}
	if requireCountry {
		required = append([]string{"country_code"}, required...)
	}
	for _, k := range required {
		v, ok := fields[k]
		if !ok {
			return Locale{}, fail(raw, "missing key %q", k)
		}
		s, ok := v.(string)
		if !ok {
			return Locale{}, fail(raw, "key %q is not a string", k)
		}
		if strings.TrimSpace(s) == "" {
			return Locale{}, fail(raw, "key %q is empty", k)
		}
	}
	loc.Language = strings.ToLower(strings.TrimSpace(fields["language"].(string)))
	loc.Message = strings.TrimSpace(fields["message"].(string))
	if s, ok := fields["country_code"].(string); ok {
		loc.CountryCode = strings.ToUpper(strings.TrimSpace(s))
	}
	base, ok := baseLanguage(loc.Language)
	if !ok {
		return Locale{}, fail(raw, "bad language code %q", loc.Language)
	}
	loc.Language = base
	if loc.CountryCode != "" {
		if _, err := language.ParseRegion(loc.CountryCode); err != nil || len(loc.CountryCode) != 2 {
			if requireCountry {
				return Locale{}, fail(raw, "bad country code %q", loc.CountryCode)
			}
			loc.CountryCode = ""
		}
	}
	return loc, nil
}

// baseLanguage：把 BCP 47 标签（如 zh-CN、pt_BR）归约为基础语言代码
// 约束：无法解析或基础语言由区域推断而来（如 und-JP）时返回 false
func baseLanguage(s string) (string, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	b, conf := tag.Base()
	code := b.String()
	if conf != language.Exact || len(code) < 2 || len(code) > 3 {
		return "", false
	}
	return code, true
}

// 文档注释：提取首个平衡的花括号片段
// 文法：从第一个 '{' 开始计数嵌套深度，深度归零处结束；JSON 字符串字面量内部的花括号不计数，
// 字符串内反斜杠转义下一个字符。找不到 '{' 或直到文本结束仍未闭合时返回 false。
// 约束：只考察第一个候选片段，不向后继续搜索。
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
