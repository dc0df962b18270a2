package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWithCommentary(t *testing.T) {
	raw := "Sure! {\"country_code\":\"FR\",\"language\":\"fr\",\"message\":\"Bienvenue.\"} Hope that helps!"

	loc, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, Locale{CountryCode: "FR", Language: "fr", Message: "Bienvenue."}, loc)
}

func TestParseNormalizes(t *testing.T) {
	raw := `{"country_code":" jp ","language":" JA ","message":"  ようこそ。 "}`

	loc, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, "JP", loc.CountryCode)
	assert.Equal(t, "ja", loc.Language)
	assert.Equal(t, "ようこそ。", loc.Message)
}

func TestParseKeepsMessageCase(t *testing.T) {
	loc, err := Parse(`{"language":"en","message":"Welcome To Paris"}`, false)
	require.NoError(t, err)
	assert.Equal(t, "Welcome To Paris", loc.Message)
	assert.Empty(t, loc.CountryCode)
}

func TestParseFailures(t *testing.T) {
	cases := map[string]struct {
		raw            string
		requireCountry bool
	}{
		"no braces":        {raw: "Bienvenue! Welcome!", requireCountry: true},
		"empty":            {raw: "", requireCountry: true},
		"unclosed":         {raw: `{"language":"fr","message":"Bienvenue"`, requireCountry: false},
		"invalid json":     {raw: `{language: fr}`, requireCountry: false},
		"missing country":  {raw: `{"language":"fr","message":"Bienvenue"}`, requireCountry: true},
		"missing message":  {raw: `{"country_code":"FR","language":"fr"}`, requireCountry: true},
		"missing language": {raw: `{"country_code":"FR","message":"Bienvenue"}`, requireCountry: true},
		"empty message":    {raw: `{"country_code":"FR","language":"fr","message":"  "}`, requireCountry: true},
		"non string":       {raw: `{"country_code":"FR","language":"fr","message":42}`, requireCountry: true},
		"bad language":     {raw: `{"country_code":"FR","language":"french","message":"Bienvenue"}`, requireCountry: true},
		"bad country":      {raw: `{"country_code":"France","language":"fr","message":"Bienvenue"}`, requireCountry: true},
		"array first":      {raw: `[{"language":"fr"}] {"language":"fr","message":"x"`, requireCountry: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.raw, tc.requireCountry)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.raw, pe.Raw)
			assert.NotEmpty(t, pe.Reason)
		})
	}
}

func TestParseReducesRegionTaggedLanguage(t *testing.T) {
	for in, want := range map[string]string{
		"zh-CN":   "zh",
		"pt_BR":   "pt",
		"EN-us":   "en",
		"sr-Latn": "sr",
		"fil":     "fil",
	} {
		loc, err := Parse(`{"country_code":"CN","language":"`+in+`","message":"欢迎"}`, true)
		require.NoError(t, err, in)
		assert.Equal(t, want, loc.Language, in)
	}

	for _, in := range []string{"und", "und-JP", "x-klingon"} {
		_, err := Parse(`{"country_code":"JP","language":"`+in+`","message":"ようこそ"}`, true)
		assert.Error(t, err, in)
	}
}

func TestParseDropsBadOptionalCountry(t *testing.T) {
	loc, err := Parse(`{"country_code":"France","language":"fr","message":"Bienvenue"}`, false)
	require.NoError(t, err)
	assert.Empty(t, loc.CountryCode)
	assert.Equal(t, "fr", loc.Language)
}

func TestExtractObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"surrounded", `x {"a":1} y {"b":2}`, `{"a":1}`, true},
		{"nested", `pre {"a":{"b":{"c":1}},"d":2} post`, `{"a":{"b":{"c":1}},"d":2}`, true},
		{"brace in string", `{"m":"a } b { c"} tail`, `{"m":"a } b { c"}`, true},
		{"escaped quote", `{"m":"say \"}\" now"}`, `{"m":"say \"}\" now"}`, true},
		{"escaped backslash", `{"m":"c:\\"} {"x":1}`, `{"m":"c:\\"}`, true},
		{"stray close first", `} {"a":1}`, `{"a":1}`, true},
		{"unbalanced", `{"a":{"b":1}`, ``, false},
		{"none", `hello`, ``, false},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractObject(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMarkdownFence(t *testing.T) {
	raw := "```json\n{\"country_code\":\"DE\",\"language\":\"de\",\"message\":\"Willkommen!\"}\n```"

	loc, err := Parse(raw, true)
	require.NoError(t, err)
	assert.Equal(t, Locale{CountryCode: "DE", Language: "de", Message: "Willkommen!"}, loc)
}
