package desensitize

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// Rule 脱敏规则
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	// Process 返回脱敏后的内容
	Process(s string) string
}

type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool {
	return !t.disabled.Load()
}

func (t *toggle) SetEnabled(enabled bool) {
	t.disabled.Store(!enabled)
}

// ContentRule 基于正则匹配整行内容的脱敏规则
type ContentRule struct {
	toggle
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule 创建内容规则，replacement 支持 $1 形式的分组引用
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" || pattern == "" {
		return nil, fmt.Errorf("desensitize: rule name and pattern are required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("desensitize: invalid pattern %q: %w", pattern, err)
	}
	return &ContentRule{name: name, pattern: re, replacement: replacement}, nil
}

// MustNewContentRule 同 NewContentRule，失败时 panic
func MustNewContentRule(name, pattern, replacement string) *ContentRule {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *ContentRule) Name() string {
	return r.name
}

func (r *ContentRule) Process(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule 基于 JSON 字段名的脱敏规则，仅处理字符串值
type FieldRule struct {
	toggle
	name        string
	field       string
	value       *regexp.Regexp
	replacement string
	json        *regexp.Regexp
}

// NewFieldRule 创建字段规则，字段值中匹配 pattern 的部分替换为 replacement
func NewFieldRule(name, field, pattern, replacement string) (*FieldRule, error) {
	if name == "" || field == "" || pattern == "" {
		return nil, fmt.Errorf("desensitize: rule name, field and pattern are required")
	}
	value, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("desensitize: invalid pattern %q: %w", pattern, err)
	}
	return &FieldRule{
		name:        name,
		field:       field,
		value:       value,
		replacement: replacement,
		json:        regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*"([^"]*)"`, regexp.QuoteMeta(field))),
	}, nil
}

// MustNewFieldRule 同 NewFieldRule，失败时 panic
func MustNewFieldRule(name, field, pattern, replacement string) *FieldRule {
	rule, err := NewFieldRule(name, field, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *FieldRule) Name() string {
	return r.name
}

func (r *FieldRule) Process(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.json.ReplaceAllStringFunc(s, func(match string) string {
		sub := r.json.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		return fmt.Sprintf(`"%s":"%s"`, r.field, r.value.ReplaceAllString(sub[1], r.replacement))
	})
}
