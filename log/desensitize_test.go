package log

import (
	"testing"

	"github.com/kochabx/sessionkit/log/desensitize"
)

func TestDesensitizeHook(t *testing.T) {
	hook := desensitize.NewHook(desensitize.EmailRule, desensitize.BearerRule, desensitize.TokenRule)

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "email",
			input:    "login user@example.com",
			expected: "login u***r@e***.com",
		},
		{
			name:     "bearer header",
			input:    `{"authorization":"Bearer abc.def-ghi"}`,
			expected: `{"authorization":"Bearer ******"}`,
		},
		{
			name:     "token field",
			input:    `{"token": "abc.def","session_id":"s1"}`,
			expected: `{"token":"******","session_id":"s1"}`,
		},
		{
			name:     "no sensitive data",
			input:    `{"session_id":"s1","op":"delete"}`,
			expected: `{"session_id":"s1","op":"delete"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hook.Desensitize(tc.input); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestDesensitizeHookRuleManagement(t *testing.T) {
	hook := desensitize.NewHook()

	rule, err := desensitize.NewContentRule("sid", `sid-\d+`, "sid-****")
	if err != nil {
		t.Fatalf("NewContentRule: %v", err)
	}
	hook.Add(rule)
	if hook.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", hook.Len())
	}

	if got := hook.Desensitize("sid-123"); got != "sid-****" {
		t.Errorf("unexpected %s", got)
	}

	r, ok := hook.Rule("sid")
	if !ok {
		t.Fatal("rule not found")
	}
	r.SetEnabled(false)
	if got := hook.Desensitize("sid-123"); got != "sid-123" {
		t.Errorf("disabled rule applied: %s", got)
	}

	if !hook.Remove("sid") || hook.Len() != 0 {
		t.Error("remove failed")
	}
	if hook.Remove("sid") {
		t.Error("second remove should report false")
	}
}

func TestInvalidRules(t *testing.T) {
	if _, err := desensitize.NewContentRule("", "x", "y"); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := desensitize.NewFieldRule("f", "field", "(", "y"); err == nil {
		t.Error("expected error for bad pattern")
	}
}
