package filter

import (
	"strings"
	"testing"

	"deepchat-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain answer kept", "Hi there", "Hi there"},
		{"hedging phrase dropped", "I think I should say hi", ""},
		{"case insensitive phrase", "Let Me check that.\nParis is the capital.", "Paris is the capital."},
		{"leading marker dropped", "So, the answer is 4.\n2 + 2 = 4", "2 + 2 = 4"},
		{"marker must be a whole word", "Sometimes it rains.\nWellington is windy.", "Sometimes it rains.\nWellington is windy."},
		{"marker after indentation", "   however this is noise\nresult", "result"},
		{"blank lines removed", "line one\n\n   \nline two\n", "line one\nline two"},
		{"marker alone on a line", "Hmm\nDone.", "Done."},
		{"crlf input", "Wait, what?\r\nAnswer: 42\r\n", "Answer: 42"},
		{"empty input", "", ""},
		{"only whitespace", "  \n\t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(rules, tt.input))
		})
	}
}

func TestApplyUserMessageUnchanged(t *testing.T) {
	msg := model.Message{Role: model.RoleUser, Content: "So, I think\n\nwe should talk"}
	assert.Equal(t, msg, Apply(DefaultRules(), msg))
}

func TestApplyEmptyContentUnchanged(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant}
	assert.Equal(t, msg, Apply(DefaultRules(), msg))
}

func TestApplyFiltersAssistantRoles(t *testing.T) {
	rules := DefaultRules()

	reply := Apply(rules, model.Message{Role: model.RoleAssistant, Content: "Okay.\nHello!"})
	assert.Equal(t, model.Message{Role: model.RoleAssistant, Content: "Hello!"}, reply)

	reasoning := Apply(rules, model.Message{Role: model.RoleAssistantReasoning, Content: "I think I should say hi"})
	assert.Empty(t, reasoning.Content)
	assert.Equal(t, model.RoleAssistantReasoning, reasoning.Role)
}

func TestWithExtendsWithoutMutating(t *testing.T) {
	base := DefaultRules()
	extended := base.With([]string{"  As An AI  ", ""}, []string{"Basically"})

	assert.Len(t, extended.Phrases, len(base.Phrases)+1)
	assert.Len(t, extended.LeadingWords, len(base.LeadingWords)+1)
	assert.NotContains(t, base.Phrases, "as an ai")

	assert.Equal(t, "kept", Text(extended, "As an AI model, I cannot.\nBasically, no.\nkept"))
	assert.Equal(t, "As an AI model, I cannot.", Text(base, "As an AI model, I cannot."))
}

// 保留下来的每一行都非空，且不含任何短语或行首词。
func TestTextOutputInvariants(t *testing.T) {
	rules := DefaultRules()
	inputs := []string{
		"I THINK so\nSO what\nfine\n\n\t\nHowever, no\nThe User asked\nok\nokay then\nokra is green",
		strings.Repeat("hmm, let me think\nreal line\n", 50),
		"\x00\xff invalid utf8 \xfe\nso\xffwhat\nwell-known fact",
		"\n\n\n",
		"你好\n所以\nwait... 好的",
	}

	for _, in := range inputs {
		out := Text(rules, in)
		if out == "" {
			continue
		}
		for _, line := range strings.Split(out, "\n") {
			trimmed := strings.TrimSpace(line)
			assert.NotEmpty(t, trimmed, "blank line survived in %q", out)
			lower := strings.ToLower(trimmed)
			for _, p := range rules.Phrases {
				assert.NotContains(t, lower, p)
			}
			assert.False(t, startsWithWord(lower, rules.LeadingWords), "line %q starts with a marker", line)
		}
	}
}

func TestTextMarkerWordBoundary(t *testing.T) {
	assert.Equal(t, "okra is green", Text(DefaultRules(), "okra is green"))
	assert.Equal(t, "", Text(DefaultRules(), "well-known fact"))
}
