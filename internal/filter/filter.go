// Package filter 过滤助手回复中泄露的推理过程。
package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"deepchat-go/internal/model"
)

// Rules 是小写的匹配表。
type Rules struct {
	// Phrases 在整行中按子串匹配（不区分大小写）
	Phrases []string
	// LeadingWords 只在行首按完整单词匹配
	LeadingWords []string
}

var defaultPhrases = []string{
	"i think",
	"i believe",
	"i need to",
	"i should",
	"i'll need",
	"let me",
	"let's see",
	"i'm not sure",
	"i wonder",
	"maybe i",
	"i guess",
	"the user",
	"my reasoning",
	"thinking about",
	"on second thought",
	"i recall",
}

var defaultLeadingWords = []string{
	"so",
	"well",
	"okay",
	"ok",
	"alright",
	"hmm",
	"wait",
	"actually",
	"anyway",
	"however",
	"therefore",
	"alternatively",
	"hence",
}

// DefaultRules 返回内置匹配表的副本。
func DefaultRules() Rules {
	return Rules{
		Phrases:      append([]string(nil), defaultPhrases...),
		LeadingWords: append([]string(nil), defaultLeadingWords...),
	}
}

// With 返回追加了额外短语和行首词的副本。条目转为小写，空条目忽略。
func (r Rules) With(phrases, leadingWords []string) Rules {
	out := Rules{
		Phrases:      append([]string(nil), r.Phrases...),
		LeadingWords: append([]string(nil), r.LeadingWords...),
	}
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out.Phrases = append(out.Phrases, p)
		}
	}
	for _, w := range leadingWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out.LeadingWords = append(out.LeadingWords, w)
		}
	}
	return out
}

// Apply 过滤消息内容。用户消息和空消息原样返回。
func Apply(rules Rules, msg model.Message) model.Message {
	if msg.Role == model.RoleUser || msg.Content == "" {
		return msg
	}
	msg.Content = Text(rules, msg.Content)
	return msg
}

// Text 删除空行和疑似推理的行，并去掉首尾空白。
func Text(rules Rules, s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if containsAny(lower, rules.Phrases) || startsWithWord(lower, rules.LeadingWords) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, "\r"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// startsWithWord 判断行首是否为完整单词：后面必须是行尾或非字母数字，
// 所以 "so," 命中 "so"，"sometimes" 不命中。
func startsWithWord(lower string, words []string) bool {
	for _, w := range words {
		if w == "" || !strings.HasPrefix(lower, w) {
			continue
		}
		rest := lower[len(w):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
