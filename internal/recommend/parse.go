package recommend

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ReplyCount is the number of candidates produced per call.
const ReplyCount = 3

// minFragmentRunes is the shortest paragraph fragment kept by SplitParagraphs.
const minFragmentRunes = 10

// ParseStrategy extracts exactly ReplyCount replies from model text, or
// reports false.
type ParseStrategy struct {
	Name  string
	Parse func(text string) ([]string, bool)
}

// DefaultStrategies is the ordered parse cascade; the first success wins.
var DefaultStrategies = []ParseStrategy{
	{Name: "labeled", Parse: ParseLabeled},
	{Name: "numbered_lines", Parse: ParseNumberedLines},
	{Name: "paragraphs", Parse: SplitParagraphs},
	{Name: "equal_chunks", Parse: SplitEqualChunks},
}

// ParseReplies runs strategies in order and returns the first result along
// with the name of the strategy that produced it.
func ParseReplies(text string, strategies []ParseStrategy) ([]string, string, bool) {
	for _, s := range strategies {
		if replies, ok := s.Parse(text); ok {
			return replies, s.Name, true
		}
	}
	return nil, "", false
}

var (
	replyLabel      = regexp.MustCompile(`(?i)reply\s*([1-3])\s*[:\-]`)
	numberedLine    = regexp.MustCompile(`(?i)^(reply\s*[1-3]|\d+[.)])`)
	numberedPrefix  = regexp.MustCompile(`(?i)^(reply\s*[1-3][:\-]?\s*|\d+[.)]\s*)`)
	paragraphBreaks = regexp.MustCompile(`(?i)\n\n+|\n---\n|reply\s*[1-3]`)
	labelRemnant    = regexp.MustCompile(`^[:\-]\s*`)
)

func cleanReply(s string) string {
	return strings.Trim(strings.TrimSpace(s), "* \t\r\n")
}

// ParseLabeled extracts the segments following "Reply N:" labels, each
// ending at the next label or the end of the text.
func ParseLabeled(text string) ([]string, bool) {
	matches := replyLabel.FindAllStringIndex(text, -1)
	if len(matches) < ReplyCount {
		return nil, false
	}

	var replies []string
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		if reply := cleanReply(text[m[1]:end]); reply != "" {
			replies = append(replies, reply)
		}
	}
	if len(replies) < ReplyCount {
		return nil, false
	}
	return replies[:ReplyCount], true
}

// ParseNumberedLines collects lines starting with "1.", "2)" or "Reply N",
// stripping the label and skipping duplicates.
func ParseNumberedLines(text string) ([]string, bool) {
	var replies []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		reply := cleanReply(numberedPrefix.ReplaceAllString(line, ""))
		if reply == "" || seen[reply] {
			continue
		}
		seen[reply] = true
		replies = append(replies, reply)
	}
	if len(replies) < ReplyCount {
		return nil, false
	}
	return replies[:ReplyCount], true
}

// SplitParagraphs splits on blank lines, "---" separator lines and stray
// "Reply N" tokens, dropping the colon or dash left by a split label and
// keeping fragments longer than ten characters. Fewer than three fragments
// are padded by repeating the last one.
func SplitParagraphs(text string) ([]string, bool) {
	var fragments []string
	for _, part := range paragraphBreaks.Split(text, -1) {
		part = cleanReply(labelRemnant.ReplaceAllString(cleanReply(part), ""))
		if utf8.RuneCountInString(part) > minFragmentRunes {
			fragments = append(fragments, part)
		}
	}
	if len(fragments) == 0 {
		return nil, false
	}
	if len(fragments) > ReplyCount {
		fragments = fragments[:ReplyCount]
	}
	for len(fragments) < ReplyCount {
		fragments = append(fragments, fragments[len(fragments)-1])
	}
	return fragments, true
}

// SplitEqualChunks cuts the text into three contiguous pieces of roughly
// equal length. It may split mid-sentence. Text too short to split is used
// whole for every piece.
func SplitEqualChunks(text string) ([]string, bool) {
	whole := strings.TrimSpace(text)
	if whole == "" {
		return nil, false
	}

	runes := []rune(whole)
	n := len(runes)
	if n < ReplyCount {
		return []string{whole, whole, whole}, true
	}

	chunks := make([]string, ReplyCount)
	for i := range ReplyCount {
		chunk := strings.TrimSpace(string(runes[i*n/ReplyCount : (i+1)*n/ReplyCount]))
		if chunk == "" {
			chunk = whole
		}
		chunks[i] = chunk
	}
	return chunks, true
}
