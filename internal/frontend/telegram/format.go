package telegram

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

const (
	noResultsMsg = "No related titles found."

	maxMessageLen = 4096 // Telegram limit for message text
	maxSkippedLen = 1000 // budget for the skipped-titles footer
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// FormatScore renders a rating, or "n/a" when the source had no score.
func FormatScore(t core.RankedTitle) string {
	if !t.Known {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", t.Rating)
}

// FormatRankedList renders a ranking result as a MarkdownV2 numbered list.
// Skipped titles are listed in italics at the end. Titles that do not fit
// in one message are summarised as "...and N more".
func FormatRankedList(res *ranker.Result, source string) string {
	var footer string
	if res.HasSkipped() {
		footer = "\n\n" + FormatItalic("Skipped: "+skippedNames(res.Skipped))
	}
	if len(res.Titles) == 0 {
		return EscapeMdV2(noResultsMsg) + footer
	}

	lines := make([]string, len(res.Titles))
	for i, t := range res.Titles {
		lines[i] = fmt.Sprintf("%d\\. %s \\- %s", i+1, EscapeMdV2(t.Title), EscapeMdV2(FormatScore(t)))
	}
	more := func(n int) string { return EscapeMdV2(moreText(n)) }
	return joinWithin(FormatBold("Recommendations by "+source), lines, more, footer)
}

// FormatRankedListPlain renders the same content as FormatRankedList without markup.
func FormatRankedListPlain(res *ranker.Result, source string) string {
	var footer string
	if res.HasSkipped() {
		footer = "\n\nSkipped: " + skippedNames(res.Skipped)
	}
	if len(res.Titles) == 0 {
		return noResultsMsg + footer
	}

	lines := make([]string, len(res.Titles))
	for i, t := range res.Titles {
		lines[i] = fmt.Sprintf("%d. %s - %s", i+1, t.Title, FormatScore(t))
	}
	return joinWithin("Recommendations by "+source, lines, moreText, footer)
}

func moreText(n int) string {
	return fmt.Sprintf("...and %d more", n)
}

// joinWithin joins header and lines with newlines and appends footer,
// keeping the message within maxMessageLen. Lines that do not fit are
// replaced by more(count of dropped lines).
func joinWithin(header string, lines []string, more func(int) string, footer string) string {
	budget := maxMessageLen - messageLen(footer)

	var sb strings.Builder
	sb.WriteString(header)
	used := messageLen(header)
	for i, line := range lines {
		need := 1 + messageLen(line)
		if rest := len(lines) - i - 1; rest > 0 {
			need += 1 + messageLen(more(rest))
		}
		if used+need > budget {
			sb.WriteString("\n" + more(len(lines)-i))
			break
		}
		sb.WriteString("\n" + line)
		used += 1 + messageLen(line)
	}
	sb.WriteString(footer)
	return sb.String()
}

// skippedNames joins skipped titles, eliding the tail past maxSkippedLen.
func skippedNames(skipped []core.SkippedTitle) string {
	var sb strings.Builder
	for i, s := range skipped {
		if i > 0 && messageLen(sb.String())+messageLen(s.Title) > maxSkippedLen {
			sb.WriteString(", " + moreText(len(skipped)-i))
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.Title)
	}
	return sb.String()
}

// messageLen counts UTF-16 code units, the unit of Telegram's length limit.
func messageLen(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
