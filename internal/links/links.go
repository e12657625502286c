// Package links derives Fatebook question links and recognises them in text.
package links

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Alias1177/Fatebook/models"
)

const (
	// ServiceURL is the origin of every produced link, regardless of the API base URL.
	ServiceURL = "https://fatebook.io"

	questionPrefix = ServiceURL + "/q/"
	embedPrefix    = ServiceURL + "/embed/q/"
	embedQuery     = "?compact=true&requireSignIn=false"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\x{0B}\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`)

	// [label](https://fatebook.io/q/<slug>--<id>); the greedy slug makes the last "--" the separator.
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\((https://fatebook\.io/q/[^)]*--([^)]+))\)`)
)

// Match is one markdown question link found in a line of text.
// Start and End are character (rune) offsets; End is exclusive.
type Match struct {
	Label      string
	URL        string
	QuestionID string
	Start      int
	End        int
}

// Contains reports whether offset lies within the match, both ends inclusive.
func (m Match) Contains(offset int) bool {
	return offset >= m.Start && offset <= m.End
}

// Slugify replaces every whitespace run with a hyphen and lowercases the result.
func Slugify(title string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(title, "-"))
}

// CanonicalURL builds https://fatebook.io/q/<slug>--<id>.
func CanonicalURL(id, title string) string {
	return questionPrefix + Slugify(title) + "--" + id
}

// MarkdownLink wraps the canonical URL as [title](url).
func MarkdownLink(q models.Question) string {
	return "[" + q.Title + "](" + CanonicalURL(q.ID, q.Title) + ")"
}

// Derive builds the shareable link for a question.
func Derive(q models.Question) models.DerivedLink {
	return models.DerivedLink{
		URL:      CanonicalURL(q.ID, q.Title),
		Markdown: MarkdownLink(q),
	}
}

// FindAll returns every question link in text, in scan order.
func FindAll(text string) []Match {
	indexes := markdownLink.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(indexes))
	for _, idx := range indexes {
		matches = append(matches, Match{
			Label:      text[idx[2]:idx[3]],
			URL:        text[idx[4]:idx[5]],
			QuestionID: text[idx[6]:idx[7]],
			Start:      utf8.RuneCountInString(text[:idx[0]]),
			End:        utf8.RuneCountInString(text[:idx[1]]),
		})
	}
	return matches
}

// ResolveEmbeddedID returns the ID of the first link whose span contains offset.
func ResolveEmbeddedID(text string, offset int) (string, bool) {
	for _, m := range FindAll(text) {
		if m.Contains(offset) {
			return m.QuestionID, true
		}
	}
	return "", false
}

// IDFromHref extracts the question ID from a rendered hyperlink.
// The href is not parsed as a URL: slugs keep punctuation, so "?" may precede the ID.
func IDFromHref(href string) (string, bool) {
	if !strings.HasPrefix(href, questionPrefix) {
		return "", false
	}

	rest := strings.TrimPrefix(href, questionPrefix)
	i := strings.LastIndex(rest, "--")
	if i < 0 || i+2 == len(rest) {
		return "", false
	}
	return rest[i+2:], true
}

// EmbedURL is the iframe address for a question. The same ID always yields the same URL.
func EmbedURL(id string) string {
	return embedPrefix + id + embedQuery
}

// NewEmbed builds a preview for id.
func NewEmbed(id string) models.Embed {
	return models.Embed{QuestionID: id, URL: EmbedURL(id)}
}
