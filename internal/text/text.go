// Package text extracts hashtags, mentions and links from status text.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/davecheney/revise/internal/algorithms"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxHashtagLength is the longest hashtag name, in runes, that will be recorded.
const MaxHashtagLength = 64

var (
	hashtagRe = regexp.MustCompile(`(?:^|[^/)\p{L}\p{N}_])#([\p{L}\p{N}_]*[\p{L}_·][\p{L}\p{N}_·]*)`)
	validTag  = regexp.MustCompile(`^[\p{L}\p{N}_]*[\p{L}_·][\p{L}\p{N}_·]*$`)
	mentionRe = regexp.MustCompile(`(?:^|[^/\p{L}\p{N}_])@([a-zA-Z0-9_]+(?:[a-zA-Z0-9_.-]*[a-zA-Z0-9_])?)(?:@([a-zA-Z0-9.-]+\.[a-zA-Z0-9-]+))?`)
	linkRe    = regexp.MustCompile(`https?://[^\s<>"']+`)

	fold = cases.Fold()
)

// Hashtags returns the normalised, de-duplicated hashtag names found in s,
// in order of first appearance.
func Hashtags(s string) []string {
	var names []string
	for _, m := range hashtagRe.FindAllStringSubmatch(s, -1) {
		if name, ok := NormalizeHashtag(m[1]); ok {
			names = append(names, name)
		}
	}
	return algorithms.Uniq(names)
}

// NormalizeHashtag returns the canonical form of a hashtag name; a leading
// # is removed, the name is NFKC normalised and case folded.
// It returns false if the result is not a valid hashtag.
func NormalizeHashtag(name string) (string, bool) {
	name = strings.TrimLeft(strings.TrimSpace(name), "#")
	name = fold.String(norm.NFKC.String(name))
	if name == "" || utf8.RuneCountInString(name) > MaxHashtagLength {
		return "", false
	}
	if !validTag.MatchString(name) {
		return "", false
	}
	return name, true
}

// A Mention is a reference to an account in status text.
// Domain is empty for mentions of local accounts.
type Mention struct {
	Username string
	Domain   string
}

// Mentions returns the de-duplicated mentions found in s.
func Mentions(s string) []Mention {
	var mentions []Mention
	for _, m := range mentionRe.FindAllStringSubmatch(s, -1) {
		mentions = append(mentions, Mention{
			Username: m[1],
			Domain:   strings.ToLower(m[2]),
		})
	}
	return algorithms.Uniq(mentions)
}

// Links returns the http and https links found in s.
func Links(s string) []string {
	return algorithms.Map(linkRe.FindAllString(s, -1), func(l string) string {
		return strings.TrimRight(l, ".,;:!?)")
	})
}
