package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedTags are excluded from structural fingerprints. Widget snapshots
// carry varying numbers of injected script and style blocks between captures,
// and their presence says nothing about the layout the selectors target.
var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
}

// FingerprintDOM computes a SimHash of the document's structure: open tag
// names in order, shingled in threes. Text, attributes and scripts are
// ignored, so a re-render with fresh listing data keeps its fingerprint
// while a widget redesign moves it.
func FingerprintDOM(htmlStr string) uint64 {
	tags := extractTags(htmlStr)
	if len(tags) == 0 {
		return 0
	}

	shingles := makeShingles(tags, 3)
	if len(shingles) == 0 {
		// Too few tags for shingles; hash the tag sequence itself.
		return Fingerprint(strings.Join(tags, " "))
	}

	return Fingerprint(strings.Join(shingles, " "))
}

// extractTags walks HTML with the tokenizer and collects open tag names in
// document order, minus the skipped ones.
func extractTags(htmlStr string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			name := string(tn)
			if _, skip := skippedTags[name]; skip {
				continue
			}
			tags = append(tags, name)
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
