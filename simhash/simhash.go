// Package simhash provides near-duplicate fingerprints for listing text and
// widget snapshots.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// Fingerprint computes a 64-bit SimHash of the given text.
// Tokens are lowercased and stripped of surrounding punctuation, so listings
// that differ only in casing or trailing commas land close in Hamming space.
func Fingerprint(text string) uint64 {
	var vector [64]int
	seen := false

	for _, word := range strings.Fields(text) {
		word = normalizeToken(word)
		if word == "" {
			continue
		}
		seen = true

		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}
	if !seen {
		return 0
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// normalizeToken lowercases a word and trims punctuation from its edges.
// Inner punctuation stays, so "42,000" and "dock-high" survive intact.
func normalizeToken(word string) string {
	word = strings.ToLower(word)
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
