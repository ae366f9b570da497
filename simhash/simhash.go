// Package simhash detects near-duplicate text. The search pipeline uses it
// to avoid sending the same summary twice when several sources echo one
// another.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// Fingerprint computes a 64-bit SimHash of the given text.
// Words are lowercased and stripped of surrounding punctuation, hashed with
// FNV-64a, and accumulated into a bit vector.
func Fingerprint(text string) uint64 {
	words := normalize(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
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

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

func normalize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			words = append(words, f)
		}
	}
	return words
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

// Set remembers fingerprints of texts already accepted. It is not safe for
// concurrent use.
type Set struct {
	threshold int
	seen      []uint64
}

// NewSet returns a Set treating texts within threshold bits as duplicates.
// A negative threshold disables duplicate detection.
func NewSet(threshold int) *Set {
	return &Set{threshold: threshold}
}

// Add records text and reports whether it is new, i.e. not a near
// duplicate of anything added before.
func (s *Set) Add(text string) bool {
	if s.threshold < 0 {
		return true
	}
	fp := Fingerprint(text)
	for _, prev := range s.seen {
		if Similar(prev, fp, s.threshold) {
			return false
		}
	}
	s.seen = append(s.seen, fp)
	return true
}

// Len returns how many distinct texts were accepted.
func (s *Set) Len() int { return len(s.seen) }
