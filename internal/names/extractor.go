// Package names splits a transcript into the individual names that were spoken.
package names

import (
	"regexp"
	"strings"
)

// DefaultDelimiter is the word spoken between names
const DefaultDelimiter = "and"

// Extractor splits transcripts on a delimiter word.
//
// By default the split is a case-sensitive substring split, so "Brandon" yields
// "Br" and "on". Whole-word mode restricts matches to the standalone word; enabling
// it changes which transcripts produce extra segments. The zero value splits on
// DefaultDelimiter.
type Extractor struct {
	delimiter   string
	wordPattern *regexp.Regexp // nil unless whole-word mode is on
}

// NewExtractor creates an extractor for the given delimiter
func NewExtractor(delimiter string, wholeWord bool) *Extractor {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	e := &Extractor{delimiter: delimiter}
	if wholeWord {
		e.wordPattern = regexp.MustCompile(`\b` + regexp.QuoteMeta(delimiter) + `\b`)
	}
	return e
}

// Extract returns the trimmed segments of transcript in spoken order.
// A transcript with n delimiters yields n+1 segments; empty segments such as
// the one between "and and" are kept.
func (e *Extractor) Extract(transcript string) []string {
	var segments []string
	if e.wordPattern != nil {
		segments = e.wordPattern.Split(transcript, -1)
	} else {
		delimiter := e.delimiter
		if delimiter == "" {
			delimiter = DefaultDelimiter
		}
		segments = strings.Split(transcript, delimiter)
	}

	names := make([]string, len(segments))
	for i, segment := range segments {
		names[i] = strings.TrimSpace(segment)
	}
	return names
}
