// Package chunker splits a session document into sentence-aligned chunks that
// fit a token budget, carrying the tail of each chunk into the next one.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTokens is the budget used when none is given.
const DefaultMaxTokens = 2000

// overlapSentences is how many trailing sentences of a chunk prefix its successor.
const overlapSentences = 2

// Chunk is one summarization unit.
type Chunk struct {
	Index int
	// Text is what gets sent to the gateway, overlap prefix included.
	Text string
	// Sentences are the chunk's own sentences, without the overlap prefix.
	Sentences []string
}

// Overlap returns the prefix copied from the previous chunk, if any.
func (c Chunk) Overlap() string {
	own := strings.Join(c.Sentences, " ")
	if c.Text == own {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSuffix(c.Text, own), " ")
}

// CountTokens estimates tokens as a quarter of the character count.
func CountTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// SplitSentences cuts text after every '.', '!' or '?' that is followed by
// whitespace. Abbreviations and decimals are not special-cased.
func SplitSentences(text string) []string {
	var sentences []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	start := 0
	prevTerminal := false
	for i, r := range text {
		if prevTerminal && unicode.IsSpace(r) {
			add(text[start:i])
			start = i
		}
		prevTerminal = r == '.' || r == '!' || r == '?'
	}
	add(text[start:])

	return sentences
}

// Build greedily packs sentences into chunks of at most maxTokens estimated
// tokens. A single sentence over budget still becomes its own chunk. Every chunk
// after the first is prefixed with the last two sentences of its predecessor.
func Build(document string, maxTokens int) []Chunk {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var groups [][]string
	var current []string
	var currentText string

	for _, sentence := range SplitSentences(document) {
		candidate := sentence
		if currentText != "" {
			candidate = currentText + " " + sentence
		}

		if CountTokens(candidate) <= maxTokens {
			current = append(current, sentence)
			currentText = candidate
			continue
		}

		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = []string{sentence}
		currentText = sentence
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	chunks := make([]Chunk, len(groups))
	for i, sentences := range groups {
		text := strings.Join(sentences, " ")
		if i > 0 {
			prev := groups[i-1]
			if len(prev) >= overlapSentences {
				overlap := strings.Join(prev[len(prev)-overlapSentences:], " ")
				text = overlap + " " + text
			}
		}
		chunks[i] = Chunk{Index: i, Text: text, Sentences: sentences}
	}

	return chunks
}

// Texts returns the gateway-bound text of each chunk.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
