package publish

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage breaks a document into segments of at most limit
// characters. Splits happen at paragraph boundaries first, then at
// sentence boundaries within an oversized paragraph. A single sentence
// longer than the limit is cut at word boundaries, and a single word
// longer than the limit is hard-cut, so no segment ever exceeds the
// limit and ordinary prose is never split mid-sentence.
func SplitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	appendUnit := func(unit, separator string) {
		if current.Len() > 0 && current.Len()+len(separator)+len(unit) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(separator)
		}
		current.WriteString(unit)
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimRight(paragraph, "\n ")
		if paragraph == "" {
			continue
		}

		if len(paragraph) <= limit {
			appendUnit(paragraph, "\n\n")
			continue
		}

		// Oversized paragraph: fall back to line boundaries so Markdown
		// list items stay on their own lines, then sentence boundaries.
		for _, line := range strings.Split(paragraph, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(line) <= limit {
				appendUnit(line, "\n")
				continue
			}
			for _, sentence := range splitSentences(line) {
				if len(sentence) <= limit {
					appendUnit(sentence, " ")
					continue
				}
				for _, piece := range splitWords(sentence, limit) {
					appendUnit(piece, " ")
				}
			}
		}
	}
	flush()

	return segments
}

// splitSentences breaks a line after sentence-ending punctuation
// followed by whitespace.
func splitSentences(line string) []string {
	var sentences []string
	start := 0
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		atEnd := i == len(runes)-1
		boundary := (r == '.' || r == '!' || r == '?') && (atEnd || runes[i+1] == ' ')
		if !boundary && !atEnd {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	return sentences
}

// splitWords hard-splits an oversized sentence at word boundaries.
// A single word longer than the limit is cut at the character level so
// no piece can ever exceed it.
func splitWords(sentence string, limit int) []string {
	var pieces []string
	var current strings.Builder
	for _, word := range strings.Fields(sentence) {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		for len(word) > limit {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(word[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			pieces = append(pieces, word[:cut])
			word = word[cut:]
		}
		if word == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
