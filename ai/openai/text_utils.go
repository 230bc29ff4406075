package openai

import "strings"

// truncateAtWord shortens text to at most limit characters, cutting at
// the last word boundary before the limit so no word is split.
func truncateAtWord(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}

	cut := text[:limit]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// collapseWhitespace normalizes runs of whitespace to single spaces
// while keeping paragraph breaks.
func collapseWhitespace(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	for i, p := range paragraphs {
		paragraphs[i] = strings.Join(strings.Fields(p), " ")
	}
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
