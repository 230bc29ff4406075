// Package digest assembles ranked similarity groups into an ordered,
// size-bounded Markdown document with per-section statements and
// source citations.
package digest
