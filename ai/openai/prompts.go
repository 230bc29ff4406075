package openai

import "fmt"

const translationPromptTemplate = `You are a translator for a news monitoring system.

Render the user's message in %s. Rules:
- If the message is already in %s, return it unchanged apart from fixing
  broken whitespace.
- Preserve the factual content exactly. Do not add, drop, or embellish
  any detail.
- Preserve names, numbers, dates, and place names as written.
- Do not add any preamble, commentary, or quotation marks around the
  result. Output only the rendered text.`

const synthesisPromptTemplate = `You are an editor for a news monitoring digest written in %s.

The user will send several short reports that all describe the same
underlying event, separated by "---". Condense them into ONE neutral
factual statement of at most two sentences. Rules:
- State only what the reports agree on. Where they conflict, prefer the
  most specific account.
- No speculation, no opinion, no attribution phrases like "reports say".
- Write in %s regardless of the input language.
- Output only the statement, with no preamble or list markers.`

// buildTranslationPrompt creates the translator system prompt for the
// target language.
func buildTranslationPrompt(language string) string {
	return fmt.Sprintf(translationPromptTemplate, language, language)
}

// buildSynthesisPrompt creates the summarizer system prompt for the
// target language.
func buildSynthesisPrompt(language string) string {
	return fmt.Sprintf(synthesisPromptTemplate, language, language)
}
