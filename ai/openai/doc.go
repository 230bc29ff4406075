// Package openai implements the ai service interfaces against
// OpenAI-compatible HTTP APIs (Ollama, LocalAI, vLLM, OpenAI itself).
//
// All clients are built on langchaingo and configured from ai.Config.
// Failures are wrapped in the ai package's sentinel errors so callers
// can distinguish a down service from a bad request.
package openai
