// Package embedding provides the text encoders behind the semantic scorer.
//
// Three providers are available:
//   - Hashing: an offline feature-hashing encoder with no external dependency.
//   - OpenAI: the OpenAI embeddings API via github.com/sashabaranov/go-openai.
//   - Local: any OpenAI-compatible server (Ollama, TEI, vLLM) via langchaingo.
//
// Remote providers run through a circuit breaker and retry with backoff.
package embedding
