// Package model defines the Backend abstraction between swarmgate and
// the LLM providers, plus a MockBackend for tests and examples.
// Provider adapters live in the subpackages model/openai (also serving
// OpenRouter-compatible endpoints) and model/anthropic.
package model
