// Package model defines the provider-agnostic abstractions for talking to
// language models inside callflow. Models are only used as an optional
// fallback when classifying free speech the keyword vocabulary did not match.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface in sub-packages
// so the intent classifier stays decoupled from vendor SDKs.
package model
