// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the CallSession struct) live in the core package
// to centralize domain contracts. Keeping only implementations here prevents
// higher level packages (engine, webhook) from depending on concrete storage.
//
// Add additional backends in sub-packages without changing any calling code;
// only the wiring layer decides which implementation to instantiate.
package session
