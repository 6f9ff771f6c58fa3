// Package core provides the foundational domain types and interfaces used by
// callflow. It defines the core abstractions for:
//
//   - Call sessions (per-call mutable state keyed by call connection id)
//   - Events (decoded platform callbacks correlated by call id and tag)
//   - Actions (fire-and-forget requests issued to the telephony platform)
//   - CallClient (the outbound platform contract, implemented elsewhere)
//   - Pluggable stores for sessions and recording locations
//
// Implementation concerns (persistence, orchestration, concrete workflows)
// live in sibling packages. core only exposes small types and interfaces so
// custom backends can be plugged in.
package core
