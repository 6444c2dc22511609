// Package state provides a lightweight per-user conversation session manager
// for Telegram bots. It tracks which flow and step a user is in and routes
// inputs to handlers bound per manager instance, keeping the package itself
// domain-agnostic.
package state
