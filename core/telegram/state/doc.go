// Package state provides a lightweight FSM/session manager for Telegram bots.
// State transitions drive multi-step conversations such as registration
// dialogues and quiz runs.
package state
