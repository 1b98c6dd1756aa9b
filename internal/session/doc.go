// Package session keeps the per-user conversation state of the bot: the
// selected search filter, the current result set with its cursor and the
// single pending input mode. State is volatile and lives as long as the process.
package session
