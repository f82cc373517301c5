// Package session provides durable storage for the authenticated session: the
// access token, the refresh token, and the serialized user profile.
//
// A [Store] is the only component that touches persistence. Two backends are
// provided:
//
//   - [MemoryStore] : In-process storage. Stores created from the same
//     [MemoryHub] share state, which models independent browser tabs sharing
//     one localStorage area.
//   - [SQLiteStore] : Per-user durable storage shared across processes,
//     backed by SQLite. A polling watcher detects writes from other processes.
//
// Change notifications fire only for mutations made by a *different* store
// handle (another tab or process). A handle never observes its own writes,
// which is what lets the lifecycle controller mirror a remote logout without
// issuing a redundant clear of its own.
package session
