// Package ports defines the interfaces between the campaign engine core
// and its collaborators: transition-table sources, durable stores, prompt
// and reply-option lookups, and distributed locking.
//
// Adapters live under pkg/adapters. The engine depends only on these
// contracts, which keeps the automaton core storage- and transport-free.
package ports
