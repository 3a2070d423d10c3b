// Package domain holds the core types of the campaign engine: compiled
// automaton definitions, durable conversation snapshots, drafts and the
// error taxonomy. It has no dependencies on storage or transport.
package domain
