// Package engine is the campaign automaton core: the compiled-template
// catalog, the per-conversation instance factory, and the dispatcher that
// rehydrates a conversation, applies one trigger, runs the transition's
// action and persists the new resting point.
//
// Dispatches for the same conversation are serialized by a refcounted
// in-process lock manager, optionally backed by a distributed locker when
// more than one replica serves traffic. Different conversations run fully
// concurrently; the catalog is read-only after warm-up.
package engine
