// Package chain implements the spell block-chain state machine.
//
// # Overview
//
// A chain is a short, strictly ordered path of block nodes, one per
// [stage.Kind] at most, connected by edges that only ever join nodes whose
// stage orders are consecutive integers:
//
//	target-1 → magicSchool-1 → projectileForm-1
//
// [Graph] stores nodes and edges and enforces the structural rules. [Builder]
// is the reconciler: it is the only mutator of the graph and of the completion
// map, and every operation leaves both consistent before returning.
//
// # Operations
//
//   - [Builder.Select] records a choice and grows the chain by one node if the
//     next stage has no node yet. Changing an existing choice never touches
//     downstream nodes.
//   - [Builder.DeleteSingle] removes one node after a delay and rebuilds the
//     edge set from scratch. Only exactly consecutive pairs are reconnected, so
//     removing a middle node leaves the lower node disconnected.
//   - [Builder.DeleteCascade] removes a node and every node at a later stage.
//     Completion entries are cleared on a per-node stagger before the final
//     structural removal.
//
// # Timing
//
// Deletions are deferred through a [Scheduler] so an external view can animate
// the transition. [Timeline] is a virtual clock driven by the caller and keeps
// every callback on the caller's goroutine; [TimerScheduler] uses wall-clock
// timers and serializes callbacks behind a caller-supplied lock.
//
// # Projection
//
// [Builder.Project] derives one [View] per live node with freshly bound
// handlers, so a renderer never invokes a closure captured from an older state.
//
// # Concurrency
//
// Builder is not safe for concurrent use. All calls, including scheduled
// callbacks, must be serialized by the caller.
package chain
