// Package stage defines the fixed, ordered catalog of spell block stages.
//
// # Overview
//
// A spell is assembled from three stages that always appear in the same order:
//
//	Target (0) → Magic School (1) → Projectile Form (2)
//
// Each [Kind] carries a stable type tag, a total order index and a static,
// ordered set of [Option] values. The catalog is defined at package init and
// is never mutated, so it is safe to read from any goroutine.
//
// # Node IDs
//
// Block instances are named deterministically from their stage tag plus an
// instance counter ("target-1", "magicSchool-1"). [StageOf] and [OrderOf]
// recover the stage from an id by tag prefix, which makes the order index the
// single source of truth for sequencing decisions elsewhere:
//
//	stage.OrderOf("magicSchool-1") // 1
//	next, ok := stage.Next(stage.Target)
//	// next == stage.MagicSchool, ok == true
package stage
