// Package pkg provides the core libraries for spellchain.
//
// A spell is assembled as a strictly ordered chain of typed blocks:
//
//	Target → Magic School → Projectile Form
//
// The libraries are organized as:
//
//  1. [stage] - the fixed stage sequence and each stage's option catalog
//  2. [chain] - the block chain state machine: selection, single and
//     cascading deletion with deferred timing, and the render projection
//  3. [graph] - JSON snapshots of a chain
//  4. [render/nodelink] - Graphviz DOT and SVG diagrams of a snapshot
//  5. [errors] - structured error codes shared by every surface
//  6. [observability] - optional hooks for chain and HTTP events
//  7. [buildinfo] - version information injected at build time
//
// # Quick Start
//
//	b := chain.New(chain.Options{})
//	_ = b.SelectByID("target-1", "enemy")
//	_ = b.SelectByID("magicSchool-1", "fire_school")
//	_ = b.SelectByID("projectileForm-1", "sphere")
//	sp, _ := b.Spell() // Fire School Sphere
//
// [stage]: github.com/matzehuels/spellchain/pkg/stage
// [chain]: github.com/matzehuels/spellchain/pkg/chain
// [graph]: github.com/matzehuels/spellchain/pkg/graph
// [render/nodelink]: github.com/matzehuels/spellchain/pkg/render/nodelink
// [errors]: github.com/matzehuels/spellchain/pkg/errors
// [observability]: github.com/matzehuels/spellchain/pkg/observability
// [buildinfo]: github.com/matzehuels/spellchain/pkg/buildinfo
package pkg
