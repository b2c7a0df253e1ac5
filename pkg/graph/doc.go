// Package graph provides the serialization format for spell chains.
//
// A [Graph] is a snapshot of a [chain.Builder]: the live blocks in stage
// order with their displayed selections, the edges between consecutive
// blocks, the configuration summary and, once every stage is chosen, the
// completed spell. It is the payload of the HTTP API and the json output of
// the render command.
//
// # Format
//
//	{
//	  "id": "5f0c…",
//	  "nodes": [
//	    {"id": "target-1", "stage": "target", "title": "Target", "x": 50, "y": 200,
//	     "selected": {"id": "enemy", "label": "Enemy Target", "icon": "⚔️"}, "first": true},
//	    {"id": "magicSchool-1", "stage": "magicSchool", "title": "Magic School", "x": 350, "y": 200}
//	  ],
//	  "edges": [{"id": "edge-target-1-magicSchool-1", "from": "target-1", "to": "magicSchool-1"}],
//	  "summary": [{"node": "target-1", "stage": "target", "option": {"id": "enemy", …}}]
//	}
//
// Common operations:
//
//	data, _ := graph.MarshalChain(b)          // Builder → []byte
//	graph.WriteChainFile(b, "chain.json")     // Builder → File
//	g, _ := graph.UnmarshalGraph(data)        // []byte → Graph (validated)
//
// Snapshots are read-only; decoding one does not recreate a Builder.
package graph
