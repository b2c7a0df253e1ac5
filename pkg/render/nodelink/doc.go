// Package nodelink renders spell chains as node-link diagrams.
//
// # Usage
//
// Convert a chain snapshot to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(graph.FromBuilder(b), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The generated DOT uses left-to-right layout (rankdir=LR), one rounded box
// per block, matching the horizontal layout of the builder canvas. The
// permanent first block has a heavier outline, blocks without a selection
// are dotted and blocks awaiting deletion are dashed and grey.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
