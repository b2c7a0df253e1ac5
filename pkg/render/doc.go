// Package render provides visualization rendering for spell chains.
//
// The [nodelink] subpackage renders a chain snapshot as a Graphviz node-link
// diagram, either as DOT source or as SVG:
//
//	dot := nodelink.ToDOT(graph.FromBuilder(b), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/spellchain/pkg/render/nodelink
package render
