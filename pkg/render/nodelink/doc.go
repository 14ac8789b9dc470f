// Package nodelink renders workspace reference graphs as node-link diagrams.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true, Order: res.Order})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Edges are styled per reference kind so project references, library
// references and container references can be told apart. External
// pseudo-nodes standing in for missing references are dashed. Passing the
// cycles found by the order package highlights them in red.
//
// # Rendering
//
// [RenderSVG] and [RenderPNG] use the WebAssembly build of Graphviz bundled
// with go-graphviz; no system installation is required.
package nodelink
