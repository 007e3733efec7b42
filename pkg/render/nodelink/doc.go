// Package nodelink draws call graphs as Graphviz node-link diagrams.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Each service becomes a dashed cluster labelled with its name and port.
// Each method is a rounded box labelled "service.method", filled by its
// classify category; entry points add their requests per second and a
// heavier outline.
//
// # Options
//
//   - Detailed: add latency and error distributions to labels
//   - ShowUnresolved: draw calls that name no method as dashed red edges
//   - Direction: Graphviz rankdir, "LR" by default
//
// Rendering uses the WebAssembly build of Graphviz bundled with
// github.com/goccy/go-graphviz, so no system Graphviz install is needed.
package nodelink
