// Package render groups the call-graph renderers.
//
// The [nodelink] subpackage produces Graphviz DOT, SVG and PNG output. The
// simulator YAML and docker-compose outputs are text serializations and live
// in package io.
//
// [nodelink]: github.com/matzehuels/meshgraph/pkg/render/nodelink
package render
