// Package io provides JSON import and export for reference graphs and
// resolution results.
//
// # Graph Format
//
//	{
//	  "nodes": [
//	    {"id": "app"},
//	    {"id": "core"},
//	    {"id": "org.lib_1.0.0", "kind": "bundle", "version": "1.0.0"},
//	    {"id": "missing", "kind": "external"}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "core", "kind": "project"},
//	    {"from": "app", "to": "missing", "kind": "library"}
//	  ]
//	}
//
// Node kind defaults to "project" and edge kind to "project". Nodes may carry
// "fragment_host" and a freeform "meta" object. [WriteJSON] followed by
// [ReadJSON] yields an equal graph; the pipeline accepts such a file in
// place of a workspace.
//
// # Reports
//
// [OrderReport] and [ClasspathReport] are the serialized forms of build-order
// and classpath results. The pipeline caches them and the HTTP API returns
// them.
package io
