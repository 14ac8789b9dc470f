// Package pkg holds the libraries behind the buildorder CLI and API.
//
// # Layout
//
//   - [dag]: reference graph between projects and bundles, typed by kind
//   - [workspace]: workspace descriptions in TOML, HCL or JSON
//   - [order]: build order over the counted reference kinds
//   - [bundle], [platform], [version]: bundle classpath resolution against
//     a target platform with OSGi version ranges
//   - [diagnose]: root cause of unresolved or ambiguous chains
//   - [pipeline]: load, container stage, order and classpath with caching
//   - [cache]: file, Redis and MongoDB result caches
//   - [observability]: hooks and Prometheus metrics
//   - [io]: JSON graph and report encoding
//   - [render/nodelink]: DOT, SVG and PNG drawings of the graph
//
// # Data Flow
//
//	workspace.toml
//	     ↓
//	[workspace] Parse + BuildGraph
//	     ↓
//	[pipeline] container stage (bundle classpaths add container edges)
//	     ↓
//	[order] Resolve        [bundle] ResolveClasspath
//	     ↓                       ↓
//	[io] reports, [render/nodelink] drawings
//
// [dag]: github.com/matzehuels/buildorder/pkg/dag
// [workspace]: github.com/matzehuels/buildorder/pkg/workspace
// [order]: github.com/matzehuels/buildorder/pkg/order
// [bundle]: github.com/matzehuels/buildorder/pkg/bundle
// [platform]: github.com/matzehuels/buildorder/pkg/platform
// [version]: github.com/matzehuels/buildorder/pkg/version
// [diagnose]: github.com/matzehuels/buildorder/pkg/diagnose
// [pipeline]: github.com/matzehuels/buildorder/pkg/pipeline
// [cache]: github.com/matzehuels/buildorder/pkg/cache
// [observability]: github.com/matzehuels/buildorder/pkg/observability
// [io]: github.com/matzehuels/buildorder/pkg/io
// [render/nodelink]: github.com/matzehuels/buildorder/pkg/render/nodelink
package pkg
