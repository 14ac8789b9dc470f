// Package bundle resolves the classpath of OSGi-style bundles.
//
// A [Bundle] has an [Identity] (symbolic name and version), ordered
// required-bundle and imported-package [Requirement]s, an optional
// fragment-host requirement and the filesystem locations it contributes.
// Bundles backed by a workspace project name that project; pre-built
// binary bundles do not.
//
// Requirements are matched to concrete bundles by a [Provider], typically a
// target platform (see package platform). The [Resolver] walks the
// requirements of a root bundle depth-first and returns a [Classpath]: one
// [Entry] per transitively required bundle, in first-reached order, plus the
// workspace projects among them, which the caller needs to compute the
// build order.
//
// # Fragments
//
// A fragment never contributes an entry of its own. Its locations are merged
// into the entry of its host, and its requirements are walked together with
// the host's. Which host that is belongs to the [Provider]: resolving a
// fragment asks [Provider.Host] and walks that host first, so the classpath
// of a fragment contains everything the classpath of its host does.
//
// Classpaths returned by a [Resolver] are copies. Callers may change them
// freely.
//
// # Failures
//
// A mandatory requirement without provider fails with UNRESOLVED_DEPENDENCY.
// A requirement with several providers is handled by the configured
// [AmbiguityPolicy]; the default fails with AMBIGUOUS_PROVIDER. In both
// cases the error chain lists the bundle identities from the root down to
// the failing requirement.
//
// # Sessions
//
// A Resolver memoizes merged entries and complete results in a [Session].
// Call [Resolver.Reset] when the provider changes. Resolvers are not safe
// for concurrent use; create one per goroutine.
package bundle
