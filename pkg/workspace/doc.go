// Package workspace loads workspace descriptions and turns them into the
// graphs and platforms the resolvers work on.
//
// A workspace lists projects with their references, the bundles built from
// those projects or shipped as binaries, target platforms and named project
// sets. The same schema can be written as TOML, HCL or JSON:
//
//	[[project]]
//	name     = "app"
//	projects = ["core"]
//
//	[[bundle]]
//	symbolic_name = "org.acme.app"
//	version       = "1.0.0"
//	project       = "app"
//	[[bundle.require]]
//	name  = "org.acme.core"
//	range = "[1.0,2.0)"
//
// In HCL, block labels carry the names and expressions may refer to
// environment variables and the workspace directory:
//
//	bundle "org.junit" {
//	  version   = "4.13.2"
//	  locations = ["${env.ECLIPSE_HOME}/plugins/org.junit_4.13.2.jar"]
//	}
//
// [BuildGraph] is the project graph loader: it creates one node per project
// and one edge per reference, and represents references to unknown IDs by
// external pseudo-nodes unless strict loading is requested.
package workspace
