// Package order computes the build order of workspace projects.
//
// [Resolve] walks the reference graph depth-first from the requested roots,
// following only edges whose kind counts as an ordering dependency (project
// references by default), and emits every node after all of its
// dependencies. Roots and children are visited in lexical order so identical
// input always produces identical output.
//
// # Cycles
//
// Cyclic references are tolerated by default: when the walk meets a node
// that is still in progress, the back edge is treated as already satisfied
// and the walk continues. The result is still a complete order, but not a
// true topological sort for the nodes of the cycle. Set
// [Options.ReportCycles] to collect the cycles seen during the same pass, or
// [Options.StrictCycles] to fail with a CYCLE_DETECTED error instead.
//
//	res, err := order.Resolve(g, []string{"app"}, order.Options{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Order) // dependencies first, "app" last
package order
