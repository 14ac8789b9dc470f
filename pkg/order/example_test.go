package order_test

import (
	"fmt"

	"github.com/matzehuels/buildorder/pkg/dag"
	"github.com/matzehuels/buildorder/pkg/order"
)

func ExampleResolve() {
	g := dag.New(nil)
	for _, id := range []string{"app", "ui", "model", "junit"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "app", To: "ui", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "app", To: "model", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "ui", To: "model", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "model", To: "junit", Kind: dag.RefLibrary})

	res, err := order.Resolve(g, []string{"app"}, order.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Order)
	// Output:
	// [model ui app]
}

func ExampleResolve_cycles() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "A"})
	_ = g.AddNode(dag.Node{ID: "B"})
	_ = g.AddEdge(dag.Edge{From: "A", To: "B", Kind: dag.RefProject})
	_ = g.AddEdge(dag.Edge{From: "B", To: "A", Kind: dag.RefProject})

	res, _ := order.Resolve(g, []string{"A"}, order.Options{ReportCycles: true})
	fmt.Println("order:", res.Order)
	fmt.Println("cycles:", res.Cycles)

	_, err := order.Resolve(g, []string{"A"}, order.Options{StrictCycles: true})
	fmt.Println(err)
	// Output:
	// order: [B A]
	// cycles: [[A B]]
	// CYCLE_DETECTED: cyclic reference between 2 nodes (A -> B)
}
