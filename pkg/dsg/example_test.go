package dsg_test

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

func ExampleGraph_hierarchy() {
	// A room containing one place, which contains a chair.
	g := dsg.New(dsg.WithLogger(log.New(io.Discard)))
	room := dsg.NewNodeID('r', 0)
	place := dsg.NewNodeID('p', 0)
	chair := dsg.NewNodeID('o', 0)
	g.EmplaceNode(dsg.LayerRooms, room, &dsg.NodeAttrs{Name: "kitchen"})
	g.EmplaceNode(dsg.LayerPlaces, place, &dsg.NodeAttrs{})
	g.EmplaceNode(dsg.LayerObjects, chair, &dsg.NodeAttrs{Name: "chair"})
	g.InsertEdge(room, place, nil)
	g.InsertEdge(place, chair, nil)

	parent, _ := g.FindNode(chair).Parent()
	fmt.Println("Parent of o0:", parent)
	fmt.Println("Children of r0:", g.FindNode(room).Children())
	fmt.Println("Edges:", g.NumEdges())
	// Output:
	// Parent of o0: p0
	// Children of r0: [p0]
	// Edges: 2
}

func ExampleGraph_EmplaceDynamicNode() {
	// Append a short trajectory for robot "a".
	g := dsg.New(dsg.WithLogger(log.New(io.Discard)))
	robot := dsg.NewPrefix('a')
	for i := range 3 {
		g.EmplaceDynamicNode(dsg.LayerAgents, robot, time.Duration(i)*time.Second, &dsg.NodeAttrs{}, true)
	}

	fmt.Println("Dynamic nodes:", g.NumDynamicNodes())
	fmt.Println("Trajectory edges:", g.NumDynamicEdges())
	fmt.Println("a1 siblings:", g.FindNode(robot.MakeID(1)).Siblings())
	// Output:
	// Dynamic nodes: 3
	// Trajectory edges: 2
	// a1 siblings: [a0 a2]
}

func ExampleGraph_RemoveAllStaleEdges() {
	// Rebuild connectivity: only edges seen again survive.
	g := dsg.New(dsg.WithLogger(log.New(io.Discard)))
	p := func(i uint64) dsg.NodeID { return dsg.NewNodeID('p', i) }
	for i := range uint64(3) {
		g.EmplaceNode(dsg.LayerPlaces, p(i), &dsg.NodeAttrs{})
	}
	g.InsertEdge(p(0), p(1), nil)
	g.InsertEdge(p(1), p(2), nil)

	g.MarkEdgesAsStale()
	g.AddOrUpdateEdge(p(0), p(1), nil)
	fmt.Println("Removed:", g.RemoveAllStaleEdges())
	fmt.Println("Remaining:", g.NumEdges())
	// Output:
	// Removed: 1
	// Remaining: 1
}

func ExampleGraph_MergeGraph() {
	quiet := dsg.WithLogger(log.New(io.Discard))
	backend := dsg.New(quiet)
	frontend := dsg.New(quiet)

	place := dsg.NewNodeID('p', 1)
	chair := dsg.NewNodeID('o', 1)
	frontend.EmplaceNode(dsg.LayerPlaces, place, &dsg.NodeAttrs{})
	frontend.EmplaceNode(dsg.LayerObjects, chair, &dsg.NodeAttrs{})
	frontend.InsertEdge(place, chair, nil)

	backend.MergeGraph(frontend, dsg.DefaultMergeConfig())
	fmt.Println("New nodes:", backend.GetNewNodes(true))
	fmt.Println("Has edge:", backend.HasEdge(chair, place))
	// Output:
	// New nodes: [o1 p1]
	// Has edge: true
}
