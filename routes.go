package fogsim

// routes.go provides functions to create and access routes through the
// device hierarchy.
//
// The general approach is to convert the hierarchy's parent-child links into
// the data structures used by a graph package that has built-in path
// discovery algorithms.  Weighting each edge by 1, a shortest path minimizes
// the number of hops, which in a tree is the unique path through the closest
// common ancestor.  The Dijkstra algorithm we call computes a tree of
// shortest paths from a named node, so if we want the route from src to dst
// we either compute such a tree rooted in src, or look up a cached version of
// an already computed tree.  Failing that we look for a known tree rooted in
// dst, whose path to src is by symmetry the reversed route we want.

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// rtEndpts holds the IDs of the starting and ending points of a route
type rtEndpts struct {
	srcID, dstID int
}

// a routeTable holds the graph/path representation of the device hierarchy
// and the shortest-path trees and routes already computed over it
type routeTable struct {
	// gNodes[i] refers to the device with id i
	gNodes map[int]simple.Node

	// cache of computed shortest-path trees, keyed by the device id of the tree root
	cachedSP map[int]path.Shortest

	// the graph/path representation of the connection graph
	connGraph graph.Graph

	// set once the connection graph has been constructed
	built bool

	// cache of discovered routes
	rtCache map[rtEndpts][]int
}

// createRouteTable is a constructor
func createRouteTable() *routeTable {
	rtt := new(routeTable)
	rtt.gNodes = make(map[int]simple.Node)
	rtt.cachedSP = make(map[int]path.Shortest)
	rtt.rtCache = make(map[rtEndpts][]int)
	return rtt
}

// buildConnGraph builds the graph.Graph representation of the device
// connection graph, from the map of device id to the ids of devices it
// connects to
func (rtt *routeTable) buildConnGraph(edges map[int][]int) {
	cg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for nodeID := range edges {
		_, present := rtt.gNodes[nodeID]
		if present {
			continue
		}
		rtt.gNodes[nodeID] = simple.Node(nodeID)
	}

	// transform the input edge lists to edges in the graph module representation
	for nodeID, edgeList := range edges {
		for _, nbrID := range edgeList {
			if nodeID == nbrID {
				continue
			}
			weightedEdge := simple.WeightedEdge{F: rtt.gNodes[nodeID], T: rtt.gNodes[nbrID], W: 1.0}
			cg.SetWeightedEdge(weightedEdge)
		}
	}
	rtt.connGraph = cg
	rtt.built = true
}

// getSPTree returns the shortest path tree rooted in input argument 'from'.
// If the tree is found in the cache it is returned, if not it is computed, saved, and returned.
func (rtt *routeTable) getSPTree(from int) path.Shortest {
	spTree, present := rtt.cachedSP[from]
	if present {
		return spTree
	}
	spTree = path.DijkstraFrom(rtt.gNodes[from], rtt.connGraph)
	rtt.cachedSP[from] = spTree
	return spTree
}

// convertNodeSeq extracts the device ids from a sequence of graph nodes
// (e.g. like a path) and returns that list
func convertNodeSeq(nsQ []graph.Node) []int {
	rtn := []int{}
	for _, node := range nsQ {
		rtn = append(rtn, int(node.ID()))
	}
	return rtn
}

// findRoute returns the route (as a sequence of device identifiers,
// inclusive of both endpoints) from the source device to the destination
// device, computing and caching it on first use
func (topo *Topology) findRoute(srcID, dstID int) []int {
	rtt := topo.routeCache

	endpoints := rtEndpts{srcID: srcID, dstID: dstID}
	rt, found := rtt.rtCache[endpoints]
	if found {
		return rt
	}

	if !rtt.built {
		rtt.buildConnGraph(topo.connGraph)
	}

	var route []int

	// use an existing tree rooted in srcID if we have one
	spTree, present := rtt.cachedSP[srcID]
	if present {
		nodeSeq, _ := spTree.To(int64(dstID))
		route = convertNodeSeq(nodeSeq)
	} else {
		// a tree rooted in the destination serves too, with the path reversed
		spTree, present = rtt.cachedSP[dstID]
		if present {
			revNodeSeq, _ := spTree.To(int64(srcID))
			revRoute := convertNodeSeq(revNodeSeq)
			lenR := len(revRoute)
			for idx := 0; idx < lenR; idx++ {
				route = append(route, revRoute[lenR-idx-1])
			}
		} else {
			spTree = rtt.getSPTree(srcID)
			nodeSeq, _ := spTree.To(int64(dstID))
			route = convertNodeSeq(nodeSeq)
		}
	}

	rtt.rtCache[endpoints] = route
	return route
}

// routeLatency sums the link latencies along the route between two devices.
// Every link in the hierarchy is a parent-child link, and carries the
// child's uplink latency in both directions.
func (topo *Topology) routeLatency(srcID, dstID int) float64 {
	if srcID == dstID {
		return 0.0
	}

	route := topo.findRoute(srcID, dstID)
	latency := 0.0
	for idx := 1; idx < len(route); idx++ {
		hop := topo.DevByID[route[idx]]
		prev := topo.DevByID[route[idx-1]]

		// when moving upward the latency belongs to the device left behind
		if prev.ParentID == hop.DevID {
			latency += prev.UplinkLatency
		} else {
			latency += hop.UplinkLatency
		}
	}
	return latency
}
