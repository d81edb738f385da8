package fogsim

// app.go holds the application graph data model: modules, the directed
// edges between modules and terminal endpoints, the tuple mappings that
// express selectivity, and the loops whose traversal latency is tracked.
// The Application accumulates a graph description through builder calls
// and performs its validation checks at each call, so a malformed
// definition is rejected before anything is built on top of it.

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// TupleDirection classifies an edge as carrying data toward the cloud
// root (Up) or toward the edge tier (Down)
type TupleDirection int

const (
	Up TupleDirection = iota
	Down
)

// TupleDirFromStr returns the TupleDirection named by a desc string
func TupleDirFromStr(dir string) TupleDirection {
	if dir == "down" {
		return Down
	}
	return Up
}

// TupleDirToStr returns the desc string for a TupleDirection
func TupleDirToStr(dir TupleDirection) string {
	if dir == Down {
		return "down"
	}
	return "up"
}

// EdgeKind classifies an edge by its endpoints: originating at a sensor,
// joining two modules, or terminating at an actuator
type EdgeKind int

const (
	SensorEdge EdgeKind = iota
	ModuleEdge
	ActuatorEdge
)

// EdgeKindFromStr returns the EdgeKind named by a desc string
func EdgeKindFromStr(kind string) EdgeKind {
	switch kind {
	case "sensor":
		return SensorEdge
	case "actuator":
		return ActuatorEdge
	}
	return ModuleEdge
}

// EdgeKindToStr returns the desc string for an EdgeKind
func EdgeKindToStr(kind EdgeKind) string {
	switch kind {
	case SensorEdge:
		return "sensor"
	case ActuatorEdge:
		return "actuator"
	}
	return "module"
}

// An AppModule is a named logical processing unit with a declared RAM
// footprint.  Modules are created once at application-definition time and
// bound to exactly one device before the simulation starts.
type AppModule struct {
	Name string
	RAM  int
}

// An AppEdge is a directed, labeled connection between two graph nodes.
// Each endpoint is a module name, a sensor name, or an actuator name,
// as constrained by Kind.  TupleType labels the data carried on the edge
// and is unique across the application's edges.
type AppEdge struct {
	Source    string
	Dest      string
	CPULength float64
	NWLength  float64
	TupleType string
	Direction TupleDirection
	Kind      EdgeKind
}

// A TupleMapping associates a module and an incoming tuple type with an
// outgoing tuple type and the selectivity of the emission.  Several
// mappings may share a (module, incoming type) pair; each fires
// independently.
type TupleMapping struct {
	Module      string
	InType      string
	OutType     string
	Selectivity float64
}

// An AppLoop is an ordered sequence of node names whose end-to-end
// traversal latency is of interest.
type AppLoop struct {
	LoopID int
	Nodes  []string
}

// Application owns the modules, edges, tuple mappings, and loops of one
// application graph.  All lookups are scoped to the Application value.
type Application struct {
	Name string

	Modules   map[string]*AppModule
	Sensors   []string
	Actuators []string

	Edges      []*AppEdge
	edgeByType map[string]*AppEdge

	// mappings indexed first by module name and then by incoming tuple type
	Mappings map[string]map[string][]*TupleMapping

	Loops []*AppLoop

	// node name to an id usable in the graph package, for reachability checks
	nodeID map[string]int64
	numIDs int64

	sealed bool
}

// CreateApplication is a constructor.
func CreateApplication(name string) *Application {
	app := new(Application)
	app.Name = name
	app.Modules = make(map[string]*AppModule)
	app.Sensors = make([]string, 0)
	app.Actuators = make([]string, 0)
	app.Edges = make([]*AppEdge, 0)
	app.edgeByType = make(map[string]*AppEdge)
	app.Mappings = make(map[string]map[string][]*TupleMapping)
	app.Loops = make([]*AppLoop, 0)
	app.nodeID = make(map[string]int64)
	return app
}

// nameKnown reports whether a name is registered as a module, sensor, or actuator
func (app *Application) nameKnown(name string) bool {
	_, present := app.Modules[name]
	return present || slices.Contains(app.Sensors, name) || slices.Contains(app.Actuators, name)
}

// registerNode issues graph ids for node names as they first appear
func (app *Application) registerNode(name string) {
	_, present := app.nodeID[name]
	if present {
		return
	}
	app.nodeID[name] = app.numIDs
	app.numIDs += 1
}

// AddAppModule registers a module with the application.
func (app *Application) AddAppModule(name string, ram int) error {
	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}
	if app.nameKnown(name) {
		return fmt.Errorf("module %s: %w", name, ErrDuplicateName)
	}
	app.Modules[name] = &AppModule{Name: name, RAM: ram}
	app.registerNode(name)
	return nil
}

// AddSensorSource registers a sensor name as a legal source endpoint for
// sensor-originated edges.
func (app *Application) AddSensorSource(name string) error {
	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}
	if app.nameKnown(name) {
		return fmt.Errorf("sensor %s: %w", name, ErrDuplicateName)
	}
	app.Sensors = append(app.Sensors, name)
	app.registerNode(name)
	return nil
}

// AddActuatorSink registers an actuator name as a legal destination
// endpoint for actuator-terminated edges.
func (app *Application) AddActuatorSink(name string) error {
	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}
	if app.nameKnown(name) {
		return fmt.Errorf("actuator %s: %w", name, ErrDuplicateName)
	}
	app.Actuators = append(app.Actuators, name)
	app.registerNode(name)
	return nil
}

// AddAppEdge includes a directed edge in the application graph.  The edge
// endpoints must be registered names appropriate to the declared kind: a
// sensor-originated edge runs from a sensor to a module, an inter-module
// edge joins two modules, and an actuator-terminated edge runs from a
// module to an actuator.  Nothing is recorded when an error is returned.
func (app *Application) AddAppEdge(source, dest string, cpuLength, nwLength float64,
	tupleType string, direction TupleDirection, kind EdgeKind) error {

	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}

	// no self-edges
	if source == dest {
		return fmt.Errorf("edge %s->%s: %w", source, dest, ErrInvalidParameter)
	}

	_, srcIsModule := app.Modules[source]
	_, dstIsModule := app.Modules[dest]

	switch kind {
	case SensorEdge:
		if !slices.Contains(app.Sensors, source) || !dstIsModule {
			return fmt.Errorf("edge %s->%s: %w", source, dest, ErrUnknownEndpoint)
		}
	case ModuleEdge:
		if !srcIsModule || !dstIsModule {
			return fmt.Errorf("edge %s->%s: %w", source, dest, ErrUnknownEndpoint)
		}
	case ActuatorEdge:
		if !srcIsModule || !slices.Contains(app.Actuators, dest) {
			return fmt.Errorf("edge %s->%s: %w", source, dest, ErrUnknownEndpoint)
		}
	}

	_, present := app.edgeByType[tupleType]
	if present {
		return fmt.Errorf("tuple type %s: %w", tupleType, ErrDuplicateName)
	}

	edge := &AppEdge{Source: source, Dest: dest, CPULength: cpuLength, NWLength: nwLength,
		TupleType: tupleType, Direction: direction, Kind: kind}
	app.Edges = append(app.Edges, edge)
	app.edgeByType[tupleType] = edge
	return nil
}

// EdgeByTupleType returns the edge carrying the named tuple type, or nil.
func (app *Application) EdgeByTupleType(tupleType string) *AppEdge {
	return app.edgeByType[tupleType]
}

// AddTupleMapping includes a selectivity rule: a tuple of type inType
// arriving at the named module emits a tuple of type outType with the
// given probability.  The incoming type must label an edge into the
// module and the outgoing type an edge out of it.
func (app *Application) AddTupleMapping(module, inType, outType string, selectivity float64) error {
	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}

	_, present := app.Modules[module]
	if !present {
		return fmt.Errorf("module %s: %w", module, ErrUnknownModule)
	}

	inEdge, present := app.edgeByType[inType]
	if !present || inEdge.Dest != module {
		return fmt.Errorf("module %s incoming type %s: %w", module, inType, ErrUnknownTupleType)
	}
	outEdge, present := app.edgeByType[outType]
	if !present || outEdge.Source != module {
		return fmt.Errorf("module %s outgoing type %s: %w", module, outType, ErrUnknownTupleType)
	}

	if selectivity < 0.0 || selectivity > 1.0 {
		return fmt.Errorf("module %s mapping %s->%s value %f: %w",
			module, inType, outType, selectivity, ErrInvalidSelectivity)
	}

	_, present = app.Mappings[module]
	if !present {
		app.Mappings[module] = make(map[string][]*TupleMapping)
	}
	tm := &TupleMapping{Module: module, InType: inType, OutType: outType, Selectivity: selectivity}
	app.Mappings[module][inType] = append(app.Mappings[module][inType], tm)
	return nil
}

// buildNodeGraph builds the graph package representation of the
// application graph, for reachability analysis
func (app *Application) buildNodeGraph() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for _, id := range app.nodeID {
		dg.AddNode(simple.Node(id))
	}
	for _, edge := range app.Edges {
		from := simple.Node(app.nodeID[edge.Source])
		to := simple.Node(app.nodeID[edge.Dest])
		dg.SetEdge(simple.Edge{F: from, T: to})
	}
	return dg
}

// reachable reports whether dest can be reached from source along the
// application's directed edges
func (app *Application) reachable(dg *simple.DirectedGraph, source, dest string) bool {
	srcID, present := app.nodeID[source]
	if !present {
		return false
	}
	dstID, present := app.nodeID[dest]
	if !present {
		return false
	}

	found := false
	bfs := traverse.BreadthFirst{}
	bfs.Walk(dg, simple.Node(srcID), func(n graph.Node, d int) bool {
		if n.ID() == dstID {
			found = true
			return true
		}
		return false
	})
	return found
}

// SetLoops validates and registers the application's tracked loops.
// Consecutive names in a loop must be joined by an edge, or transitively
// reachable through the graph's edges.
func (app *Application) SetLoops(loops [][]string) error {
	if app.sealed {
		return fmt.Errorf("application %s: %w", app.Name, ErrSealedModel)
	}

	dg := app.buildNodeGraph()

	validated := make([]*AppLoop, 0, len(loops))
	for idx, nodes := range loops {
		if len(nodes) < 2 {
			return fmt.Errorf("loop %v: %w", nodes, ErrInvalidLoop)
		}
		for jdx := 1; jdx < len(nodes); jdx++ {
			if !app.nameKnown(nodes[jdx-1]) || !app.nameKnown(nodes[jdx]) {
				return fmt.Errorf("loop %v: %w", nodes, ErrInvalidLoop)
			}
			if !app.reachable(dg, nodes[jdx-1], nodes[jdx]) {
				return fmt.Errorf("loop %v step %s->%s: %w", nodes, nodes[jdx-1], nodes[jdx], ErrInvalidLoop)
			}
		}
		loop := &AppLoop{LoopID: idx + 1, Nodes: slices.Clone(nodes)}
		validated = append(validated, loop)
	}

	app.Loops = validated
	return nil
}

// seal closes the application against further structural change
func (app *Application) seal() {
	app.sealed = true
}

// CreateApplicationFromCfg builds an Application by replaying a desc
// configuration through the builder calls, so a configuration file is
// subject to exactly the checks a programmatic construction is.
func CreateApplicationFromCfg(ac *AppCfg) (*Application, error) {
	app := CreateApplication(ac.Name)

	for _, md := range ac.Modules {
		err := app.AddAppModule(md.Name, md.RAM)
		if err != nil {
			return nil, err
		}
	}
	for _, sd := range ac.Sensors {
		err := app.AddSensorSource(sd.Name)
		if err != nil {
			return nil, err
		}
	}
	for _, ad := range ac.Actuators {
		err := app.AddActuatorSink(ad.Name)
		if err != nil {
			return nil, err
		}
	}
	for _, ed := range ac.Edges {
		err := app.AddAppEdge(ed.Source, ed.Dest, ed.CPULength, ed.NWLength,
			ed.TupleType, TupleDirFromStr(ed.Direction), EdgeKindFromStr(ed.Kind))
		if err != nil {
			return nil, err
		}
	}
	for _, mpd := range ac.Mappings {
		err := app.AddTupleMapping(mpd.Module, mpd.InType, mpd.OutType, mpd.Selectivity)
		if err != nil {
			return nil, err
		}
	}

	loops := make([][]string, 0, len(ac.Loops))
	for _, ld := range ac.Loops {
		loops = append(loops, ld.Nodes)
	}
	err := app.SetLoops(loops)
	if err != nil {
		return nil, err
	}
	return app, nil
}
