// Package fogsim models hierarchical edge/fog/cloud deployments and the
// flow of sensor-produced data through a directed graph of application
// modules, under explicit network-latency and compute-cost accounting.
// The package is a library: an external discrete-event engine drives it
// one tuple arrival at a time (see runtime.go for a driver built on the
// evt engine), and the core itself never schedules, blocks, or suspends.
package fogsim

// fogsim.go has code that assembles the system data structures: the
// runtime topology, the application graph, the placement binding, the
// sensors and actuators, and the loop tracker, gathered into one
// Simulation value with a clear lifecycle: built once, driven by the
// engine, discarded at run end.

import (
	"fmt"
)

// A Simulation is the composition of one validated model: topology,
// application, placement, terminal endpoints, and measurement state.
type Simulation struct {
	Topo      *Topology
	App       *Application
	Placement *ModuleMapping
	Sensors   map[string]*Sensor
	Actuators map[string]*Actuator
	Tracker   *LoopTracker

	// optional trace gathering; nil unless attached
	TraceMgr *TraceManager

	// tuple deliveries observed per node name
	arrivals map[string]int

	sealed bool
}

// CreateSimulation builds and cross-validates a runtime model from the
// three configuration values.  Errors here are configuration errors: the
// caller fixes the descriptions and rebuilds; nothing is retried or
// self-corrected.
func CreateSimulation(tc *TopoCfg, ac *AppCfg, pc *PlacementCfg) (*Simulation, error) {
	topo, err := CreateTopology(tc)
	if err != nil {
		return nil, err
	}

	app, err := CreateApplicationFromCfg(ac)
	if err != nil {
		return nil, err
	}

	placement, err := CreateModuleMappingFromCfg(pc)
	if err != nil {
		return nil, err
	}
	err = placement.validate(app, topo)
	if err != nil {
		return nil, err
	}

	sim := new(Simulation)
	sim.Topo = topo
	sim.App = app
	sim.Placement = placement
	sim.Sensors = make(map[string]*Sensor)
	sim.Actuators = make(map[string]*Actuator)
	sim.arrivals = make(map[string]int)

	// gather the per-endpoint problems so one rebuild fixes them all
	errList := make([]error, 0)

	for idx := range ac.Sensors {
		sensor, serr := createSensor(&ac.Sensors[idx])
		if serr != nil {
			errList = append(errList, serr)
			continue
		}
		_, present := topo.DevByName[sensor.Gateway]
		if !present {
			errList = append(errList,
				fmt.Errorf("sensor %s gateway %s: %w", sensor.Name, sensor.Gateway, ErrUnknownDevice))
			continue
		}
		sim.Sensors[sensor.Name] = sensor
	}

	for idx := range ac.Actuators {
		actuator := createActuator(&ac.Actuators[idx])
		_, present := topo.DevByName[actuator.Gateway]
		if !present {
			errList = append(errList,
				fmt.Errorf("actuator %s gateway %s: %w", actuator.Name, actuator.Gateway, ErrUnknownDevice))
			continue
		}
		sim.Actuators[actuator.Name] = actuator
	}

	if rerr := ReportErrs(errList); rerr != nil {
		return nil, rerr
	}

	sim.Tracker = createLoopTracker(app.Loops)
	return sim, nil
}

// SetTraceManager attaches a trace manager; tuple events are recorded
// through it when it is active.
func (sim *Simulation) SetTraceManager(tm *TraceManager) {
	sim.TraceMgr = tm
	if tm == nil || !tm.Active() {
		return
	}
	for _, dev := range sim.Topo.DevByID {
		tm.AddName(dev.DevID, dev.DevName, "device")
	}
}

// sealOnce closes the model against structural change the first time the
// engine delivers or emits a tuple
func (sim *Simulation) sealOnce() {
	if sim.sealed {
		return
	}
	sim.sealed = true
	sim.App.seal()
}

// Start seals the model ahead of event delivery.  Idempotent.
func (sim *Simulation) Start() {
	sim.sealOnce()
}

// Sealed reports whether the model has been closed against structural change.
func (sim *Simulation) Sealed() bool {
	return sim.sealed
}

// LoopStatistics reports the completed-traversal count and mean latency
// of the identified loop.  Usable at any time, including mid-simulation.
func (sim *Simulation) LoopStatistics(loopID int) (LoopStats, error) {
	return sim.Tracker.Statistics(loopID)
}

// DeviceID resolves a device name to the identifier used by the load and
// energy queries.
func (sim *Simulation) DeviceID(name string) (int, error) {
	dev, present := sim.Topo.DevByName[name]
	if !present {
		return 0, fmt.Errorf("device %s: %w", name, ErrUnknownDevice)
	}
	return dev.DevID, nil
}

// DeviceLoad reports the compute and bandwidth charged to a device.
func (sim *Simulation) DeviceLoad(devID int) (float64, float64, error) {
	return sim.Topo.DeviceLoad(devID)
}

// NodeArrivals reports how many tuple deliveries the named module or
// actuator has received.
func (sim *Simulation) NodeArrivals(name string) int {
	return sim.arrivals[name]
}
