package fogsim

// tuple.go holds the data unit model and the selectivity engine: the
// logic that decides, for every tuple delivered to a module, which
// outgoing mappings fire and what derived tuples the driving engine
// should schedule next.  The engine is driven synchronously, one arrival
// at a time, and never blocks; randomness comes from the hosting device's
// rngstream, one independent Bernoulli trial per arriving tuple per
// mapping.

import (
	"fmt"

	"github.com/google/uuid"
)

// A Tuple is a typed data unit flowing through the application graph.
// Lineage identifies the causal chain back to the originating unit and is
// propagated through every selectivity firing.
type Tuple struct {
	TupleType string
	CPULength float64
	NWLength  float64
	Lineage   uuid.UUID
	EmitTime  float64
}

// An EmittedTuple is a derived unit returned to the driving engine, which
// schedules its arrival at Dest after Delay time units.
type EmittedTuple struct {
	Tuple  Tuple
	Source string
	Dest   string
	Delay  float64
}

// EmitSensorTuple creates a fresh tuple at the named sensor at the given
// simulation time and returns it for the engine to schedule at the
// sensor's destination module.  The call seals the model on first use.
func (sim *Simulation) EmitSensorTuple(sensorName string, now float64) (EmittedTuple, error) {
	sim.sealOnce()

	sensor, present := sim.Sensors[sensorName]
	if !present {
		return EmittedTuple{}, fmt.Errorf("sensor %s: %w", sensorName, ErrUnknownEndpoint)
	}

	edge := sim.App.EdgeByTupleType(sensor.TupleType)
	if edge == nil || edge.Source != sensorName {
		return EmittedTuple{}, fmt.Errorf("sensor %s type %s: %w", sensorName, sensor.TupleType, ErrUnknownTupleType)
	}

	tp := Tuple{
		TupleType: edge.TupleType,
		CPULength: edge.CPULength,
		NWLength:  edge.NWLength,
		Lineage:   uuid.New(),
		EmitTime:  now,
	}

	// the unit enters any loop whose path begins at this sensor
	sim.Tracker.recordEntry(sensorName, tp.Lineage, now)
	sim.addTupleTrace(now, sensorName, &tp, "emit")

	gwDev := sim.Topo.DevByName[sensor.Gateway]
	dstDev := sim.Topo.DevByName[sim.Placement.Mapping[edge.Dest]]

	delay := sensor.Latency
	if gwDev.DevID != dstDev.DevID {
		delay += sim.Topo.routeLatency(gwDev.DevID, dstDev.DevID)
		gwDev.chargeBndwdth(tp.NWLength)
		dstDev.chargeBndwdth(tp.NWLength)
	}

	return EmittedTuple{Tuple: tp, Source: sensorName, Dest: edge.Dest, Delay: delay}, nil
}

// OnTupleArrival delivers a tuple to a module or actuator at the given
// simulation time and returns the derived tuples for the engine to
// schedule.  A tuple whose type has no mapping at the target module is
// dropped silently; the declared "no further forwarding" case, not an
// error.  The call seals the model on first use.
func (sim *Simulation) OnTupleArrival(tp Tuple, target string, now float64) ([]EmittedTuple, error) {
	sim.sealOnce()

	// actuator arrivals terminate the unit; they may complete a loop
	if actuator, present := sim.Actuators[target]; present {
		sim.arrivals[target] += 1
		sim.Tracker.recordExit(target, tp.Lineage, now)
		sim.addTupleTrace(now, actuator.Name, &tp, "actuate")
		return nil, nil
	}

	// a rejected delivery leaves the counters untouched
	_, present := sim.App.Modules[target]
	if !present {
		return nil, fmt.Errorf("arrival target %s: %w", target, ErrUnknownModule)
	}
	sim.arrivals[target] += 1

	hostDev := sim.Topo.DevByName[sim.Placement.Mapping[target]]
	hostDev.chargeCompute(now, tp.CPULength)
	sim.addTupleTrace(now, target, &tp, "arrive")

	// a module arrival may complete one loop and begin another
	sim.Tracker.recordExit(target, tp.Lineage, now)
	sim.Tracker.recordEntry(target, tp.Lineage, now)

	mappings := sim.App.Mappings[target][tp.TupleType]
	if len(mappings) == 0 {
		sim.addTupleTrace(now, target, &tp, "drop")
		return nil, nil
	}

	emitted := make([]EmittedTuple, 0, len(mappings))
	for _, tm := range mappings {
		// independent Bernoulli trial per mapping; the boundary values
		// fire always and never without consulting the stream
		fire := false
		switch {
		case tm.Selectivity >= 1.0:
			fire = true
		case tm.Selectivity > 0.0:
			fire = hostDev.State.Rngstrm.RandU01() < tm.Selectivity
		}
		if !fire {
			continue
		}

		outEdge := sim.App.EdgeByTupleType(tm.OutType)
		derived := Tuple{
			TupleType: outEdge.TupleType,
			CPULength: outEdge.CPULength,
			NWLength:  outEdge.NWLength,
			Lineage:   tp.Lineage,
			EmitTime:  now,
		}
		sim.addTupleTrace(now, target, &derived, "emit")

		emitted = append(emitted, EmittedTuple{
			Tuple:  derived,
			Source: target,
			Dest:   outEdge.Dest,
			Delay:  sim.hopDelay(hostDev, outEdge, derived.NWLength),
		})
	}
	return emitted, nil
}

// hopDelay computes the network delay of a derived tuple leaving hostDev
// on the given edge, charging bandwidth to the devices the hop spans when
// it crosses a device boundary
func (sim *Simulation) hopDelay(hostDev *fogDev, edge *AppEdge, nwLength float64) float64 {
	// actuator-terminated edges route to the actuator's gateway and then
	// over the actuator's fixed terminal latency
	if edge.Kind == ActuatorEdge {
		actuator := sim.Actuators[edge.Dest]
		gwDev := sim.Topo.DevByName[actuator.Gateway]
		delay := actuator.Latency
		if gwDev.DevID != hostDev.DevID {
			delay += sim.Topo.routeLatency(hostDev.DevID, gwDev.DevID)
			hostDev.chargeBndwdth(nwLength)
			gwDev.chargeBndwdth(nwLength)
		}
		return delay
	}

	dstDev := sim.Topo.DevByName[sim.Placement.Mapping[edge.Dest]]
	if dstDev.DevID == hostDev.DevID {
		return 0.0
	}
	hostDev.chargeBndwdth(nwLength)
	dstDev.chargeBndwdth(nwLength)
	return sim.Topo.routeLatency(hostDev.DevID, dstDev.DevID)
}
