package fogsim

// runtime.go holds the driver that runs a simulation on the evt
// discrete-event engine: sensors with inter-arrival distributions,
// actuator sinks, and the event handlers that deliver tuples to the core
// and schedule the derived tuples the core returns.  Arrivals sharing a
// timestamp are processed in the engine's dispatch order, which the core
// accepts as authoritative.

import (
	"fmt"
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	"github.com/sirupsen/logrus"
)

// A Distribution generates sensor inter-arrival times.
type Distribution interface {
	NextValue(rng *rngstream.RngStream) float64
}

// DeterministicDistribution emits a fixed inter-arrival time.
type DeterministicDistribution struct {
	Value float64
}

// NextValue returns the fixed value; the stream is not consulted.
func (dd *DeterministicDistribution) NextValue(rng *rngstream.RngStream) float64 {
	return dd.Value
}

// ExponentialDistribution emits exponentially distributed inter-arrival
// times with the given mean.
type ExponentialDistribution struct {
	Mean float64
}

// NextValue draws by inversion from the device stream.
func (ed *ExponentialDistribution) NextValue(rng *rngstream.RngStream) float64 {
	return -ed.Mean * math.Log(1.0-rng.RandU01())
}

// UniformDistribution emits inter-arrival times uniform on [Min, Max].
type UniformDistribution struct {
	Min float64
	Max float64
}

// NextValue draws from the device stream.
func (ud *UniformDistribution) NextValue(rng *rngstream.RngStream) float64 {
	return ud.Min + (ud.Max-ud.Min)*rng.RandU01()
}

// createDistribution builds the Distribution a sensor desc names
func createDistribution(sd *SensorDesc) (Distribution, error) {
	switch sd.Distribution {
	case "deterministic":
		if !(sd.Period > 0.0) {
			return nil, fmt.Errorf("sensor %s period: %w", sd.Name, ErrInvalidParameter)
		}
		return &DeterministicDistribution{Value: sd.Period}, nil
	case "exponential":
		if !(sd.Period > 0.0) {
			return nil, fmt.Errorf("sensor %s mean: %w", sd.Name, ErrInvalidParameter)
		}
		return &ExponentialDistribution{Mean: sd.Period}, nil
	case "uniform":
		if sd.Min < 0.0 || !(sd.Max > sd.Min) {
			return nil, fmt.Errorf("sensor %s range: %w", sd.Name, ErrInvalidParameter)
		}
		return &UniformDistribution{Min: sd.Min, Max: sd.Max}, nil
	}
	return nil, fmt.Errorf("sensor %s distribution %s: %w", sd.Name, sd.Distribution, ErrInvalidParameter)
}

// A Sensor is a named terminal source bound to a gateway device, with an
// inter-arrival distribution and a fixed network latency to its gateway.
type Sensor struct {
	Name      string
	TupleType string
	Gateway   string
	Latency   float64
	Dist      Distribution
	Rngstrm   *rngstream.RngStream
}

// createSensor builds the runtime representation of a sensor from its desc
func createSensor(sd *SensorDesc) (*Sensor, error) {
	dist, err := createDistribution(sd)
	if err != nil {
		return nil, err
	}
	sensor := new(Sensor)
	sensor.Name = sd.Name
	sensor.TupleType = sd.TupleType
	sensor.Gateway = sd.Gateway
	sensor.Latency = sd.Latency
	sensor.Dist = dist
	sensor.Rngstrm = rngstream.New(sd.Name)
	return sensor, nil
}

// An Actuator is a named terminal sink bound to a gateway device with a
// fixed network latency.
type Actuator struct {
	Name    string
	Gateway string
	Latency float64
}

// createActuator builds the runtime representation of an actuator from its desc
func createActuator(ad *ActuatorDesc) *Actuator {
	actuator := new(Actuator)
	actuator.Name = ad.Name
	actuator.Gateway = ad.Gateway
	actuator.Latency = ad.Latency
	return actuator
}

// A Runtime drives one Simulation on an event manager until a horizon.
type Runtime struct {
	EvtMgr  *evtm.EventManager
	Sim     *Simulation
	Horizon float64
}

// CreateRuntime is a constructor.
func CreateRuntime(sim *Simulation, horizon float64) *Runtime {
	rt := new(Runtime)
	rt.EvtMgr = evtm.New()
	rt.Sim = sim
	rt.Horizon = horizon
	return rt
}

// sensorEvent is the handler context for a sensor's emission events
type sensorEvent struct {
	rt     *Runtime
	sensor *Sensor
}

// arrivalEvent is the handler context for a tuple delivery
type arrivalEvent struct {
	rt     *Runtime
	target string
}

// emitSensorTuple is the event handler for a sensor firing: it creates
// the tuple, schedules its arrival at the destination module, and
// schedules the sensor's next firing from its distribution
func emitSensorTuple(evtMgr *evtm.EventManager, context any, data any) any {
	se := context.(*sensorEvent)
	now := evtMgr.CurrentSeconds()

	et, err := se.rt.Sim.EmitSensorTuple(se.sensor.Name, now)
	if err != nil {
		logrus.WithError(err).Errorf("sensor %s emission failed", se.sensor.Name)
		return nil
	}

	ae := &arrivalEvent{rt: se.rt, target: et.Dest}
	evtMgr.Schedule(ae, et.Tuple, tupleArrival, vrtime.SecondsToTime(et.Delay))

	next := se.sensor.Dist.NextValue(se.sensor.Rngstrm)
	evtMgr.Schedule(se, nil, emitSensorTuple, vrtime.SecondsToTime(next))
	return nil
}

// tupleArrival is the event handler for a tuple delivery: it presents the
// tuple to the core and schedules every derived tuple the core returns
func tupleArrival(evtMgr *evtm.EventManager, context any, data any) any {
	ae := context.(*arrivalEvent)
	tp := data.(Tuple)

	emitted, err := ae.rt.Sim.OnTupleArrival(tp, ae.target, evtMgr.CurrentSeconds())
	if err != nil {
		logrus.WithError(err).Errorf("delivery to %s failed", ae.target)
		return nil
	}

	for _, et := range emitted {
		nxt := &arrivalEvent{rt: ae.rt, target: et.Dest}
		evtMgr.Schedule(nxt, et.Tuple, tupleArrival, vrtime.SecondsToTime(et.Delay))
	}
	return nil
}

// StartSensors schedules the first firing of every sensor.  The first
// firing happens one inter-arrival draw after time zero.
func (rt *Runtime) StartSensors() {
	rt.Sim.Start()
	for _, sensor := range rt.Sim.Sensors {
		se := &sensorEvent{rt: rt, sensor: sensor}
		first := sensor.Dist.NextValue(sensor.Rngstrm)
		rt.EvtMgr.Schedule(se, nil, emitSensorTuple, vrtime.SecondsToTime(first))
	}
}

// Run starts the sensors and advances the engine until the horizon.
func (rt *Runtime) Run() {
	rt.StartSensors()
	rt.EvtMgr.Run(rt.Horizon)
}

// Report writes loop and device summaries through the structured logger.
func (rt *Runtime) Report() {
	for _, loop := range rt.Sim.App.Loops {
		ls, err := rt.Sim.LoopStatistics(loop.LoopID)
		if err != nil {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"loop":  loop.Nodes,
			"count": ls.Count,
			"mean":  ls.Mean,
		}).Info("loop latency")
	}

	for _, dev := range rt.Sim.Topo.DevByID {
		compute, bndwdth, _ := rt.Sim.Topo.DeviceLoad(dev.DevID)
		energy, _ := rt.Sim.Topo.DeviceEnergy(dev.DevID)
		cost, _ := rt.Sim.Topo.DeviceCost(dev.DevID)
		logrus.WithFields(logrus.Fields{
			"device":  dev.DevName,
			"compute": compute,
			"bndwdth": bndwdth,
			"energy":  energy,
			"cost":    cost,
		}).Info("device load")
	}
}
