package fogsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgricultureConfigurations(t *testing.T) {
	tc, err := AgricultureTopoCfg()
	require.NoError(t, err)
	require.Len(t, tc.Devices, 3)
	assert.Equal(t, "cloud", tc.Devices[0].Name)
	assert.Equal(t, "", tc.Devices[0].Parent)
	assert.Equal(t, "fog-node", tc.Devices[2].Parent)

	sim, err := AgricultureSimulation()
	require.NoError(t, err)
	assert.Len(t, sim.Sensors, 3)
	assert.Len(t, sim.Actuators, 2)
	assert.Len(t, sim.App.Loops, 2)
}

// TestAgricultureScenarioRun drives the reference scenario on the event
// engine and checks the tuple flow end to end: counts at every stage, the
// deterministic loop latencies, and the device accounting.
func TestAgricultureScenarioRun(t *testing.T) {
	sim, err := AgricultureSimulation()
	require.NoError(t, err)

	rt := CreateRuntime(sim, 300.0)
	rt.Run()

	assert.True(t, sim.Sealed())

	// three sensors firing every 3 time units feed the biometric module,
	// which forwards every arrival upward
	bio := sim.NodeArrivals("biometricModule")
	assert.Greater(t, bio, 270)
	assert.LessOrEqual(t, bio, 300)

	health := sim.NodeArrivals("healthAnalysisModule")
	assert.Greater(t, health, 260)
	assert.LessOrEqual(t, health, bio)

	// 0.8 of analysis arrivals continue to the cloud, 0.3 branch to the
	// notification actuator; bounds are several standard deviations wide
	cloud := sim.NodeArrivals("cloudModule")
	assert.Greater(t, cloud, 180)
	assert.Less(t, cloud, 270)

	notify := sim.NodeArrivals("HEALTH_NOTIFICATION")
	assert.Greater(t, notify, 50)
	assert.Less(t, notify, 130)

	// 0.1 of cloud arrivals raise the emergency actuator
	alert := sim.NodeArrivals("EMERGENCY_ALERT")
	assert.Greater(t, alert, 3)
	assert.Less(t, alert, 60)

	// every delay on the monitoring path is deterministic: 0.8 to the
	// gateway, 4 up to the fog node, and 4.8 back down to the actuator
	routine, err := sim.LoopStatistics(2)
	require.NoError(t, err)
	assert.Greater(t, routine.Count, 10)
	assert.InDelta(t, 9.6, routine.Mean, 1e-6)

	// the critical path additionally climbs to the cloud and descends the
	// full hierarchy: 0.8 + 4 + 10 + 14 + 0.5
	critical, err := sim.LoopStatistics(1)
	require.NoError(t, err)
	assert.Greater(t, critical.Count, 0)
	assert.InDelta(t, 29.3, critical.Mean, 1e-6)

	// every tier hosts a module, so every tier accumulated compute and energy
	for _, name := range []string{"cloud", "fog-node", "edge-device"} {
		devID, err := sim.DeviceID(name)
		require.NoError(t, err)

		compute, bndwdth, err := sim.DeviceLoad(devID)
		require.NoError(t, err)
		assert.Greater(t, compute, 0.0, name)
		assert.Greater(t, bndwdth, 0.0, name)

		energy, err := sim.Topo.DeviceEnergy(devID)
		require.NoError(t, err)
		assert.Greater(t, energy, 0.0, name)
	}

	edgeID, err := sim.DeviceID("edge-device")
	require.NoError(t, err)
	cost, err := sim.Topo.DeviceCost(edgeID)
	require.NoError(t, err)
	assert.Greater(t, cost, 0.0)
}

// TestSingleSensorPipeline strips the scenario to its gyroscope stream
// and checks the delivery counts after roughly one hundred firings: about
// 0.3 of analysis arrivals reach the notification actuator and about 0.8
// continue to the cloud module.
func TestSingleSensorPipeline(t *testing.T) {
	tc, err := AgricultureTopoCfg()
	require.NoError(t, err)

	ac := AgricultureAppCfg()
	ac.Sensors = ac.Sensors[:1]

	edges := make([]EdgeDesc, 0, len(ac.Edges))
	for _, ed := range ac.Edges {
		if ed.TupleType == "ACCELEROMETER" || ed.TupleType == "PROXIMITY" {
			continue
		}
		edges = append(edges, ed)
	}
	ac.Edges = edges

	mappings := make([]MappingDesc, 0, len(ac.Mappings))
	for _, md := range ac.Mappings {
		if md.InType == "ACCELEROMETER" || md.InType == "PROXIMITY" {
			continue
		}
		mappings = append(mappings, md)
	}
	ac.Mappings = mappings

	// the routine monitoring loop starts at the removed proximity sensor
	ac.Loops = ac.Loops[:1]

	sim, err := CreateSimulation(tc, ac, AgriculturePlacementCfg())
	require.NoError(t, err)

	// one firing every 3 time units: about 100 firings by the horizon
	rt := CreateRuntime(sim, 300.0)
	rt.Run()

	health := sim.NodeArrivals("healthAnalysisModule")
	assert.Greater(t, health, 85)
	assert.LessOrEqual(t, health, 100)

	notify := sim.NodeArrivals("HEALTH_NOTIFICATION")
	assert.Greater(t, notify, 13)
	assert.Less(t, notify, 47)

	cloud := sim.NodeArrivals("cloudModule")
	assert.Greater(t, cloud, 60)
	assert.Less(t, cloud, 96)
}

// TestScenarioRunWithTrace attaches a trace manager and confirms tuple
// events are recorded against the device dictionary.
func TestScenarioRunWithTrace(t *testing.T) {
	sim, err := AgricultureSimulation()
	require.NoError(t, err)

	tm := CreateTraceManager("trace-test", true)
	sim.SetTraceManager(tm)

	rt := CreateRuntime(sim, 30.0)
	rt.Run()

	assert.Len(t, tm.NameByID, 3)
	assert.NotEmpty(t, tm.Traces)

	// every recorded instance carries at least the originating emission
	for _, traces := range tm.Traces {
		assert.NotEmpty(t, traces)
		assert.Equal(t, "tuple", traces[0].TraceType)
	}
}
