package fogsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPipelineApp assembles a small sensor -> filter -> sink -> actuator
// pipeline used by several tests
func buildPipelineApp(t *testing.T) *Application {
	app := CreateApplication("pipeline")
	require.NoError(t, app.AddSensorSource("S"))
	require.NoError(t, app.AddActuatorSink("A"))
	require.NoError(t, app.AddAppModule("filter", 10))
	require.NoError(t, app.AddAppModule("sink", 10))

	require.NoError(t, app.AddAppEdge("S", "filter", 100, 50, "RAW", Up, SensorEdge))
	require.NoError(t, app.AddAppEdge("filter", "sink", 200, 80, "FILTERED", Up, ModuleEdge))
	require.NoError(t, app.AddAppEdge("sink", "A", 50, 20, "RESULT", Down, ActuatorEdge))
	return app
}

func TestAddAppModuleRejectsDuplicates(t *testing.T) {
	app := CreateApplication("dup")
	require.NoError(t, app.AddAppModule("m", 10))

	assert.ErrorIs(t, app.AddAppModule("m", 10), ErrDuplicateName)
	assert.ErrorIs(t, app.AddSensorSource("m"), ErrDuplicateName)
	assert.ErrorIs(t, app.AddActuatorSink("m"), ErrDuplicateName)

	// names are shared across the three namespaces
	require.NoError(t, app.AddSensorSource("s"))
	assert.ErrorIs(t, app.AddAppModule("s", 10), ErrDuplicateName)
}

func TestAddAppEdgeEndpointChecks(t *testing.T) {
	app := buildPipelineApp(t)
	edges := len(app.Edges)

	tests := []struct {
		name   string
		source string
		dest   string
		kind   EdgeKind
	}{
		{"sensor edge from unknown sensor", "ghost", "filter", SensorEdge},
		{"sensor edge to non-module", "S", "A", SensorEdge},
		{"module edge from sensor", "S", "sink", ModuleEdge},
		{"module edge to unknown", "filter", "ghost", ModuleEdge},
		{"actuator edge to module", "filter", "sink", ActuatorEdge},
		{"actuator edge from sensor", "S", "A", ActuatorEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := app.AddAppEdge(tt.source, tt.dest, 1, 1, "T_"+tt.name, Up, tt.kind)
			assert.ErrorIs(t, err, ErrUnknownEndpoint)

			// a rejected edge leaves the graph unchanged
			assert.Len(t, app.Edges, edges)
			assert.Nil(t, app.EdgeByTupleType("T_"+tt.name))
		})
	}
}

func TestAddAppEdgeRejectsSelfEdge(t *testing.T) {
	app := buildPipelineApp(t)
	edges := len(app.Edges)

	err := app.AddAppEdge("filter", "filter", 1, 1, "LOOPBACK", Up, ModuleEdge)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Len(t, app.Edges, edges)
	assert.Nil(t, app.EdgeByTupleType("LOOPBACK"))

	// the graph stays usable for loop registration afterwards
	assert.NoError(t, app.SetLoops([][]string{{"filter", "sink"}}))
}

func TestAddAppEdgeRejectsReusedTupleType(t *testing.T) {
	app := buildPipelineApp(t)
	err := app.AddAppEdge("filter", "sink", 1, 1, "RAW", Up, ModuleEdge)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestAddTupleMappingChecks(t *testing.T) {
	app := buildPipelineApp(t)

	require.NoError(t, app.AddTupleMapping("filter", "RAW", "FILTERED", 0.5))

	// module must exist
	assert.ErrorIs(t, app.AddTupleMapping("ghost", "RAW", "FILTERED", 0.5), ErrUnknownModule)

	// incoming type must label an edge into the module
	assert.ErrorIs(t, app.AddTupleMapping("filter", "FILTERED", "FILTERED", 0.5), ErrUnknownTupleType)
	assert.ErrorIs(t, app.AddTupleMapping("sink", "RAW", "RESULT", 0.5), ErrUnknownTupleType)

	// outgoing type must label an edge out of the module
	assert.ErrorIs(t, app.AddTupleMapping("filter", "RAW", "RESULT", 0.5), ErrUnknownTupleType)

	// selectivity outside [0,1]
	assert.ErrorIs(t, app.AddTupleMapping("sink", "FILTERED", "RESULT", 1.5), ErrInvalidSelectivity)
	assert.ErrorIs(t, app.AddTupleMapping("sink", "FILTERED", "RESULT", -0.1), ErrInvalidSelectivity)

	// boundary values are legal
	assert.NoError(t, app.AddTupleMapping("sink", "FILTERED", "RESULT", 1.0))
}

func TestMultipleMappingsShareInType(t *testing.T) {
	app := CreateApplication("fanout")
	require.NoError(t, app.AddSensorSource("S"))
	require.NoError(t, app.AddAppModule("split", 10))
	require.NoError(t, app.AddAppModule("left", 10))
	require.NoError(t, app.AddAppModule("right", 10))

	require.NoError(t, app.AddAppEdge("S", "split", 1, 1, "IN", Up, SensorEdge))
	require.NoError(t, app.AddAppEdge("split", "left", 1, 1, "L", Up, ModuleEdge))
	require.NoError(t, app.AddAppEdge("split", "right", 1, 1, "R", Up, ModuleEdge))

	require.NoError(t, app.AddTupleMapping("split", "IN", "L", 0.4))
	require.NoError(t, app.AddTupleMapping("split", "IN", "R", 0.9))

	assert.Len(t, app.Mappings["split"]["IN"], 2)
}

func TestSetLoops(t *testing.T) {
	app := buildPipelineApp(t)

	// direct adjacency at every step
	err := app.SetLoops([][]string{{"S", "filter", "sink", "A"}})
	require.NoError(t, err)
	require.Len(t, app.Loops, 1)
	assert.Equal(t, 1, app.Loops[0].LoopID)

	// consecutive names may also be joined transitively
	err = app.SetLoops([][]string{{"S", "sink", "A"}})
	assert.NoError(t, err)

	// unreachable step
	err = app.SetLoops([][]string{{"A", "filter"}})
	assert.ErrorIs(t, err, ErrInvalidLoop)

	// unknown node
	err = app.SetLoops([][]string{{"S", "ghost"}})
	assert.ErrorIs(t, err, ErrInvalidLoop)

	// too short
	err = app.SetLoops([][]string{{"S"}})
	assert.ErrorIs(t, err, ErrInvalidLoop)
}

func TestSealedApplicationRejectsChange(t *testing.T) {
	app := buildPipelineApp(t)
	app.seal()

	assert.ErrorIs(t, app.AddAppModule("late", 10), ErrSealedModel)
	assert.ErrorIs(t, app.AddSensorSource("lateS"), ErrSealedModel)
	assert.ErrorIs(t, app.AddActuatorSink("lateA"), ErrSealedModel)
	assert.ErrorIs(t, app.AddAppEdge("filter", "sink", 1, 1, "LATE", Up, ModuleEdge), ErrSealedModel)
	assert.ErrorIs(t, app.AddTupleMapping("filter", "RAW", "FILTERED", 0.5), ErrSealedModel)
	assert.ErrorIs(t, app.SetLoops([][]string{{"S", "filter"}}), ErrSealedModel)
}

func TestCreateApplicationFromCfg(t *testing.T) {
	ac := AgricultureAppCfg()
	app, err := CreateApplicationFromCfg(ac)
	require.NoError(t, err)

	assert.Len(t, app.Modules, 3)
	assert.Len(t, app.Edges, 7)
	assert.Len(t, app.Loops, 2)
	assert.NotNil(t, app.EdgeByTupleType("_BIOMETRIC_TO_ANALYSIS_"))

	// a configuration replays through the same checks as a programmatic build
	bad := AgricultureAppCfg()
	bad.Edges[0].Dest = "ghost"
	_, err = CreateApplicationFromCfg(bad)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}
