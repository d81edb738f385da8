package fogsim

// scenario.go builds the bundled precision-agriculture reference model:
// a three tier cloud / fog-node / edge-device topology, three wearable
// sensors feeding a biometric pipeline, and two actuators receiving its
// results.  The same configurations back the command line example and
// the end-to-end tests.

// sensorTransmissionTime is the deterministic inter-arrival period of
// every sensor in the reference scenario
const sensorTransmissionTime = 3.0

// AgricultureTopoCfg builds the reference three tier topology.  The cloud
// is the root, the fog node sits below it at 10 units of uplink latency,
// and the edge device sits below the fog node at 4.
func AgricultureTopoCfg() (*TopoCfg, error) {
	tf := CreateTopoFrame("precision-agriculture")

	cloudID, err := tf.AddDevice("cloud", 20000, 36000, 20000, 20000, 0, 0.012, 2100.0, 1800.0)
	if err != nil {
		return nil, err
	}
	fogID, err := tf.AddDevice("fog-node", 8000, 16000, 4000, 4000, 1, 0.004, 150.0, 100.0)
	if err != nil {
		return nil, err
	}
	edgeID, err := tf.AddDevice("edge-device", 4000, 8000, 2000, 2000, 2, 0.001, 120.0, 85.0)
	if err != nil {
		return nil, err
	}

	err = tf.SetParent(fogID, cloudID, 10.0)
	if err != nil {
		return nil, err
	}
	err = tf.SetParent(edgeID, fogID, 4.0)
	if err != nil {
		return nil, err
	}
	return tf.Transform()
}

// AgricultureAppCfg builds the reference application graph.  Three sensor
// streams fan into the biometric module on the edge, results climb through
// the analysis module to the cloud, and alerts travel back down to the
// actuators beside the sensors.
func AgricultureAppCfg() *AppCfg {
	ac := new(AppCfg)
	ac.Name = "precision-agriculture"

	ac.Modules = []ModuleDesc{
		{Name: "biometricModule", RAM: 10},
		{Name: "healthAnalysisModule", RAM: 16},
		{Name: "cloudModule", RAM: 22},
	}

	ac.Sensors = []SensorDesc{
		{Name: "GYROSCOPE", TupleType: "GYROSCOPE", Gateway: "edge-device",
			Latency: 0.8, Distribution: "deterministic", Period: sensorTransmissionTime},
		{Name: "ACCELEROMETER", TupleType: "ACCELEROMETER", Gateway: "edge-device",
			Latency: 0.8, Distribution: "deterministic", Period: sensorTransmissionTime},
		{Name: "PROXIMITY", TupleType: "PROXIMITY", Gateway: "edge-device",
			Latency: 0.8, Distribution: "deterministic", Period: sensorTransmissionTime},
	}

	ac.Actuators = []ActuatorDesc{
		{Name: "EMERGENCY_ALERT", Gateway: "edge-device", Latency: 0.5},
		{Name: "HEALTH_NOTIFICATION", Gateway: "edge-device", Latency: 0.8},
	}

	ac.Edges = []EdgeDesc{
		{Source: "GYROSCOPE", Dest: "biometricModule", CPULength: 2000, NWLength: 1000,
			TupleType: "GYROSCOPE", Direction: "up", Kind: "sensor"},
		{Source: "ACCELEROMETER", Dest: "biometricModule", CPULength: 2200, NWLength: 1100,
			TupleType: "ACCELEROMETER", Direction: "up", Kind: "sensor"},
		{Source: "PROXIMITY", Dest: "biometricModule", CPULength: 1800, NWLength: 900,
			TupleType: "PROXIMITY", Direction: "up", Kind: "sensor"},
		{Source: "biometricModule", Dest: "healthAnalysisModule", CPULength: 2500, NWLength: 1800,
			TupleType: "_BIOMETRIC_TO_ANALYSIS_", Direction: "up", Kind: "module"},
		{Source: "healthAnalysisModule", Dest: "cloudModule", CPULength: 2200, NWLength: 1600,
			TupleType: "_ANALYSIS_TO_CLOUD_", Direction: "up", Kind: "module"},
		{Source: "cloudModule", Dest: "EMERGENCY_ALERT", CPULength: 1200, NWLength: 800,
			TupleType: "EMERGENCY_ALERT", Direction: "down", Kind: "actuator"},
		{Source: "healthAnalysisModule", Dest: "HEALTH_NOTIFICATION", CPULength: 1000, NWLength: 600,
			TupleType: "HEALTH_NOTIFICATION", Direction: "down", Kind: "actuator"},
	}

	ac.Mappings = []MappingDesc{
		{Module: "biometricModule", InType: "GYROSCOPE",
			OutType: "_BIOMETRIC_TO_ANALYSIS_", Selectivity: 1.0},
		{Module: "biometricModule", InType: "ACCELEROMETER",
			OutType: "_BIOMETRIC_TO_ANALYSIS_", Selectivity: 1.0},
		{Module: "biometricModule", InType: "PROXIMITY",
			OutType: "_BIOMETRIC_TO_ANALYSIS_", Selectivity: 1.0},
		{Module: "healthAnalysisModule", InType: "_BIOMETRIC_TO_ANALYSIS_",
			OutType: "_ANALYSIS_TO_CLOUD_", Selectivity: 0.8},
		{Module: "healthAnalysisModule", InType: "_BIOMETRIC_TO_ANALYSIS_",
			OutType: "HEALTH_NOTIFICATION", Selectivity: 0.3},
		{Module: "cloudModule", InType: "_ANALYSIS_TO_CLOUD_",
			OutType: "EMERGENCY_ALERT", Selectivity: 0.1},
	}

	ac.Loops = []LoopDesc{
		{Nodes: []string{"GYROSCOPE", "biometricModule", "healthAnalysisModule",
			"cloudModule", "EMERGENCY_ALERT"}},
		{Nodes: []string{"PROXIMITY", "biometricModule", "healthAnalysisModule",
			"HEALTH_NOTIFICATION"}},
	}
	return ac
}

// AgriculturePlacementCfg builds the reference module placement, pinning
// each module of the pipeline to its own tier.
func AgriculturePlacementCfg() *PlacementCfg {
	pc := new(PlacementCfg)
	pc.Name = "precision-agriculture"
	pc.Mapping = map[string]string{
		"biometricModule":      "edge-device",
		"healthAnalysisModule": "fog-node",
		"cloudModule":          "cloud",
	}
	return pc
}

// AgricultureSimulation assembles the full reference scenario into a
// ready-to-run Simulation.
func AgricultureSimulation() (*Simulation, error) {
	tc, err := AgricultureTopoCfg()
	if err != nil {
		return nil, err
	}
	return CreateSimulation(tc, AgricultureAppCfg(), AgriculturePlacementCfg())
}
