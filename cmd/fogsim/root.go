package main

import (
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iti/fogsim"
)

var (
	// CLI flags
	topoFile      string  // device topology description
	appFile       string  // application graph description
	placementFile string  // module placement description
	horizon       float64 // simulation end time
	logLevel      string  // log verbosity level
	traceFile     string  // destination of the event trace, empty disables tracing
	expName       string  // experiment name recorded in the trace
	outputDir     string  // destination directory for generated example files
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fogsim",
	Short: "Discrete-event simulator for hierarchical fog applications",
}

// useYAML selects the deserialization format by file name extension
func useYAML(filename string) bool {
	ext := path.Ext(filename)
	return ext == ".yaml" || ext == ".YAML" || ext == ".yml"
}

// buildSimulation reads the three configuration files named by flags and
// assembles a Simulation from them
func buildSimulation() (*fogsim.Simulation, error) {
	tc, err := fogsim.ReadTopoCfg(topoFile, useYAML(topoFile), nil)
	if err != nil {
		return nil, err
	}
	ac, err := fogsim.ReadAppCfg(appFile, useYAML(appFile), nil)
	if err != nil {
		return nil, err
	}
	pc, err := fogsim.ReadPlacementCfg(placementFile, useYAML(placementFile), nil)
	if err != nil {
		return nil, err
	}
	return fogsim.CreateSimulation(tc, ac, pc)
}

// runSimulation drives a Simulation to the horizon and reports on it
func runSimulation(sim *fogsim.Simulation) {
	var tm *fogsim.TraceManager
	if len(traceFile) > 0 {
		tm = fogsim.CreateTraceManager(expName, true)
		sim.SetTraceManager(tm)
	}

	rt := fogsim.CreateRuntime(sim, horizon)
	rt.Run()
	rt.Report()

	if tm != nil {
		err := tm.WriteToFile(traceFile, true)
		if err != nil {
			logrus.Fatalf("unable to write trace file %s: %v", traceFile, err)
		}
		logrus.Infof("trace written to %s", traceFile)
	}
}

// runCmd executes a simulation described by configuration files
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fog simulation from configuration files",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		sim, err := buildSimulation()
		if err != nil {
			logrus.Fatalf("unable to build simulation: %v", err)
		}

		logrus.Infof("Starting simulation, horizon=%v", horizon)
		runSimulation(sim)
		logrus.Info("Simulation complete.")
	},
}

// exampleCmd runs the bundled precision-agriculture reference scenario
var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Run the bundled precision-agriculture scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		sim, err := fogsim.AgricultureSimulation()
		if err != nil {
			logrus.Fatalf("unable to build scenario: %v", err)
		}

		logrus.Infof("Starting precision-agriculture scenario, horizon=%v", horizon)
		runSimulation(sim)
		logrus.Info("Simulation complete.")
	},
}

// writeCmd generates the reference configuration files, as a starting
// point for edited scenarios
var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the precision-agriculture configuration files",
	Run: func(cmd *cobra.Command, args []string) {
		tc, err := fogsim.AgricultureTopoCfg()
		if err != nil {
			logrus.Fatalf("unable to build scenario topology: %v", err)
		}

		topoOut := path.Join(outputDir, "topo.yaml")
		appOut := path.Join(outputDir, "app.yaml")
		placementOut := path.Join(outputDir, "placement.yaml")

		err = tc.WriteToFile(topoOut)
		if err == nil {
			err = fogsim.AgricultureAppCfg().WriteToFile(appOut)
		}
		if err == nil {
			err = fogsim.AgriculturePlacementCfg().WriteToFile(placementOut)
		}
		if err != nil {
			logrus.Fatalf("unable to write configuration files: %v", err)
		}
		logrus.Infof("wrote %s, %s, %s", topoOut, appOut, placementOut)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&topoFile, "topo", "topo.yaml", "Device topology description file")
	runCmd.Flags().StringVar(&appFile, "app", "app.yaml", "Application graph description file")
	runCmd.Flags().StringVar(&placementFile, "placement", "placement.yaml", "Module placement description file")
	runCmd.Flags().Float64Var(&horizon, "horizon", 1000.0, "Simulation end time (seconds)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceFile, "trace", "", "Trace output file, empty disables tracing")
	runCmd.Flags().StringVar(&expName, "name", "fogsim", "Experiment name recorded in the trace")

	exampleCmd.Flags().Float64Var(&horizon, "horizon", 1000.0, "Simulation end time (seconds)")
	exampleCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	exampleCmd.Flags().StringVar(&traceFile, "trace", "", "Trace output file, empty disables tracing")
	exampleCmd.Flags().StringVar(&expName, "name", "precision-agriculture", "Experiment name recorded in the trace")

	writeCmd.Flags().StringVar(&outputDir, "dir", ".", "Destination directory for the generated files")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(writeCmd)
}
