package fogsim

// desc.go holds the serializable descriptions of a simulation model:
// the device topology, the application graph, and the module placement.
// Every description struct is free of pointers so that it round-trips
// through yaml or json unchanged; runtime structures are built from
// descriptions in a separate step (topo.go, fogsim.go).

import (
	"encoding/json"
	"os"
	"path"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// A DeviceDesc holds the serializable description of one fog device.
// Tier 0 is the cloud root; tiers increase toward the edge.  Parent is
// empty exactly when the device is the root.
type DeviceDesc struct {
	Name          string  `json:"name" yaml:"name" validate:"required"`
	Tier          int     `json:"tier" yaml:"tier" validate:"gte=0"`
	Mips          float64 `json:"mips" yaml:"mips" validate:"gt=0"`
	RAM           int     `json:"ram" yaml:"ram" validate:"gt=0"`
	UpBndwdth     float64 `json:"upbndwdth" yaml:"upbndwdth" validate:"gt=0"`
	DownBndwdth   float64 `json:"downbndwdth" yaml:"downbndwdth" validate:"gt=0"`
	Parent        string  `json:"parent" yaml:"parent"`
	UplinkLatency float64 `json:"uplinklatency" yaml:"uplinklatency" validate:"gte=0"`
	RatePerMips   float64 `json:"ratepermips" yaml:"ratepermips" validate:"gte=0"`
	BusyPower     float64 `json:"busypower" yaml:"busypower" validate:"gte=0"`
	IdlePower     float64 `json:"idlepower" yaml:"idlepower" validate:"gte=0"`
}

// TopoCfg contains the devices of one topology, identified by name.
// It is the encompassing dictionary in the topology serialization.
type TopoCfg struct {
	Name    string       `json:"name" yaml:"name" validate:"required"`
	Devices []DeviceDesc `json:"devices" yaml:"devices" validate:"required,dive"`
}

// A ModuleDesc describes an application module and its RAM footprint.
type ModuleDesc struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	RAM  int    `json:"ram" yaml:"ram" validate:"gt=0"`
}

// An EdgeDesc describes a directed application edge.  Direction is
// "up" or "down", Kind is "sensor", "module", or "actuator".
type EdgeDesc struct {
	Source    string  `json:"source" yaml:"source" validate:"required"`
	Dest      string  `json:"dest" yaml:"dest" validate:"required"`
	CPULength float64 `json:"cpulength" yaml:"cpulength" validate:"gte=0"`
	NWLength  float64 `json:"nwlength" yaml:"nwlength" validate:"gte=0"`
	TupleType string  `json:"tupletype" yaml:"tupletype" validate:"required"`
	Direction string  `json:"direction" yaml:"direction" validate:"oneof=up down"`
	Kind      string  `json:"kind" yaml:"kind" validate:"oneof=sensor module actuator"`
}

// A MappingDesc describes one selectivity rule: an arrival of InType at
// Module emits OutType with probability Selectivity.
type MappingDesc struct {
	Module      string  `json:"module" yaml:"module" validate:"required"`
	InType      string  `json:"intype" yaml:"intype" validate:"required"`
	OutType     string  `json:"outtype" yaml:"outtype" validate:"required"`
	Selectivity float64 `json:"selectivity" yaml:"selectivity"`
}

// A LoopDesc names, in order, the nodes of a path whose end-to-end
// latency is tracked.
type LoopDesc struct {
	Nodes []string `json:"nodes" yaml:"nodes" validate:"required,min=2"`
}

// A SensorDesc describes a sensor source: the tuple type it emits, the
// gateway device it is attached to, its fixed network latency to that
// gateway, and its inter-arrival distribution.  Distribution is
// "deterministic" (Period), "exponential" (Period as mean), or
// "uniform" (Min,Max).
type SensorDesc struct {
	Name         string  `json:"name" yaml:"name" validate:"required"`
	TupleType    string  `json:"tupletype" yaml:"tupletype" validate:"required"`
	Gateway      string  `json:"gateway" yaml:"gateway" validate:"required"`
	Latency      float64 `json:"latency" yaml:"latency" validate:"gte=0"`
	Distribution string  `json:"distribution" yaml:"distribution" validate:"oneof=deterministic exponential uniform"`
	Period       float64 `json:"period" yaml:"period"`
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
}

// An ActuatorDesc describes an actuator sink and its gateway binding.
type ActuatorDesc struct {
	Name    string  `json:"name" yaml:"name" validate:"required"`
	Gateway string  `json:"gateway" yaml:"gateway" validate:"required"`
	Latency float64 `json:"latency" yaml:"latency" validate:"gte=0"`
}

// AppCfg contains the whole application description: modules, terminal
// endpoints, edges, selectivity rules, and tracked loops.
type AppCfg struct {
	Name      string         `json:"name" yaml:"name" validate:"required"`
	Modules   []ModuleDesc   `json:"modules" yaml:"modules" validate:"required,dive"`
	Sensors   []SensorDesc   `json:"sensors" yaml:"sensors" validate:"dive"`
	Actuators []ActuatorDesc `json:"actuators" yaml:"actuators" validate:"dive"`
	Edges     []EdgeDesc     `json:"edges" yaml:"edges" validate:"required,dive"`
	Mappings  []MappingDesc  `json:"mappings" yaml:"mappings" validate:"dive"`
	Loops     []LoopDesc     `json:"loops" yaml:"loops" validate:"dive"`
}

// PlacementCfg maps module names to the devices that host them.
type PlacementCfg struct {
	Name    string            `json:"name" yaml:"name" validate:"required"`
	Mapping map[string]string `json:"mapping" yaml:"mapping" validate:"required"`
}

// descValidate runs struct-tag validation over a description read from file,
// so that malformed configurations are caught before a runtime model is built
var descValidate = validator.New()

// byExtension returns true when the named file serializes as yaml
func byExtension(filename string) bool {
	ext := path.Ext(filename)
	return ext == ".yaml" || ext == ".YAML" || ext == ".yml"
}

// writeCfgFile serializes cfg to the named file, selecting yaml or json
// by the file name extension
func writeCfgFile(filename string, cfg any) error {
	var bytes []byte
	var merr error

	if byExtension(filename) {
		bytes, merr = yaml.Marshal(cfg)
	} else {
		bytes, merr = json.MarshalIndent(cfg, "", "\t")
	}
	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.WriteString(string(bytes[:]))
	if werr != nil {
		f.Close()
		return werr
	}
	return f.Close()
}

// readCfgBytes deserializes dict into cfg; if dict is empty the bytes are
// first read from the named file
func readCfgBytes(filename string, useYAML bool, dict []byte, cfg any) error {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return err
		}
	}

	if useYAML {
		err = yaml.Unmarshal(dict, cfg)
	} else {
		err = json.Unmarshal(dict, cfg)
	}
	if err != nil {
		return err
	}
	return descValidate.Struct(cfg)
}

// WriteToFile stores the TopoCfg to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tc *TopoCfg) WriteToFile(filename string) error {
	return writeCfgFile(filename, tc)
}

// ReadTopoCfg deserializes a byte slice holding a representation of a TopoCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given
// is read to acquire them.  A deserialized and validated representation is returned,
// or an error from the file read, the deserialization, or the validation.
func ReadTopoCfg(filename string, useYAML bool, dict []byte) (*TopoCfg, error) {
	example := TopoCfg{}
	err := readCfgBytes(filename, useYAML, dict, &example)
	if err != nil {
		return nil, err
	}
	return &example, nil
}

// WriteToFile stores the AppCfg to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (ac *AppCfg) WriteToFile(filename string) error {
	return writeCfgFile(filename, ac)
}

// ReadAppCfg deserializes a byte slice holding a representation of an AppCfg struct,
// reading the named file when the byte slice is empty.
func ReadAppCfg(filename string, useYAML bool, dict []byte) (*AppCfg, error) {
	example := AppCfg{}
	err := readCfgBytes(filename, useYAML, dict, &example)
	if err != nil {
		return nil, err
	}
	return &example, nil
}

// WriteToFile stores the PlacementCfg to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (pc *PlacementCfg) WriteToFile(filename string) error {
	return writeCfgFile(filename, pc)
}

// ReadPlacementCfg deserializes a byte slice holding a representation of a
// PlacementCfg struct, reading the named file when the byte slice is empty.
func ReadPlacementCfg(filename string, useYAML bool, dict []byte) (*PlacementCfg, error) {
	example := PlacementCfg{}
	err := readCfgBytes(filename, useYAML, dict, &example)
	if err != nil {
		return nil, err
	}
	return &example, nil
}
