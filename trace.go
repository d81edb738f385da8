package fogsim

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type TraceInst struct {
	TraceTime string
	TraceType string
	TraceStr  string
}

// NameType is an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string
	Type string
}

// TraceManager gathers information about a simulation model
// and an execution of that model
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, grouped by execution id
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`

	// execution ids issued per originating-unit lineage
	execByLineage map[uuid.UUID]int
	numExecs      int
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	tm.execByLineage = make(map[uuid.UUID]int)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// execID issues (and remembers) an execution id for a lineage
func (tm *TraceManager) execID(lineage uuid.UUID) int {
	id, present := tm.execByLineage[lineage]
	if present {
		return id
	}
	tm.numExecs += 1
	tm.execByLineage[lineage] = tm.numExecs
	return tm.numExecs
}

// AddTrace creates a record of the trace using its calling arguments, and stores it
func (tm *TraceManager) AddTrace(execID int, trace TraceInst) {
	if !tm.InUse {
		return
	}

	_, present := tm.Traces[execID]
	if !present {
		tm.Traces[execID] = make([]TraceInst, 0)
	}
	tm.Traces[execID] = append(tm.Traces[execID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) {
	if tm.InUse {
		_, present := tm.NameByID[id]
		if present {
			return
		}
		tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	}
}

// WriteToFile stores the Traces struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of
// this name.  When globalOrder is set the records of all executions are
// merged into one time-ordered list.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) error {
	if !tm.InUse {
		return nil
	}
	pathExt := path.Ext(filename)
	useYAML := pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"

	var bytes []byte
	var merr error

	target := tm
	if globalOrder {
		ntm := new(TraceManager)
		ntm.InUse = tm.InUse
		ntm.ExpName = tm.ExpName
		ntm.NameByID = make(map[int]NameType)
		for key, value := range tm.NameByID {
			ntm.NameByID[key] = value
		}
		ntm.Traces = make(map[int][]TraceInst)
		ntm.Traces[0] = make([]TraceInst, 0)
		for _, valueList := range tm.Traces {
			ntm.Traces[0] = append(ntm.Traces[0], valueList...)
		}

		sort.Slice(ntm.Traces[0], func(i, j int) bool {
			v1, _ := strconv.ParseFloat(ntm.Traces[0][i].TraceTime, 64)
			v2, _ := strconv.ParseFloat(ntm.Traces[0][j].TraceTime, 64)
			return v1 < v2
		})
		target = ntm
	}

	if useYAML {
		bytes, merr = yaml.Marshal(*target)
	} else {
		bytes, merr = json.MarshalIndent(*target, "", "\t")
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

// TupleTrace saves information about the visitation of a tuple to some
// point in the simulation, saved for post-run analysis
type TupleTrace struct {
	Time      float64 // simulation time of the event
	Node      string  // module, sensor, or actuator name
	TupleType string
	Lineage   string // lineage of the originating unit
	Op        string // "emit", "arrive", "drop", "actuate"
}

func (tt *TupleTrace) Serialize() string {
	bytes, merr := yaml.Marshal(*tt)
	if merr != nil {
		return ""
	}
	return string(bytes[:])
}

// addTupleTrace records a tuple event with the attached trace manager, if
// there is one and it is active
func (sim *Simulation) addTupleTrace(now float64, node string, tp *Tuple, op string) {
	if sim.TraceMgr == nil || !sim.TraceMgr.Active() {
		return
	}

	tt := new(TupleTrace)
	tt.Time = now
	tt.Node = node
	tt.TupleType = tp.TupleType
	tt.Lineage = tp.Lineage.String()
	tt.Op = op
	ttStr := tt.Serialize()

	traceTime := strconv.FormatFloat(now, 'f', -1, 64)
	trcInst := TraceInst{TraceTime: traceTime, TraceType: "tuple", TraceStr: ttStr}
	sim.TraceMgr.AddTrace(sim.TraceMgr.execID(tp.Lineage), trcInst)
}
