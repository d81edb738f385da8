package fogsim

// topo.go holds structs, methods, and data structures supporting the
// construction of and access to layered fog device hierarchies.  As with
// the description layer generally (see desc.go) there are two
// representations for a device: a DeviceFrame carries pointers and is used
// while the hierarchy is being assembled, and the pointer-free DeviceDesc
// is used for serialization.  After the frame tree is validated it is
// transformed into a TopoCfg, from which the runtime representation
// (fogDev and friends) is built.

import (
	"fmt"

	"github.com/iti/rngstream"
)

// A DeviceFrame holds the attributes of a fog device during the model
// construction phase.  The parent link is a pointer; the root's is nil.
type DeviceFrame struct {
	Name          string
	Tier          int
	Mips          float64
	RAM           int
	UpBndwdth     float64
	DownBndwdth   float64
	RatePerMips   float64
	BusyPower     float64
	IdlePower     float64
	Parent        *DeviceFrame
	UplinkLatency float64

	// identifier issued by the TopoFrame that created the device
	Number int
}

// Transform converts a DeviceFrame and returns a DeviceDesc, for serialization.
func (df *DeviceFrame) Transform() DeviceDesc {
	dd := new(DeviceDesc)
	dd.Name = df.Name
	dd.Tier = df.Tier
	dd.Mips = df.Mips
	dd.RAM = df.RAM
	dd.UpBndwdth = df.UpBndwdth
	dd.DownBndwdth = df.DownBndwdth
	dd.RatePerMips = df.RatePerMips
	dd.BusyPower = df.BusyPower
	dd.IdlePower = df.IdlePower
	dd.UplinkLatency = df.UplinkLatency

	// a DeviceDesc names its parent rather than pointing at it
	if df.Parent != nil {
		dd.Parent = df.Parent.Name
	}
	return *dd
}

// The TopoFrame struct accumulates device frames while a topology is under
// construction, and issues the device identifiers used to refer to them.
// Identifiers are local to the frame; no process-wide counter is involved.
type TopoFrame struct {
	Name      string
	devByID   map[int]*DeviceFrame
	devByName map[string]*DeviceFrame
	numIDs    int
}

// CreateTopoFrame is a constructor.
func CreateTopoFrame(name string) *TopoFrame {
	tf := new(TopoFrame)
	tf.Name = name
	tf.devByID = make(map[int]*DeviceFrame)
	tf.devByName = make(map[string]*DeviceFrame)
	return tf
}

// nxtID creates an id for devices created within this frame that is unique among them
func (tf *TopoFrame) nxtID() int {
	tf.numIDs += 1
	return tf.numIDs
}

// AddDevice creates a device with no parent and returns its identifier.
// Compute capacity and both bandwidths must be strictly positive, and the
// device name must not be in use already.
func (tf *TopoFrame) AddDevice(name string, mips float64, ram int, upBndwdth, downBndwdth float64,
	tier int, ratePerMips, busyPower, idlePower float64) (int, error) {

	if !(mips > 0.0) || !(upBndwdth > 0.0) || !(downBndwdth > 0.0) || ram <= 0 {
		return 0, fmt.Errorf("device %s: %w", name, ErrInvalidParameter)
	}
	_, present := tf.devByName[name]
	if present {
		return 0, fmt.Errorf("device %s: %w", name, ErrDuplicateName)
	}

	df := new(DeviceFrame)
	df.Name = name
	df.Tier = tier
	df.Mips = mips
	df.RAM = ram
	df.UpBndwdth = upBndwdth
	df.DownBndwdth = downBndwdth
	df.RatePerMips = ratePerMips
	df.BusyPower = busyPower
	df.IdlePower = idlePower
	df.Number = tf.nxtID()

	tf.devByID[df.Number] = df
	tf.devByName[name] = df
	return df.Number, nil
}

// DeviceByName returns the frame of the named device, or nil.
func (tf *TopoFrame) DeviceByName(name string) *DeviceFrame {
	return tf.devByName[name]
}

// SetParent links a device to its parent and records the uplink latency
// between them.  The parent must already exist, and the assignment must
// not close a cycle through the parent chain.
func (tf *TopoFrame) SetParent(devID, parentID int, uplinkLatency float64) error {
	dev, present := tf.devByID[devID]
	if !present {
		return fmt.Errorf("device %d: %w", devID, ErrUnknownDevice)
	}
	parent, present := tf.devByID[parentID]
	if !present {
		return fmt.Errorf("device %d parent %d: %w", devID, parentID, ErrCycle)
	}

	// walk the parent chain up from the proposed parent.  Reaching dev
	// means the assignment closes a cycle
	for probe := parent; probe != nil; probe = probe.Parent {
		if probe == dev {
			return fmt.Errorf("device %s parent %s: %w", dev.Name, parent.Name, ErrCycle)
		}
	}

	dev.Parent = parent
	dev.UplinkLatency = uplinkLatency
	return nil
}

// Transform validates the accumulated device frames and converts them into
// a serializable TopoCfg.  Validation confirms that exactly one device is
// without a parent, which with the per-assignment cycle check in SetParent
// makes the hierarchy a single connected tree.
func (tf *TopoFrame) Transform() (*TopoCfg, error) {
	roots := 0
	for _, df := range tf.devByID {
		if df.Parent == nil {
			roots += 1
		}
	}
	if roots != 1 {
		return nil, fmt.Errorf("topology %s has %d roots: %w", tf.Name, roots, ErrMultipleRoot)
	}

	tc := new(TopoCfg)
	tc.Name = tf.Name
	tc.Devices = make([]DeviceDesc, 0, len(tf.devByID))

	// emit devices in identifier order so serialization is stable
	for idx := 1; idx <= tf.numIDs; idx += 1 {
		tc.Devices = append(tc.Devices, tf.devByID[idx].Transform())
	}
	return tc, nil
}

// a fogDevState holds the mutable accounting state of a device: the
// compute and bandwidth charged to it so far, the energy and monetary
// cost accumulated under the linear power model, and the random number
// stream the device draws selectivity trials from
type fogDevState struct {
	ComputeUsed float64 // cpu workload units charged so far
	BndwdthUsed float64 // network payload units moved through the device
	Energy      float64 // accumulated energy under the linear power model
	Cost        float64 // accumulated compute cost
	LastUpdate  float64 // simulation time of the last energy integration
	Rngstrm     *rngstream.RngStream
}

// fogDev is the runtime representation of a device, built from its desc
// representation once the topology is validated
type fogDev struct {
	DevName       string
	DevTier       int
	DevMips       float64
	DevRAM        int
	UpBndwdth     float64
	DownBndwdth   float64
	RatePerMips   float64
	BusyPower     float64
	IdlePower     float64
	UplinkLatency float64
	DevID         int
	ParentID      int // -1 at the root
	State         *fogDevState
}

// advance integrates idle power draw up to the given simulation time
func (dev *fogDev) advance(now float64) {
	if now > dev.State.LastUpdate {
		dev.State.Energy += dev.IdlePower * (now - dev.State.LastUpdate)
		dev.State.LastUpdate = now
	}
}

// chargeCompute charges a tuple's cpu workload to the device at the given
// time.  Execution of the workload raises the power draw from idle to busy
// for the workload's service time, and accrues compute cost at the
// device's rate.
func (dev *fogDev) chargeCompute(now, cpuLength float64) {
	dev.advance(now)
	execTime := cpuLength / dev.DevMips
	dev.State.Energy += (dev.BusyPower - dev.IdlePower) * execTime
	dev.State.ComputeUsed += cpuLength
	dev.State.Cost += dev.RatePerMips * cpuLength
}

// chargeBndwdth records a network payload transiting the device
func (dev *fogDev) chargeBndwdth(nwLength float64) {
	dev.State.BndwdthUsed += nwLength
}

// Topology is the runtime representation of a validated device hierarchy.
// It owns its devices exclusively; lookup maps are scoped here rather than
// held in package globals.
type Topology struct {
	Name      string
	DevByID   map[int]*fogDev
	DevByName map[string]*fogDev
	RootID    int

	// undirected parent-child connection graph, indexed by device id,
	// used for route discovery
	connGraph map[int][]int

	// cached shortest-path routes, see routes.go
	routeCache *routeTable
}

// createFogDev builds the runtime representation of a device from its desc
// representation.  The parent link is resolved by the Topology constructor
// once all devices exist.
func createFogDev(dd *DeviceDesc, devID int) *fogDev {
	dev := new(fogDev)
	dev.DevName = dd.Name
	dev.DevTier = dd.Tier
	dev.DevMips = dd.Mips
	dev.DevRAM = dd.RAM
	dev.UpBndwdth = dd.UpBndwdth
	dev.DownBndwdth = dd.DownBndwdth
	dev.RatePerMips = dd.RatePerMips
	dev.BusyPower = dd.BusyPower
	dev.IdlePower = dd.IdlePower
	dev.UplinkLatency = dd.UplinkLatency
	dev.DevID = devID
	dev.ParentID = -1

	dev.State = new(fogDevState)
	dev.State.Rngstrm = rngstream.New(dd.Name)
	return dev
}

// CreateTopology builds the runtime topology from a validated TopoCfg.
// Device identifiers are issued locally, in the order devices appear in
// the configuration.  The parent links recorded in the configuration are
// re-checked here so that a hand-written configuration file gets the same
// tree guarantees as one produced through a TopoFrame.
func CreateTopology(tc *TopoCfg) (*Topology, error) {
	topo := new(Topology)
	topo.Name = tc.Name
	topo.DevByID = make(map[int]*fogDev)
	topo.DevByName = make(map[string]*fogDev)
	topo.connGraph = make(map[int][]int)
	topo.RootID = -1

	numIDs := 0
	for idx := range tc.Devices {
		dd := &tc.Devices[idx]
		_, present := topo.DevByName[dd.Name]
		if present {
			return nil, fmt.Errorf("device %s: %w", dd.Name, ErrDuplicateName)
		}
		if !(dd.Mips > 0.0) || !(dd.UpBndwdth > 0.0) || !(dd.DownBndwdth > 0.0) || dd.RAM <= 0 {
			return nil, fmt.Errorf("device %s: %w", dd.Name, ErrInvalidParameter)
		}

		numIDs += 1
		dev := createFogDev(dd, numIDs)
		topo.DevByID[dev.DevID] = dev
		topo.DevByName[dev.DevName] = dev
	}

	// resolve parent links and build the connection graph
	roots := 0
	for idx := range tc.Devices {
		dd := &tc.Devices[idx]
		dev := topo.DevByName[dd.Name]

		if len(dd.Parent) == 0 {
			roots += 1
			topo.RootID = dev.DevID
			continue
		}

		parent, present := topo.DevByName[dd.Parent]
		if !present {
			return nil, fmt.Errorf("device %s parent %s: %w", dd.Name, dd.Parent, ErrUnknownDevice)
		}
		dev.ParentID = parent.DevID
		topo.connGraph[dev.DevID] = append(topo.connGraph[dev.DevID], parent.DevID)
		topo.connGraph[parent.DevID] = append(topo.connGraph[parent.DevID], dev.DevID)
	}

	if roots != 1 {
		return nil, fmt.Errorf("topology %s has %d roots: %w", tc.Name, roots, ErrMultipleRoot)
	}

	// with a single root, an acyclic parent relation reaches every device.
	// Walking up from each device bounds out if a configuration smuggled
	// in a cycle among non-root devices
	for _, dev := range topo.DevByID {
		steps := 0
		for probe := dev; probe.ParentID != -1; probe = topo.DevByID[probe.ParentID] {
			steps += 1
			if steps > len(topo.DevByID) {
				return nil, fmt.Errorf("topology %s: %w", tc.Name, ErrCycle)
			}
		}
	}

	topo.routeCache = createRouteTable()
	return topo, nil
}

// DeviceLoad reports the compute and bandwidth charged to a device so far.
func (topo *Topology) DeviceLoad(devID int) (float64, float64, error) {
	dev, present := topo.DevByID[devID]
	if !present {
		return 0.0, 0.0, fmt.Errorf("device %d: %w", devID, ErrUnknownDevice)
	}
	return dev.State.ComputeUsed, dev.State.BndwdthUsed, nil
}

// DeviceEnergy reports the energy a device has accumulated under the
// linear power model, integrated up to the last charging event.
func (topo *Topology) DeviceEnergy(devID int) (float64, error) {
	dev, present := topo.DevByID[devID]
	if !present {
		return 0.0, fmt.Errorf("device %d: %w", devID, ErrUnknownDevice)
	}
	return dev.State.Energy, nil
}

// DeviceCost reports the compute cost a device has accumulated.
func (topo *Topology) DeviceCost(devID int) (float64, error) {
	dev, present := topo.DevByID[devID]
	if !present {
		return 0.0, fmt.Errorf("device %d: %w", devID, ErrUnknownDevice)
	}
	return dev.State.Cost, nil
}
