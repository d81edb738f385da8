package fogsim

// placement.go holds the binding of application modules to the devices
// that host them.  Placement decisions themselves come from outside; the
// binding is validated here so that every module the application graph
// references runs on exactly one existing device.

import (
	"fmt"
)

// A ModuleMapping maps logical module names to physical device names.
type ModuleMapping struct {
	Mapping map[string]string
}

// CreateModuleMapping is a constructor.
func CreateModuleMapping() *ModuleMapping {
	mm := new(ModuleMapping)
	mm.Mapping = make(map[string]string)
	return mm
}

// AddModuleToDevice binds a module to the named device.  A rebinding of a
// module already placed is rejected; a module runs in exactly one place.
func (mm *ModuleMapping) AddModuleToDevice(module, device string) error {
	_, present := mm.Mapping[module]
	if present {
		return fmt.Errorf("module %s: %w", module, ErrDuplicateName)
	}
	mm.Mapping[module] = device
	return nil
}

// CreateModuleMappingFromCfg builds a ModuleMapping from its desc representation.
func CreateModuleMappingFromCfg(pc *PlacementCfg) (*ModuleMapping, error) {
	mm := CreateModuleMapping()
	for module, device := range pc.Mapping {
		err := mm.AddModuleToDevice(module, device)
		if err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// Transform converts a ModuleMapping into its serializable PlacementCfg form.
func (mm *ModuleMapping) Transform(name string) PlacementCfg {
	pc := new(PlacementCfg)
	pc.Name = name
	pc.Mapping = make(map[string]string)
	for module, device := range mm.Mapping {
		pc.Mapping[module] = device
	}
	return *pc
}

// validate checks the binding against an application and a topology:
// every module the application's edges reference must be placed on a
// device that exists, and every placed module must be known to the
// application.
func (mm *ModuleMapping) validate(app *Application, topo *Topology) error {
	for module, device := range mm.Mapping {
		_, present := app.Modules[module]
		if !present {
			return fmt.Errorf("placement of %s: %w", module, ErrUnknownModule)
		}
		_, present = topo.DevByName[device]
		if !present {
			return fmt.Errorf("placement of %s on %s: %w", module, device, ErrUnknownDevice)
		}
	}

	for _, edge := range app.Edges {
		for _, endpoint := range []string{edge.Source, edge.Dest} {
			_, isModule := app.Modules[endpoint]
			if !isModule {
				continue
			}
			_, placed := mm.Mapping[endpoint]
			if !placed {
				return fmt.Errorf("module %s: %w", endpoint, ErrUnplacedModule)
			}
		}
	}
	return nil
}
