package commands

import (
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/leapstack-labs/dbbridge/pkg/drivers/objects"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
)

// ProcessRealm is the name of the realm describing the running bridge.
const ProcessRealm = "dbbridge"

// DriverObject describes one registered driver type.
type DriverObject struct {
	Type string `dbbridge:"type,primary"`
}

// DatabaseObject describes one registry entry.
type DatabaseObject struct {
	ID     int    `dbbridge:"id,primary"`
	Name   string `dbbridge:"name,indexed"`
	Driver string `dbbridge:"driver,indexed"`
}

// newProcessRealm builds the realm over the driver registry and the
// databases of the manager returned by current.
func newProcessRealm(current func() *manager.Manager) (*objects.Realm, error) {
	r := objects.NewRealm(ProcessRealm)

	err := objects.Register(r, "drivers", func() []DriverObject {
		names := driver.List()
		out := make([]DriverObject, len(names))
		for i, n := range names {
			out[i] = DriverObject{Type: n}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	err = objects.Register(r, "databases", func() []DatabaseObject {
		m := current()
		if m == nil {
			return nil
		}
		holders := m.Databases()
		out := make([]DatabaseObject, len(holders))
		for i, h := range holders {
			out[i] = DatabaseObject{ID: h.ID, Name: h.Name(), Driver: h.Driver.Name()}
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func publishProcessRealm(current func() *manager.Manager) error {
	r, err := newProcessRealm(current)
	if err != nil {
		return err
	}
	objects.Publish(r)
	return nil
}
