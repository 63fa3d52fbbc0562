package models

import (
	"fmt"
	"path/filepath"
)

// Device describes one simulated device. Descriptors are built once at
// startup from the registry and never change afterwards.
type Device struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	DataSource string `json:"dataSource" yaml:"data_source" validate:"required"`
	Principal  string `json:"principal,omitempty" yaml:"principal"`
	Secret     string `json:"-" yaml:"secret"`
	Zone       string `json:"zone" yaml:"zone" validate:"required"`
	Tenant     string `json:"tenant" yaml:"tenant" validate:"required"`
	Kind       string `json:"kind" yaml:"kind"`
	ClientID   string `json:"clientId" yaml:"client_id" validate:"required"`
}

// Topic returns the telemetry topic of the device. The principal is used
// as the device segment when set, the display name otherwise.
func (d *Device) Topic() string {
	id := d.Principal
	if id == "" {
		id = d.Name
	}
	return fmt.Sprintf("%s/%s/%s/telemetry", d.Tenant, d.Zone, id)
}

// SourceName is the base file name of the data source, used in logs.
func (d *Device) SourceName() string {
	return filepath.Base(d.DataSource)
}

// Key identifies a device across zones.
func (d *Device) Key() string {
	return d.Zone + "/" + d.Name
}
