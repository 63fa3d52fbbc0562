package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xzhiot/telemetry-replayer/internal/models"
	"github.com/xzhiot/telemetry-replayer/internal/validation"
)

// Registry is the set of zones the replayer can simulate.
type Registry struct {
	Zones []Zone `yaml:"zones" validate:"dive"`
}

// Zone groups the devices of one site area.
type Zone struct {
	Name string `yaml:"name" validate:"required"`
	// Tenant overrides the process-wide tenant for this zone.
	Tenant string `yaml:"tenant"`
	// ClientID is a template with {zone}, {name}, {principal} and {n}
	// placeholders. Empty means the principal, or {zone}-{name}-{n} for
	// devices without one.
	ClientID string  `yaml:"client_id"`
	Groups   []Group `yaml:"devices" validate:"dive"`
}

// Group is a run of identical devices replaying the same source file.
type Group struct {
	Name string `yaml:"name" validate:"required"`
	File string `yaml:"file" validate:"required"`
	Kind string `yaml:"kind"`
	// Principal may contain %d, replaced by the 1-based device number.
	Principal string `yaml:"principal"`
	Secret    string `yaml:"secret"`
	Count     int    `yaml:"count" validate:"min=0"`
	ClientID  string `yaml:"client_id"`
}

// LoadFile reads a YAML registry file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	if err := validation.NewValidator().Validate(&r); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}

	return &r, nil
}

// Merge returns a registry holding r's zones with zones of the same name
// replaced by other's. Zones only present in other are appended.
func (r *Registry) Merge(other *Registry) *Registry {
	out := &Registry{Zones: append([]Zone(nil), r.Zones...)}
	if other == nil {
		return out
	}

	for _, z := range other.Zones {
		replaced := false
		for i := range out.Zones {
			if out.Zones[i].Name == z.Name {
				out.Zones[i] = z
				replaced = true
				break
			}
		}
		if !replaced {
			out.Zones = append(out.Zones, z)
		}
	}
	return out
}

// ZoneNames lists the zone names in registry order.
func (r *Registry) ZoneNames() []string {
	names := make([]string, len(r.Zones))
	for i, z := range r.Zones {
		names[i] = z.Name
	}
	return names
}

// Select keeps the named zones in the order given. An empty list selects
// every zone.
func (r *Registry) Select(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	out := &Registry{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		found := false
		for _, z := range r.Zones {
			if z.Name == name {
				out.Zones = append(out.Zones, z)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown zone %q (known: %s)", name, strings.Join(r.ZoneNames(), ", "))
		}
	}
	return out, nil
}

// Devices expands every group into device descriptors. Data sources are
// resolved against dataDir; tenant applies to zones without their own.
// Two devices with the same zone and name are an error.
func (r *Registry) Devices(dataDir, tenant string) ([]*models.Device, error) {
	v := validation.NewValidator()

	var devices []*models.Device
	seen := make(map[string]bool)
	for _, z := range r.Zones {
		zoneTenant := tenant
		if z.Tenant != "" {
			zoneTenant = z.Tenant
		}

		for _, g := range z.Groups {
			count := g.Count
			if count == 0 {
				count = 1
			}

			format := z.ClientID
			if g.ClientID != "" {
				format = g.ClientID
			}

			for n := 1; n <= count; n++ {
				d := &models.Device{
					Name:       g.Name,
					DataSource: filepath.Join(dataDir, g.File),
					Principal:  expandPrincipal(g.Principal, n),
					Secret:     g.Secret,
					Zone:       z.Name,
					Tenant:     zoneTenant,
					Kind:       g.Kind,
				}
				if count > 1 {
					d.Name = fmt.Sprintf("%s-%d", g.Name, n)
				}
				d.ClientID = clientID(format, d, n)

				if err := v.Validate(d); err != nil {
					return nil, fmt.Errorf("device %s: %w", d.Key(), err)
				}
				if seen[d.Key()] {
					return nil, fmt.Errorf("duplicate device %s", d.Key())
				}
				seen[d.Key()] = true
				devices = append(devices, d)
			}
		}
	}
	return devices, nil
}

func expandPrincipal(pattern string, n int) string {
	if strings.Contains(pattern, "%d") {
		return strings.ReplaceAll(pattern, "%d", strconv.Itoa(n))
	}
	return pattern
}

func clientID(format string, d *models.Device, n int) string {
	if format == "" {
		if d.Principal != "" {
			return d.Principal
		}
		format = "{zone}-{name}-{n}"
	}

	id := strings.NewReplacer(
		"{zone}", d.Zone,
		"{name}", d.Name,
		"{principal}", d.Principal,
		"{n}", strconv.Itoa(n),
	).Replace(format)
	if id == "" {
		return fmt.Sprintf("%s-%s-%d", d.Zone, d.Name, n)
	}
	return id
}
