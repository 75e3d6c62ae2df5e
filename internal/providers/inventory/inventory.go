package inventory

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/shared/types"
	"go.uber.org/zap"
)

// hostEntry is the on-disk shape of one inventory host.
type hostEntry struct {
	Name  string            `yaml:"name"`
	Kind  string            `yaml:"kind"`
	Host  string            `yaml:"host"`
	Port  int               `yaml:"port"`
	User  string            `yaml:"user"`
	Flags map[string]string `yaml:"flags"`
}

type groupEntry struct {
	Name  string   `yaml:"name"`
	Hosts []string `yaml:"hosts"`
}

type inventoryFile struct {
	Hosts  []hostEntry  `yaml:"hosts"`
	Groups []groupEntry `yaml:"groups"`
}

// Inventory resolves host and group names to connection targets loaded
// from a YAML file.
type Inventory struct {
	mu     sync.RWMutex
	hosts  map[string]types.HostTarget
	groups map[string][]string
	order  []string
	logger *logging.Logger
}

// New creates an empty inventory.
func New(logger *logging.Logger) *Inventory {
	return &Inventory{
		hosts:  make(map[string]types.HostTarget),
		groups: make(map[string][]string),
		logger: logger,
	}
}

// LoadFile reads an inventory YAML file, replacing the current contents.
func (inv *Inventory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	if err := inv.Load(data); err != nil {
		return err
	}
	inv.logger.Info("Inventory loaded",
		zap.String("path", path),
		zap.Int("hosts", len(inv.order)))
	return nil
}

// Load parses YAML inventory content, replacing the current contents.
func (inv *Inventory) Load(data []byte) error {
	var file inventoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse inventory: %w", err)
	}

	hosts := make(map[string]types.HostTarget, len(file.Hosts))
	order := make([]string, 0, len(file.Hosts))
	for _, entry := range file.Hosts {
		if entry.Name == "" {
			return fmt.Errorf("inventory host with empty name")
		}
		if _, dup := hosts[entry.Name]; dup {
			return fmt.Errorf("duplicate inventory host %q", entry.Name)
		}
		kind := types.ConnectionKind(entry.Kind)
		if entry.Kind == "" {
			kind = types.ConnSSH
		}
		hosts[entry.Name] = types.HostTarget{
			Name: entry.Name,
			Kind: kind,
			Params: types.ConnectionParams{
				Host:  entry.Host,
				Port:  entry.Port,
				User:  entry.User,
				Flags: entry.Flags,
			},
		}
		order = append(order, entry.Name)
	}

	groups := make(map[string][]string, len(file.Groups))
	for _, group := range file.Groups {
		if group.Name == "" {
			return fmt.Errorf("inventory group with empty name")
		}
		for _, member := range group.Hosts {
			if _, ok := hosts[member]; !ok {
				return fmt.Errorf("group %q references unknown host %q", group.Name, member)
			}
		}
		groups[group.Name] = append([]string(nil), group.Hosts...)
	}

	inv.mu.Lock()
	inv.hosts = hosts
	inv.groups = groups
	inv.order = order
	inv.mu.Unlock()
	return nil
}

// Resolve expands a list of host or group names into concrete targets.
// Group members keep their file order; duplicates resolve once.
func (inv *Inventory) Resolve(names []string) ([]types.HostTarget, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	seen := make(map[string]bool)
	targets := make([]types.HostTarget, 0, len(names))

	appendHost := func(name string) error {
		target, ok := inv.hosts[name]
		if !ok {
			return fmt.Errorf("unknown host %q", name)
		}
		if !seen[name] {
			seen[name] = true
			targets = append(targets, target)
		}
		return nil
	}

	for _, name := range names {
		if members, ok := inv.groups[name]; ok {
			for _, member := range members {
				if err := appendHost(member); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := appendHost(name); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// Hosts returns all targets in file order.
func (inv *Inventory) Hosts() []types.HostTarget {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]types.HostTarget, 0, len(inv.order))
	for _, name := range inv.order {
		out = append(out, inv.hosts[name])
	}
	return out
}

// Groups returns group names to member host names.
func (inv *Inventory) Groups() map[string][]string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make(map[string][]string, len(inv.groups))
	for name, members := range inv.groups {
		out[name] = append([]string(nil), members...)
	}
	return out
}
