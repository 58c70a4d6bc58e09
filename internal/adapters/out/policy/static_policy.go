package policy

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/services"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicy []byte

type policyFile struct {
	Roles map[actor.Role][]services.Capability `yaml:"roles"`
}

// StaticPolicy resolves capabilities from a YAML document mapping roles to
// capability names. Unknown roles or capabilities in the document are rejected.
type StaticPolicy struct {
	path string
	mu   sync.RWMutex
	caps map[actor.Role]services.CapabilitySet
}

// NewDefaultPolicy returns the built-in policy.
func NewDefaultPolicy() (*StaticPolicy, error) {
	p := &StaticPolicy{}
	if err := p.load(defaultPolicy, "embedded default"); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStaticPolicy loads the policy at path. An empty path selects the built-in policy.
func NewStaticPolicy(path string) (*StaticPolicy, error) {
	if path == "" {
		return NewDefaultPolicy()
	}
	p := &StaticPolicy{path: path}
	if err := p.Sync(); err != nil {
		return nil, err
	}
	return p, nil
}

// Capabilities returns a copy of the capability set granted to role.
func (p *StaticPolicy) Capabilities(role actor.Role) services.CapabilitySet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(services.CapabilitySet, len(p.caps[role]))
	for c := range p.caps[role] {
		out[c] = true
	}
	return out
}

// Sync reloads the policy file from disk. It is a no-op for the built-in policy.
func (p *StaticPolicy) Sync() error {
	if p.path == "" {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("policy: reading %s: %w", p.path, err)
	}
	return p.load(data, p.path)
}

func (p *StaticPolicy) load(data []byte, source string) error {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("policy: parsing %s: %w", source, err)
	}

	known := map[services.Capability]bool{
		services.CapabilityManageAll:        true,
		services.CapabilityManageDepartment: true,
		services.CapabilityViewOwn:          true,
	}

	caps := make(map[actor.Role]services.CapabilitySet, len(file.Roles))
	for role, granted := range file.Roles {
		set := make(services.CapabilitySet, len(granted))
		for _, c := range granted {
			if !known[c] {
				return fmt.Errorf("policy: %s grants unknown capability %q to %s", source, c, role)
			}
			set[c] = true
		}
		caps[role] = set
	}

	p.mu.Lock()
	p.caps = caps
	p.mu.Unlock()
	return nil
}
