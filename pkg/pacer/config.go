package pacer

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Definition is a declarative rate-limit policy for one action class. It is
// an immutable value; NewLimiter turns it into a live Limiter.
type Definition struct {
	// Namespace groups related actions, e.g. "api_action".
	Namespace string `yaml:"namespace"`

	// Action names the throttled action within the namespace.
	Action string `yaml:"action"`

	// BurstLimit is the requested burst count. The effective limit is
	// max(floor(BurstLimit)-1, 1).
	BurstLimit float64 `yaml:"burst_limit"`

	// WindowSec is the sliding window size in seconds. Zero or less
	// disables the limiter.
	WindowSec float64 `yaml:"window_size_sec"`
}

// Validate checks if the definition is usable.
func (d *Definition) Validate() error {
	if d.Namespace == "" {
		return fmt.Errorf("%w: definition namespace cannot be empty", ErrInvalidConfig)
	}
	if d.Action == "" {
		return fmt.Errorf("%w: definition action cannot be empty", ErrInvalidConfig)
	}
	return nil
}

// Key returns the registry key for the definition.
func (d Definition) Key() string {
	return d.Namespace + "/" + d.Action
}

// NewLimiter instantiates a configured limiter from the definition.
func (d Definition) NewLimiter(opts ...Option) (*Limiter, error) {
	return NewLimiter(d, opts...)
}

// BuiltinDefinitions returns the stock policies, derived from the chained
// bot API limits: 30 messages per ~1s to a user, 20 messages per ~61s to a
// group.
func BuiltinDefinitions() []Definition {
	return []Definition{
		{
			Namespace:  "api_action",
			Action:     "send_message--user",
			BurstLimit: 30,
			WindowSec:  1.017,
		},
		{
			Namespace:  "api_action",
			Action:     "send_message--group",
			BurstLimit: 20,
			WindowSec:  61.02,
		},
	}
}

// Registry is a named table of limiter definitions keyed by
// namespace/action. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates a registry pre-loaded with the given definitions.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a definition. Registering the same namespace/action twice
// is an error; policies are replaced by building a new registry, not by
// silent overwrite.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Key()]; exists {
		return fmt.Errorf("%w: %s already registered", ErrInvalidConfig, def.Key())
	}
	r.defs[def.Key()] = def
	return nil
}

// Lookup returns the definition for a namespace/action pair.
func (r *Registry) Lookup(namespace, action string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[namespace+"/"+action]
	return def, ok
}

// Limiter instantiates a limiter for a registered definition.
func (r *Registry) Limiter(namespace, action string, opts ...Option) (*Limiter, error) {
	def, ok := r.Lookup(namespace, action)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownDefinition, namespace, action)
	}
	return def.NewLimiter(opts...)
}

// Definitions returns a snapshot of all registered definitions.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	return defs
}

// presetFile is the YAML shape accepted by LoadDefinitionsFromFile.
type presetFile struct {
	Presets []Definition `yaml:"presets"`
}

// LoadDefinitionsFromFile loads limiter definitions from a YAML file:
//
//	presets:
//	  - namespace: api_action
//	    action: send_message--user
//	    burst_limit: 30
//	    window_size_sec: 1.017
func LoadDefinitionsFromFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read preset file: %v", ErrInvalidConfig, err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	for i := range file.Presets {
		if err := file.Presets[i].Validate(); err != nil {
			return nil, err
		}
	}

	return file.Presets, nil
}

// LoadFile registers every definition from a YAML preset file.
func (r *Registry) LoadFile(path string) error {
	defs, err := LoadDefinitionsFromFile(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
