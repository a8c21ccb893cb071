package container

import (
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Snapshot is a serialisable view of a container's registrations.
type Snapshot struct {
	ID          string              `json:"id" yaml:"id"`
	Aliases     map[TypeID]TypeID   `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Definitions map[TypeID][]string `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	Shared      []TypeID            `json:"shared,omitempty" yaml:"shared,omitempty"`
	Instances   []TypeID            `json:"instances,omitempty" yaml:"instances,omitempty"`
	Delegates   []TypeID            `json:"delegates,omitempty" yaml:"delegates,omitempty"`
	Deferred    []TypeID            `json:"deferred,omitempty" yaml:"deferred,omitempty"`
	Tags        map[string][]TypeID `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Snapshot captures the current registrations. Definitions are listed by
// parameter key (":name", "+name", "name"); values are left out.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.store

	snap := Snapshot{ID: c.id}
	if len(s.aliases) > 0 {
		snap.Aliases = make(map[TypeID]TypeID, len(s.aliases))
		for k, v := range s.aliases {
			snap.Aliases[k] = v
		}
	}
	if len(s.definitions) > 0 {
		snap.Definitions = make(map[TypeID][]string, len(s.definitions))
		for id, p := range s.definitions {
			keys := p.Keys()
			if n := len(p.positional); n > 0 {
				keys = append(keys, positionalKey(n))
			}
			snap.Definitions[id] = keys
		}
	}
	snap.Shared = keysOf(s.shared)
	snap.Instances = keysOf(s.instances)
	snap.Delegates = keysOf(s.delegates)
	snap.Deferred = keysOf(s.loaders)
	if len(s.tags) > 0 {
		snap.Tags = make(map[string][]TypeID, len(s.tags))
		for tag, ids := range s.tags {
			snap.Tags[tag] = append([]TypeID(nil), ids...)
		}
	}
	return snap
}

// YAML renders the snapshot as YAML.
func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

func positionalKey(n int) string {
	return "[" + strconv.Itoa(n) + " positional]"
}

func keysOf[V any](m map[TypeID]V) []TypeID {
	if len(m) == 0 {
		return nil
	}
	out := make([]TypeID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
