package bridge

import (
	"sort"
	"sync"

	"github.com/mj1618/game-bridge/internal/protocol"
)

// PropertyFunc returns the current value of a registered property. The
// value should be a primitive (string, number, boolean, or nil); it is
// stringified on the wire.
type PropertyFunc func() any

// ActionFunc executes a registered action with ordered string arguments.
type ActionFunc func(args []string) error

// CommandFunc executes a registered command with a single string parameter
// and returns arbitrary structured data.
type CommandFunc func(param string) (any, error)

// PositionFunc returns an element's current viewport position, or nil when
// the element is not currently present or visible. It is queried on demand
// and never cached; the position may change between calls.
type PositionFunc func() *protocol.Position

// Registry holds the name-keyed handler and element mappings. Registration
// is last-write-wins per name; there is no removal. Pure storage, no I/O.
type Registry struct {
	mu         sync.RWMutex
	properties map[string]PropertyFunc
	actions    map[string]ActionFunc
	commands   map[string]CommandFunc
	elements   map[string]PositionFunc

	// elementOrder preserves first-registration order; the rendered-node
	// tap strategy evaluates candidates in this order and first match
	// wins. Re-registering a name replaces the getter without moving the
	// name.
	elementOrder []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		properties: make(map[string]PropertyFunc),
		actions:    make(map[string]ActionFunc),
		commands:   make(map[string]CommandFunc),
		elements:   make(map[string]PositionFunc),
	}
}

// RegisterProperty stores a property getter, replacing any previous getter
// with the same name.
func (r *Registry) RegisterProperty(name string, fn PropertyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[name] = fn
}

// RegisterAction stores an action handler, replacing any previous handler
// with the same name.
func (r *Registry) RegisterAction(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// RegisterCommand stores a command handler, replacing any previous handler
// with the same name.
func (r *Registry) RegisterCommand(name string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = fn
}

// RegisterElement stores an element position getter, replacing any previous
// getter with the same name.
func (r *Registry) RegisterElement(name string, fn PositionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.elements[name]; !exists {
		r.elementOrder = append(r.elementOrder, name)
	}
	r.elements[name] = fn
}

// Property returns the getter registered under name.
func (r *Registry) Property(name string) (PropertyFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.properties[name]
	return fn, ok
}

// Action returns the handler registered under name.
func (r *Registry) Action(name string) (ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Command returns the handler registered under name.
func (r *Registry) Command(name string) (CommandFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.commands[name]
	return fn, ok
}

// Element returns the position getter registered under name.
func (r *Registry) Element(name string) (PositionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.elements[name]
	return fn, ok
}

// PropertyNames returns registered property names, sorted.
func (r *Registry) PropertyNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.properties)
}

// ActionNames returns registered action names, sorted.
func (r *Registry) ActionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.actions)
}

// CommandNames returns registered command names, sorted.
func (r *Registry) CommandNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.commands)
}

// ElementNames returns registered element names in registration order.
func (r *Registry) ElementNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.elementOrder))
	copy(names, r.elementOrder)
	return names
}

// ElementCount returns the number of registered elements.
func (r *Registry) ElementCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// ElementInfos lists every registered element with its current position,
// substituting {0, 0} when the getter currently returns nil.
func (r *Registry) ElementInfos() []protocol.ElementInfo {
	names := r.ElementNames()
	infos := make([]protocol.ElementInfo, 0, len(names))
	for _, name := range names {
		getter, ok := r.Element(name)
		if !ok {
			continue
		}
		info := protocol.ElementInfo{Name: name}
		if pos := getter(); pos != nil {
			info.Position = *pos
		}
		infos = append(infos, info)
	}
	return infos
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
