// Package hooks provides the lifecycle hook registry that generated CRUD
// handlers invoke at six well-defined points. Registration happens once at
// process startup; after Seal, execution reads an immutable snapshot and
// takes no lock.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Event identifies one of the six lifecycle points.
type Event string

const (
	BeforeCreate Event = "before_create"
	AfterCreate  Event = "after_create"
	BeforeUpdate Event = "before_update"
	AfterUpdate  Event = "after_update"
	BeforeDelete Event = "before_delete"
	AfterDelete  Event = "after_delete"
)

// Events is the closed set of recognized lifecycle events.
var Events = map[Event]bool{
	BeforeCreate: true,
	AfterCreate:  true,
	BeforeUpdate: true,
	AfterUpdate:  true,
	BeforeDelete: true,
	AfterDelete:  true,
}

// Context carries named values through a hook chain. The same Context is
// handed to every callable in the chain, accumulating mutations in order.
type Context map[string]any

// Func is a hook callable. It may read and rely on the accumulated Context
// and returns a tagged Result describing how the chain should continue.
type Func func(ctx context.Context, hc Context) (Result, error)

type resultKind int

const (
	kindProceed resultKind = iota
	kindProceedWith
	kindAbort
)

// Result is the tagged outcome of a single hook callable. It replaces the
// older convention of overloading the return value (mapping = merge,
// anything else = abort) with an explicit three-state type.
type Result struct {
	kind      resultKind
	mutations Context
}

// Proceed continues the chain without touching the context.
func Proceed() Result {
	return Result{kind: kindProceed}
}

// ProceedWith continues the chain after merging mutations into the
// accumulated context; later callables observe them.
func ProceedWith(mutations Context) Result {
	return Result{kind: kindProceedWith, mutations: mutations}
}

// Abort short-circuits the chain. For before_delete this is the sanctioned
// way to signal that the entity must not be removed.
func Abort() Result {
	return Result{kind: kindAbort}
}

// Registration binds a named callable to an (entity, event) pair. The Name
// only serves diagnostics output.
type Registration struct {
	Event  Event
	Entity string
	Name   string
	Fn     Func
}

// ConfigurationError reports invalid registry use: an unrecognized event
// name, or registration after the registry was sealed. Both are startup
// defects, not runtime conditions.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// Outcome is the result of executing a hook chain.
type Outcome struct {
	// Context is the accumulated context after every executed callable.
	Context Context
	// Aborted is set when a callable returned Abort.
	Aborted bool
}

type key struct {
	entity string
	event  Event
}

// Registry maps (entity, event) pairs to ordered hook chains. Registration
// is append-only and lock-protected; Seal installs an immutable snapshot so
// the execution path is lock-free for the rest of the process lifetime.
type Registry struct {
	mu      sync.Mutex
	pending map[key][]Registration
	snap    atomic.Pointer[map[key][]Registration]
	log     *zap.Logger
}

// NewRegistry creates an empty hook registry. A nil logger disables
// registry logging.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		pending: make(map[key][]Registration),
		log:     log,
	}
}

// Register appends a callable to the chain for (entity, event).
func (r *Registry) Register(event Event, entity string, fn Func) error {
	return r.RegisterNamed(Registration{Event: event, Entity: entity, Fn: fn})
}

// RegisterNamed appends a named registration. Unknown events and
// registration after Seal are fatal configuration errors.
func (r *Registry) RegisterNamed(reg Registration) error {
	if !Events[reg.Event] {
		return &ConfigurationError{
			Message: fmt.Sprintf("unknown lifecycle event %q for entity %s", reg.Event, reg.Entity),
		}
	}
	if reg.Fn == nil {
		return &ConfigurationError{
			Message: fmt.Sprintf("nil hook registered for %s %s", reg.Entity, reg.Event),
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snap.Load() != nil {
		return &ConfigurationError{
			Message: fmt.Sprintf("registry is sealed, cannot register %s hook for %s", reg.Event, reg.Entity),
		}
	}

	k := key{entity: reg.Entity, event: reg.Event}
	r.pending[k] = append(r.pending[k], reg)

	r.log.Debug("registered hook",
		zap.String("entity", reg.Entity),
		zap.String("event", string(reg.Event)),
		zap.String("name", reg.Name),
	)
	return nil
}

// Bootstrap registers a static list of hooks and seals the registry. It is
// the intended startup path: discovery assembles the list, Bootstrap makes
// it live in one step, independent of any import or iteration order.
func (r *Registry) Bootstrap(regs []Registration) error {
	for _, reg := range regs {
		if err := r.RegisterNamed(reg); err != nil {
			return err
		}
	}
	r.Seal()
	return nil
}

// Seal freezes the registry and installs the immutable execution snapshot.
// All registration must complete before any serving traffic arrives; Seal
// is the point of that handoff. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snap.Load() != nil {
		return
	}

	frozen := make(map[key][]Registration, len(r.pending))
	for k, chain := range r.pending {
		copied := make([]Registration, len(chain))
		copy(copied, chain)
		frozen[k] = copied
	}
	r.snap.Store(&frozen)
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	return r.snap.Load() != nil
}

// chain returns the registrations for one (entity, event) key. Sealed
// registries read the snapshot without locking; unsealed ones take the
// registration lock, which keeps single-threaded embedders and tests
// working before Seal.
func (r *Registry) chain(event Event, entity string) []Registration {
	if snap := r.snap.Load(); snap != nil {
		return (*snap)[key{entity: entity, event: event}]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.pending[key{entity: entity, event: event}]
	copied := make([]Registration, len(pending))
	copy(copied, pending)
	return copied
}

// Execute runs every callable registered for (entity, event) in
// registration order, synchronously. ProceedWith mutations merge into the
// accumulated context before the next callable runs; Abort short-circuits
// the chain. An error from a callable aborts the chain and propagates to
// the caller: hooks are trusted extension code, their failures are never
// swallowed.
func (r *Registry) Execute(ctx context.Context, event Event, entity string, hc Context) (Outcome, error) {
	if !Events[event] {
		return Outcome{}, &ConfigurationError{
			Message: fmt.Sprintf("unknown lifecycle event %q for entity %s", event, entity),
		}
	}
	if hc == nil {
		hc = Context{}
	}

	regs := r.chain(event, entity)
	for _, reg := range regs {
		res, err := reg.Fn(ctx, hc)
		if err != nil {
			return Outcome{Context: hc}, fmt.Errorf("%s hook for %s failed: %w", event, entity, err)
		}

		switch res.kind {
		case kindAbort:
			r.log.Debug("hook chain aborted",
				zap.String("entity", entity),
				zap.String("event", string(event)),
				zap.String("name", reg.Name),
			)
			return Outcome{Context: hc, Aborted: true}, nil
		case kindProceedWith:
			for k, v := range res.mutations {
				hc[k] = v
			}
		}
	}

	return Outcome{Context: hc}, nil
}

// Snapshot lists registered hook names per entity and event, for
// diagnostics. Unnamed hooks are reported as "<anonymous>".
func (r *Registry) Snapshot() map[string]map[Event][]string {
	var source map[key][]Registration
	if snap := r.snap.Load(); snap != nil {
		source = *snap
	} else {
		r.mu.Lock()
		source = make(map[key][]Registration, len(r.pending))
		for k, chain := range r.pending {
			source[k] = chain
		}
		r.mu.Unlock()
	}

	out := make(map[string]map[Event][]string)
	for k, chain := range source {
		byEvent, ok := out[k.entity]
		if !ok {
			byEvent = make(map[Event][]string)
			out[k.entity] = byEvent
		}
		names := make([]string, 0, len(chain))
		for _, reg := range chain {
			name := reg.Name
			if name == "" {
				name = "<anonymous>"
			}
			names = append(names, name)
		}
		byEvent[k.event] = names
	}
	return out
}

// Entities lists the entity names with at least one registered hook.
func (r *Registry) Entities() []string {
	snap := r.Snapshot()
	names := make([]string, 0, len(snap))
	for entity := range snap {
		names = append(names, entity)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry backs the package-level helpers used by generated code.
var defaultRegistry = NewRegistry(nil)

// Default returns the process-wide registry the generated handlers use.
func Default() *Registry {
	return defaultRegistry
}

// SetLogger replaces the default registry's logger. Call before any
// registration.
func SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	defaultRegistry.log = log
}

// Register registers a hook on the default registry.
func Register(event Event, entity string, fn Func) error {
	return defaultRegistry.Register(event, entity, fn)
}

// Bootstrap registers a static hook list on the default registry and seals
// it.
func Bootstrap(regs []Registration) error {
	return defaultRegistry.Bootstrap(regs)
}

// Execute runs a hook chain on the default registry.
func Execute(ctx context.Context, event Event, entity string, hc Context) (Outcome, error) {
	return defaultRegistry.Execute(ctx, event, entity, hc)
}
