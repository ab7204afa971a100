// Package registry provides the agent catalog for conclave. Agents are
// declared as specs that bind a name to a factory locator key and an enabled
// flag. Instances are built lazily on first resolution and memoized, so a
// factory that performs remote I/O (fetching a tool catalog from an MCP
// server, for example) runs at most once per registry lifetime.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/logging"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/tool"
)

// Spec declares one agent: its conversation name, the factory that builds it,
// and whether it currently participates in conversations.
type Spec struct {
	Name    string
	Factory string
	Enabled bool
}

// Deps carries the shared collaborators a factory may need to construct an
// agent. Spec is the declaration being resolved, so a single factory can
// serve several named specs.
type Deps struct {
	Model      model.Model
	Logger     logging.Logger
	MCPServers []tool.ServerConfig
	Spec       Spec
}

// Factory builds an agent instance from its spec and shared dependencies.
// Factories may block on I/O; they receive the resolution context and must
// honor its cancellation.
type Factory func(ctx context.Context, deps Deps) (core.Agent, error)

// entry is the runtime state for one registered spec. The per-entry mutex
// serializes resolution so concurrent Resolve calls run the factory at most
// once; enabled and spec are guarded by the registry mutex instead. gen
// counts spec replacements so a resolution that snapshotted an old spec can
// detect the replacement and start over instead of caching a stale instance.
type entry struct {
	spec    Spec
	enabled bool
	gen     atomic.Uint64

	resolveMu sync.Mutex
	agent     core.Agent
}

// Registry is the agent catalog. All methods are safe for concurrent use.
// Each Registry owns its own factory table and instance cache; there is no
// process-global registration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	entries   map[string]*entry
	order     []string

	model      model.Model
	mcpServers []tool.ServerConfig
	logger     logging.Logger
}

// Options configures registry construction.
type Options struct {
	// Logger receives resolution diagnostics. Defaults to a no-op logger.
	Logger logging.Logger

	// MCPServers are passed through to factories that source tools from
	// remote servers.
	MCPServers []tool.ServerConfig
}

// New creates a registry whose factories build agents on the given model.
func New(m model.Model, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		factories:  make(map[string]Factory),
		entries:    make(map[string]*entry),
		model:      m,
		mcpServers: opts.MCPServers,
		logger:     opts.Logger,
	}
}

// RegisterFactory installs a factory under a locator key. Specs reference
// factories by this key. Registering the same key twice replaces the factory.
func (r *Registry) RegisterFactory(key string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key] = f
}

// RegisterOptions configures a single Register call.
type RegisterOptions struct {
	// Strict makes Register fail with DuplicateNameError instead of
	// replacing a spec that already uses the name.
	Strict bool

	// Enabled controls whether the agent participates in conversations.
	Enabled bool
}

// WithStrict makes duplicate names an error instead of a replacement.
func WithStrict() func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Strict = true }
}

// WithEnabled sets the initial enabled flag. Agents are enabled by default.
func WithEnabled(enabled bool) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Enabled = enabled }
}

// Register declares an agent under name, built by the factory registered at
// factoryKey. Registering an existing name replaces the spec and discards any
// cached instance, so the next resolution rebuilds the agent. With
// WithStrict, a duplicate name returns DuplicateNameError and leaves the
// existing spec untouched.
//
// The factory key is not checked at registration time; an unknown key
// surfaces as a ResolutionError when the agent is first resolved.
func (r *Registry) Register(name, factoryKey string, optFns ...func(o *RegisterOptions)) error {
	opts := RegisterOptions{Enabled: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if opts.Strict {
			return &core.DuplicateNameError{Name: name}
		}
		existing.resolveMu.Lock()
		existing.agent = nil
		existing.gen.Add(1)
		existing.resolveMu.Unlock()
		existing.spec = Spec{Name: name, Factory: factoryKey, Enabled: opts.Enabled}
		existing.enabled = opts.Enabled
		r.logger.Debug("agent spec replaced", "agent", name, "factory", factoryKey)
		return nil
	}

	r.entries[name] = &entry{
		spec:    Spec{Name: name, Factory: factoryKey, Enabled: opts.Enabled},
		enabled: opts.Enabled,
	}
	r.order = append(r.order, name)
	r.logger.Debug("agent spec registered", "agent", name, "factory", factoryKey, "enabled", opts.Enabled)
	return nil
}

// SetEnabled flips participation for a registered agent. A cached instance is
// kept; disabling only removes the agent from ActiveAgents results.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return &core.UnknownAgentError{Name: name}
	}
	e.enabled = enabled
	e.spec.Enabled = enabled
	return nil
}

// Specs returns the registered specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.entries[name].spec)
	}
	return specs
}

// Resolve returns the instance for name, building it on first use. Successful
// builds are cached; a failed build is not, so a later Resolve retries the
// factory. Failures are wrapped in ResolutionError with the cause available
// via errors.Unwrap.
func (r *Registry) Resolve(ctx context.Context, name string) (core.Agent, error) {
	for {
		agent, stale, err := r.resolveOnce(ctx, name)
		if stale {
			continue
		}
		return agent, err
	}
}

// resolveOnce performs one resolution attempt against a snapshot of the spec.
// The snapshot is taken before resolveMu to keep lock ordering consistent with
// Register, which holds the registry mutex while clearing the cache. stale is
// true when the spec was replaced between the snapshot and the lock, in which
// case the caller must retry against the new spec.
func (r *Registry) resolveOnce(ctx context.Context, name string) (agent core.Agent, stale bool, err error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	var gen uint64
	var spec Spec
	var factory Factory
	var factoryOK bool
	var deps Deps
	if ok {
		gen = e.gen.Load()
		spec = e.spec
		factory, factoryOK = r.factories[spec.Factory]
		deps = Deps{
			Model:      r.model,
			Logger:     r.logger,
			MCPServers: r.mcpServers,
			Spec:       spec,
		}
	}
	r.mu.RUnlock()
	if !ok {
		return nil, false, &core.UnknownAgentError{Name: name}
	}

	e.resolveMu.Lock()
	defer e.resolveMu.Unlock()

	if e.gen.Load() != gen {
		return nil, true, nil
	}

	if e.agent != nil {
		return e.agent, false, nil
	}

	if !factoryOK {
		return nil, false, &core.ResolutionError{
			Agent: name,
			Err:   fmt.Errorf("factory %q not registered", spec.Factory),
		}
	}

	agent, err = factory(ctx, deps)
	if err != nil {
		return nil, false, &core.ResolutionError{Agent: name, Err: err}
	}
	if agent == nil {
		return nil, false, &core.ResolutionError{
			Agent: name,
			Err:   fmt.Errorf("factory %q returned no agent", spec.Factory),
		}
	}

	e.agent = agent
	r.logger.Info("agent resolved", "agent", name, "factory", spec.Factory)
	return agent, false, nil
}

// ActiveAgents resolves every enabled spec and returns the instances in
// registration order. Factories run concurrently since they are independent
// and may block on I/O. A spec that fails to resolve is skipped and its
// ResolutionError reported in the warnings slice; the remaining agents are
// still returned so one broken agent does not take down the conversation.
func (r *Registry) ActiveAgents(ctx context.Context) ([]core.Agent, []error) {
	r.mu.RLock()
	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.entries[name].enabled {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	agents := make([]core.Agent, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			agents[i], errs[i] = r.Resolve(ctx, name)
		}(i, name)
	}
	wg.Wait()

	active := make([]core.Agent, 0, len(names))
	var warnings []error
	for i := range names {
		if errs[i] != nil {
			r.logger.Warn("agent resolution failed", "agent", names[i], "error", errs[i])
			warnings = append(warnings, errs[i])
			continue
		}
		active = append(active, agents[i])
	}
	return active, warnings
}
