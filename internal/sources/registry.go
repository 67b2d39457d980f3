package sources

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps a state code to its pipelines in registration order.
// Registration is startup state: populate it before any read and do not
// mutate it concurrently with readers.
type Registry struct {
	order     []string
	pipelines map[string][]*Pipeline
	once      sync.Once
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string][]*Pipeline)}
}

// Default is the process-wide registry filled by DiscoverAndLoad.
var Default = NewRegistry()

// builtin is the static list of source registration functions.
var builtin = []func(*Registry){
	registerArizona,
	registerMichigan,
	registerMinnesota,
	registerPennsylvania,
	registerTexas,
	registerHarvard,
}

func stateKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Declare makes state known without registering a pipeline for it.
func (r *Registry) Declare(state string) {
	k := stateKey(state)
	if _, ok := r.pipelines[k]; ok {
		return
	}
	r.pipelines[k] = nil
	r.order = append(r.order, k)
}

// Register appends p to the pipelines of state.
func (r *Registry) Register(state string, p *Pipeline) {
	r.Declare(state)
	k := stateKey(state)
	r.pipelines[k] = append(r.pipelines[k], p)
}

// Lookup returns the pipelines of state and whether state is known.
func (r *Registry) Lookup(state string) ([]*Pipeline, bool) {
	ps, ok := r.pipelines[stateKey(state)]
	return ps, ok
}

// Registered returns a copy of the state to pipelines mapping.
func (r *Registry) Registered() map[string][]*Pipeline {
	out := make(map[string][]*Pipeline, len(r.pipelines))
	for k, ps := range r.pipelines {
		out[k] = append([]*Pipeline(nil), ps...)
	}
	return out
}

// States returns the known states in registration order.
func (r *Registry) States() []string {
	return append([]string(nil), r.order...)
}

// Names returns every registered pipeline name, sorted.
func (r *Registry) Names() []string {
	var out []string
	for _, k := range r.order {
		for _, p := range r.pipelines[k] {
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out
}

// DiscoverAndLoad registers the built-in sources once; later calls do
// nothing.
func (r *Registry) DiscoverAndLoad() {
	r.once.Do(func() {
		for _, register := range builtin {
			register(r)
		}
	})
}

// DiscoverAndLoad fills the Default registry.
func DiscoverAndLoad() *Registry {
	Default.DiscoverAndLoad()
	return Default
}
