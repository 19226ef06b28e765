package masker

import "refmasker/internal/errs"

// Registry records the reference names seen during one run. It is not
// safe for concurrent use; names are registered before any work starts.
type Registry struct {
	names map[string]struct{}
	order []string
}

// NewRegistry returns an empty run-scoped registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register claims name, failing with a configuration error when it was
// already claimed in this run.
func (r *Registry) Register(name string) error {
	if _, dup := r.names[name]; dup {
		return errs.Duplicate("reference", name)
	}
	r.names[name] = struct{}{}
	r.order = append(r.order, name)
	return nil
}

// Names lists the registered names in registration order.
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }
