package maintenance

import "context"

// Job is one catalog maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry tracks registered jobs.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		registry.Register(job)
	}
	return registry
}

// Register adds a job to the registry.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Select narrows the registry to the named jobs, keeping registration order.
// Unknown names are returned separately.
func (r *Registry) Select(names ...string) (*Registry, []string) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = false
	}
	out := NewRegistry()
	for _, job := range r.jobs {
		if _, ok := wanted[job.Name()]; ok {
			wanted[job.Name()] = true
			out.Register(job)
		}
	}
	var unknown []string
	for _, n := range names {
		if !wanted[n] {
			unknown = append(unknown, n)
		}
	}
	return out, unknown
}
