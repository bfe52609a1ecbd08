package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// HandlersRegistry maps task types to their processors for cmd/worker.
type HandlersRegistry struct {
	mux   *asynq.ServeMux
	types []string
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) RegisterFunc(taskType string, fn func(context.Context, *asynq.Task) error) {
	r.mux.HandleFunc(taskType, fn)
	r.types = append(r.types, taskType)
}

// Types lists registered task types in registration order.
func (r *HandlersRegistry) Types() []string {
	return r.types
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
