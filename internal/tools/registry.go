package tools

import (
	"github.com/example/natural-agent/internal/models"
)

// Registry maps tool categories to implementations.
type Registry struct {
	tools map[models.ToolCategory]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[models.ToolCategory]Tool{}}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Category()] = t
}

func (r *Registry) Get(c models.ToolCategory) (Tool, bool) {
	t, ok := r.tools[c]
	return t, ok
}
