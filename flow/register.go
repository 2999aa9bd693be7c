package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxTake is the largest take percentage a module can register with.
const MaxTake = 100

// NameRegistrar registers modules by name.
type NameRegistrar interface {
	RegisterName(ctx context.Context, name string, take int) (json.RawMessage, error)
}

// Register registers a module by name and take.
type Register struct {
	guard
	backend NameRegistrar
}

// NewRegister returns a registration flow.
func NewRegister(backend NameRegistrar) *Register {
	return &Register{backend: backend}
}

// Run calls reg{name, take}. An empty name issues no call.
func (r *Register) Run(ctx context.Context, name string, take int) (json.RawMessage, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("module name is required: %w", ErrEmptyInput)
	}
	if take < 0 || take > MaxTake {
		return nil, fmt.Errorf("take must be between 0 and %d", MaxTake)
	}
	resp, err := r.backend.RegisterName(ctx, name, take)
	if err != nil {
		return nil, fmt.Errorf("failed to register module: %w", err)
	}
	return resp, nil
}
