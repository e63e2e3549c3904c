package eventing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Registry maps event type names to their Go types so outbox payloads
// can be decoded back into the value types consumers switch on.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

// Register records one or more event samples (value or pointer).
func (r *Registry) Register(samples ...any) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sample := range samples {
		if sample == nil {
			continue
		}
		t := reflect.TypeOf(sample)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		r.types[t.String()] = t
	}
}

// Known reports whether the event type name has been registered.
func (r *Registry) Known(eventType string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	_, ok := r.types[eventType]
	r.mu.RUnlock()
	return ok
}

// DecodePayload decodes an envelope payload into the registered value type.
func (r *Registry) DecodePayload(env Envelope) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("eventing: nil registry")
	}
	r.mu.RLock()
	t := r.types[env.EventType]
	r.mu.RUnlock()
	if t == nil {
		return nil, fmt.Errorf("eventing: unregistered event type %q", env.EventType)
	}
	target := reflect.New(t)
	if err := json.Unmarshal(env.Payload, target.Interface()); err != nil {
		return nil, fmt.Errorf("eventing: decode %q: %w", env.EventType, err)
	}
	return target.Elem().Interface(), nil
}
