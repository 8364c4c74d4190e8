package objects

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Realm is a named set of live object collections. It is the descriptor
// the objects driver exposes as one database.
type Realm struct {
	label string

	mu          sync.RWMutex
	order       []string
	collections map[string]*collection
	embedded    map[string]*Schema
}

type collection struct {
	schema   *Schema
	snapshot func() []reflect.Value
}

// NewRealm creates an empty realm.
func NewRealm(name string) *Realm {
	return &Realm{
		label:       name,
		collections: make(map[string]*collection),
		embedded:    make(map[string]*Schema),
	}
}

// Name returns the realm name.
func (r *Realm) Name() string { return r.label }

// Register exposes a collection of T under name. snapshot is called on every
// read and must return the objects currently alive.
func Register[T any](r *Realm, name string, snapshot func() []T) error {
	var found []*Schema
	schema, err := deriveSchema(name, reflect.TypeFor[T](), func(s *Schema) {
		found = append(found, s)
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[name]; ok {
		return fmt.Errorf("objects: collection %s already registered", name)
	}
	for _, s := range found {
		r.embedded[s.Name] = s
	}
	r.order = append(r.order, name)
	r.collections[name] = &collection{
		schema: schema,
		snapshot: func() []reflect.Value {
			objs := snapshot()
			out := make([]reflect.Value, 0, len(objs))
			for _, o := range objs {
				v := reflect.ValueOf(o)
				for v.Kind() == reflect.Ptr {
					if v.IsNil() {
						break
					}
					v = v.Elem()
				}
				if v.Kind() == reflect.Struct {
					out = append(out, v)
				}
			}
			return out
		},
	}
	return nil
}

// Schemas returns every schema known to the realm, embedded ones included,
// in registration order.
func (r *Realm) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Schema, 0, len(r.order)+len(r.embedded))
	for _, name := range r.order {
		out = append(out, r.collections[name].schema)
	}
	names := make([]string, 0, len(r.embedded))
	for name := range r.embedded {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		out = append(out, r.embedded[name])
	}
	return out
}

func (r *Realm) lookup(name string) (*collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	return c, ok
}
