// Package features implements FeatureCollection (spec §4.7): a typed,
// layered capability bag. Each request gets a collection that wraps the
// server's default collection, the way the teacher's logging.Logger
// layers fields via WithField/WithContext onto a base logger instead of
// mutating it in place.
// file: features/features.go
package features

import (
	"fmt"
	"reflect"
	"sync"
)

// Tag identifies a capability by its concrete type. Callers typically use
// reflect.TypeOf((*T)(nil)).Elem() for an interface capability T, or
// reflect.TypeOf(T{}) for a concrete one.
type Tag = reflect.Type

// Collection is a typed, layered capability bag. Get on a collection
// checks its own entries first, then falls through to Base, mirroring
// spec §4.7's "own map hit else base.Get(tag) else nil".
type Collection struct {
	mu    sync.RWMutex
	own   map[Tag]any
	Base  *Collection
}

// New creates an empty collection with no base.
func New() *Collection {
	return &Collection{own: make(map[Tag]any)}
}

// NewScoped creates a collection layered on top of base. This is what the
// server does for each RequestContext: a fresh, disposable collection
// wrapping the host's shared defaults.
func NewScoped(base *Collection) *Collection {
	return &Collection{own: make(map[Tag]any), Base: base}
}

// Get returns the instance stored under tag, checking own entries before
// falling through to Base. It returns nil if no layer has an instance for
// tag. Clearing tag in a nearer layer via Set(tag, nil) does not hide an
// instance a farther layer still holds.
func (c *Collection) Get(tag Tag) any {
	c.mu.RLock()
	v, ok := c.own[tag]
	base := c.Base
	c.mu.RUnlock()

	if ok {
		return v
	}
	if base != nil {
		return base.Get(tag)
	}
	return nil
}

// Set stores instance under tag. Passing a nil instance removes tag from
// this collection's own map, reverting Get to whatever Base provides (or
// nil if there is no base or no layer of the base holds tag).
func (c *Collection) Set(tag Tag, instance any) error {
	if instance != nil {
		it := reflect.TypeOf(instance)
		if tag.Kind() == reflect.Interface {
			if !it.Implements(tag) {
				return fmt.Errorf("features: %s does not implement %s", it, tag)
			}
		} else if it != tag {
			return fmt.Errorf("features: %s is not assignable to %s", it, tag)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if instance == nil {
		delete(c.own, tag)
		return nil
	}
	c.own[tag] = instance
	return nil
}

// TagFor is a convenience for building a Tag from an interface pointer,
// e.g. TagFor[Logger]().
func TagFor[T any]() Tag {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get is a type-safe wrapper over Collection.Get for capability T.
func Get[T any](c *Collection) (T, bool) {
	var zero T
	v := c.Get(TagFor[T]())
	if v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// SetValue is a type-safe wrapper over Collection.Set for capability T.
func SetValue[T any](c *Collection, instance T) error {
	return c.Set(TagFor[T](), instance)
}
