package ecs

import "github.com/milk9111/busline/ecs/component"

func CreateEntity(w *World) Entity {
	return w.entities.create()
}

// DestroyEntity drops every component of e and invalidates the handle.
func DestroyEntity(w *World, e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e.id())
	}
	return w.entities.destroy(e)
}

func IsAlive(w *World, e Entity) bool {
	return w.entities.isAlive(e)
}

// Entities returns every live entity in slot order.
func Entities(w *World) []Entity {
	return w.entities.all()
}

func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if value == nil {
		return component.ErrNilComponent
	}
	return w.addComponent(e, kind.ID(), value)
}

func Get[T any](w *World, e Entity, kind component.ComponentKind[T]) (*T, bool) {
	value, ok := w.getComponent(e, kind.ID())
	if !ok {
		return nil, false
	}
	cast, ok := value.(*T)
	return cast, ok
}

func Has[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	_, ok := w.getComponent(e, kind.ID())
	return ok
}

func Remove[T any](w *World, e Entity, kind component.ComponentKind[T]) bool {
	return w.removeComponent(e, kind.ID())
}

// First returns the first live entity carrying kind.
func First[T any](w *World, kind component.ComponentKind[T]) (Entity, *T, bool) {
	s := w.store(kind.ID(), false)
	for _, id := range s.ids() {
		e, ok := w.entities.current(id)
		if !ok {
			continue
		}
		if v, ok := s.Get(id).(*T); ok {
			return e, v, true
		}
	}
	return 0, nil, false
}

// ForEach visits every live entity carrying kind. Components may be added or
// removed from inside fn; entities destroyed mid-iteration are skipped.
func ForEach[A any](w *World, ka component.ComponentKind[A], fn func(Entity, *A)) {
	sa := w.store(ka.ID(), false)
	for _, id := range sa.ids() {
		e, ok := w.entities.current(id)
		if !ok {
			continue
		}
		a, ok := sa.Get(id).(*A)
		if !ok {
			continue
		}
		fn(e, a)
	}
}

func ForEach2[A, B any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], fn func(Entity, *A, *B)) {
	sa, sb := w.store(ka.ID(), false), w.store(kb.ID(), false)
	if sa == nil || sb == nil {
		return
	}
	for _, id := range sa.ids() {
		e, ok := w.entities.current(id)
		if !ok {
			continue
		}
		a, okA := sa.Get(id).(*A)
		b, okB := sb.Get(id).(*B)
		if okA && okB {
			fn(e, a, b)
		}
	}
}

func ForEach3[A, B, C any](w *World, ka component.ComponentKind[A], kb component.ComponentKind[B], kc component.ComponentKind[C], fn func(Entity, *A, *B, *C)) {
	sa, sb, sc := w.store(ka.ID(), false), w.store(kb.ID(), false), w.store(kc.ID(), false)
	if sa == nil || sb == nil || sc == nil {
		return
	}
	for _, id := range sa.ids() {
		e, ok := w.entities.current(id)
		if !ok {
			continue
		}
		a, okA := sa.Get(id).(*A)
		b, okB := sb.Get(id).(*B)
		c, okC := sc.Get(id).(*C)
		if okA && okB && okC {
			fn(e, a, b, c)
		}
	}
}
