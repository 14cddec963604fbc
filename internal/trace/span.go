package trace

import (
	"time"
)

// Span tracks one logical operation between Begin and End.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	scope    Scope
	name     string
	started  time.Time
	extra    map[string]string
}

// Begin starts a span and emits its begin event. parent is 0 for roots.
// A disabled tracer or filtered scope yields an inert span that still reports errors.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil {
		t = Nop
	}
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: t, parentID: parent, scope: scope, name: name}
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		scope:    scope,
		name:     name,
		started:  time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.id == 0 {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  dur,
		Extra:    s.extra,
	})
	return dur
}

// WithExtra attaches a key to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// Point emits an instant event inside the span.
func (s *Span) Point(name, detail string) {
	if s == nil || s.id == 0 {
		return
	}
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    s.scope,
		ParentID: s.id,
		Name:     name,
		Detail:   detail,
	})
}

// Error emits an error event. Errors pass every level except LevelOff.
func (s *Span) Error(name string, err error) {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() || err == nil {
		return
	}
	parent := s.id
	if parent == 0 {
		parent = s.parentID
	}
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindError,
		Scope:    s.scope,
		ParentID: parent,
		Name:     name,
		Detail:   err.Error(),
	})
}

// ID returns the span ID, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
