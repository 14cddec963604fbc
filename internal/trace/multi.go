package trace

import "errors"

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer returns a tracer emitting to all of tracers. Its level is the
// highest level among them.
func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	m := &MultiTracer{}
	for _, t := range tracers {
		if t == nil {
			continue
		}
		m.tracers = append(m.tracers, t)
		m.level = max(m.level, t.Level())
	}
	return m
}

// Emit passes a copy of ev to every tracer so one cannot mutate it for the others.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }
