package trace

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// StreamTracer writes each event as a zerolog entry as soon as it is emitted.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	log    zerolog.Logger
	level  Level
	format Format
}

// NewStreamTracer returns a tracer writing to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	out := w
	if format == FormatText {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05.000"}
	}
	return &StreamTracer{
		w:      w,
		log:    zerolog.New(out).With().Timestamp().Logger(),
		level:  level,
		format: format,
	}
}

// Emit writes ev when its scope passes the level. Write errors are ignored.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.admits(ev) {
		return
	}
	ev.Seq = NextSeq()

	t.mu.Lock()
	defer t.mu.Unlock()

	var e *zerolog.Event
	if ev.Kind == KindError {
		e = t.log.Error()
	} else {
		e = t.log.Info()
	}
	e = e.Uint64("seq", ev.Seq).
		Str("kind", ev.Kind.String()).
		Str("scope", ev.Scope.String()).
		Uint64("span", ev.SpanID)
	if ev.ParentID != 0 {
		e = e.Uint64("parent", ev.ParentID)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	if ev.Kind == KindSpanEnd {
		e = e.Dur("elapsed", ev.Elapsed)
	}
	for k, v := range ev.Extra {
		e = e.Str(k, v)
	}
	e.Msg(ev.Name)
}

// Flush flushes w when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes w when it is a closer other than a standard stream.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if isStdStream(t.w) {
		return nil
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
