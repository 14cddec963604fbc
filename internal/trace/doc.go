// Package trace records spans around indexing work.
//
// Tracing is enabled from the command line:
//
//	jaivals index --trace=- --trace-level=phase ./src
//
// A Tracer is carried in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "index:"+path, 0)
//	defer span.End("")
//
// Levels select how fine grained the emitted scopes are:
//
//   - LevelPhase: driver and pass boundaries (discover, parse, build)
//   - LevelDetail: per-file work
//   - LevelDebug: everything, including per-node events
//
// Stream output is written through zerolog, as console text or as
// newline-delimited JSON.
package trace
