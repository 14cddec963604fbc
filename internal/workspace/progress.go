package workspace

import "time"

// Stage is a phase of project indexing.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageParse    Stage = "parse"
	StageIndex    Stage = "index"
)

// Status is the state of a file within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Records int
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(ev Event) { f(ev) }

func emit(s ProgressSink, ev Event) {
	if s != nil {
		s.OnEvent(ev)
	}
}
