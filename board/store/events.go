// ABOUTME: Emitter is the sink the repository notifies after every successful mutation.
// ABOUTME: Emitters fans one event out to several sinks, e.g. the webhook dispatcher and the journal.
package store

import "github.com/2389-research/kanbanfs/board/core"

// Emitter receives mutation events. Emit must not block on slow consumers.
type Emitter interface {
	Emit(core.Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(core.Event)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev core.Event) { f(ev) }

type multiEmitter []Emitter

func (m multiEmitter) Emit(ev core.Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}

// Emitters combines several emitters into one. Nil entries are skipped.
func Emitters(emitters ...Emitter) Emitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(core.Event) {})
