// Package events is the publish/subscribe registry of the maker lifecycle.
package events

import "strings"

// Event names one step of the maker lifecycle
type Event string

const (
	CloseStart       Event = "close-start"
	CloseEnd         Event = "close-end"
	RemoteOpenStart  Event = "remote-open-start"
	RemoteOpenEnd    Event = "remote-open-end"
	DeleteScripts    Event = "delete-scripts"
	RunStart         Event = "run-start"
	RunEnd           Event = "run-end"
	ExtractStart     Event = "extract-start"
	ExtractProgress  Event = "extract-progress"
	ExtractEnd       Event = "extract-end"
	GenerateStart    Event = "generate-start"
	GenerateEnd      Event = "generate-end"
	WaitStart        Event = "wait-start"
	WaitProgress     Event = "wait-progress"
	WaitEnd          Event = "wait-end"
	DownloadStart    Event = "download-start"
	DownloadProgress Event = "download-progress"
	DownloadEnd      Event = "download-end"
	AdditionStart    Event = "addition-start"
	AdditionProgress Event = "addition-progress"
	AdditionEnd      Event = "addition-end"
)

var catalogue = []Event{
	CloseStart, CloseEnd,
	RemoteOpenStart, RemoteOpenEnd,
	DeleteScripts,
	RunStart, RunEnd,
	ExtractStart, ExtractProgress, ExtractEnd,
	GenerateStart, GenerateEnd,
	WaitStart, WaitProgress, WaitEnd,
	DownloadStart, DownloadProgress, DownloadEnd,
	AdditionStart, AdditionProgress, AdditionEnd,
}

var validEvents = func() map[Event]struct{} {
	m := make(map[Event]struct{}, len(catalogue))
	for _, e := range catalogue {
		m[e] = struct{}{}
	}
	return m
}()

// Catalogue returns every event, grouped by lifecycle step.
func Catalogue() []Event {
	out := make([]Event, len(catalogue))
	copy(out, catalogue)
	return out
}

// Valid reports whether e belongs to the catalogue.
func (e Event) Valid() bool {
	_, ok := validEvents[e]
	return ok
}

// Parse validates an event name.
func Parse(name string) (Event, error) {
	e := Event(strings.TrimSpace(name))
	if !e.Valid() {
		return "", &UnknownEventError{Name: name}
	}
	return e, nil
}
