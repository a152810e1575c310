// Package msg defines the message envelopes carried across the engine's
// send surface (commands, data, and media frames) and the result-handler
// shape used to deliver their outcome asynchronously.
//
// Payloads are carried as [anypb.Any] so that callers can pack any protobuf
// message type without this package needing to know its shape.
package msg

import (
	"google.golang.org/protobuf/types/known/anypb"
)

// Kind identifies which of the four send surfaces produced a message.
type Kind int

const (
	KindCmd Kind = iota
	KindData
	KindVideoFrame
	KindAudioFrame
)

// String returns a human-readable name for the kind, used in log fields.
func (k Kind) String() string {
	switch k {
	case KindCmd:
		return "cmd"
	case KindData:
		return "data"
	case KindVideoFrame:
		return "video_frame"
	case KindAudioFrame:
		return "audio_frame"
	default:
		return "unknown"
	}
}

// Message is a single envelope routed through an engine. Name is meaningful
// for KindCmd (the command name); it is typically empty for the media kinds.
type Message struct {
	Kind    Kind
	Name    string
	Payload *anypb.Any
}

// Result is delivered to a [ResultHandler] once a send completes, fails, or
// (for commands) produces one of several results when multiple results are
// enabled.
type Result struct {
	Message *Message
	Final   bool
}

// ResultHandler receives the outcome of a send. env is opaque context the
// caller supplied (typically the engine), userData is whatever the caller
// passed to the send call, and err is non-nil on failure. It is always
// invoked on the engine's runloop goroutine.
type ResultHandler func(env any, result *Result, userData any, err error)

// CmdOptions configures an engine SendCmd call.
type CmdOptions struct {
	// EnableMultipleResults allows the handler to be invoked more than once
	// for a single command, with Result.Final indicating the last call.
	EnableMultipleResults bool
}
