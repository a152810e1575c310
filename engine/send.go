package engine

import (
	"github.com/tenruntime/ten-go/msg"
)

// SendCmd submits a command message to destKey, delivering its result (or
// error) to handler on the runloop goroutine. It fails fast with ErrClosing
// once the engine has begun closing (no new work is admitted past that
// point), and with ErrSendRateLimited if the configured send limiter
// rejects destKey.
//
// Actually dispatching the command to a remote's transport is out of scope
// here; this models only the admission contract the close protocol and
// rate limiter impose on the send surface.
func (e *Engine) SendCmd(destKey string, m *msg.Message, opts msg.CmdOptions, handler msg.ResultHandler, userData any) error {
	return e.send(destKey, m, handler, userData)
}

// SendData submits a data message. See SendCmd for the admission contract.
func (e *Engine) SendData(destKey string, m *msg.Message, handler msg.ResultHandler, userData any) error {
	return e.send(destKey, m, handler, userData)
}

// SendVideoFrame submits a video frame message. See SendCmd for the
// admission contract.
func (e *Engine) SendVideoFrame(destKey string, m *msg.Message, handler msg.ResultHandler, userData any) error {
	return e.send(destKey, m, handler, userData)
}

// SendAudioFrame submits an audio frame message. See SendCmd for the
// admission contract.
func (e *Engine) SendAudioFrame(destKey string, m *msg.Message, handler msg.ResultHandler, userData any) error {
	return e.send(destKey, m, handler, userData)
}

func (e *Engine) send(destKey string, m *msg.Message, handler msg.ResultHandler, userData any) error {
	if e.isClosing.Load() {
		return ErrClosing
	}

	if e.sendLimiter != nil {
		if _, ok := e.sendLimiter.Allow(destKey); !ok {
			return ErrSendRateLimited
		}
	}

	if err := e.loop.PostTail(func() {
		e.dispatch(destKey, m, handler, userData)
	}); err != nil {
		return ErrClosing
	}
	return nil
}

// dispatch runs on the runloop. Routing m to destKey's remote and producing
// a real Result is the transport layer's job, out of scope here; this
// reports delivery admission only, matching the rest of this package's
// treatment of remotes as opaque close-contract holders.
func (e *Engine) dispatch(destKey string, m *msg.Message, handler msg.ResultHandler, userData any) {
	e.checkIntegrity(true)

	if handler == nil {
		return
	}

	if _, ok := e.reg.remotes[destKey]; !ok {
		handler(e, nil, userData, ErrUnknownRemote(destKey))
		return
	}

	handler(e, &msg.Result{Message: m, Final: true}, userData, nil)
}
