// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/thread.go
// Summary: Background workers marshalled onto the frame thread: a goroutine
//          per thread, a command channel toward the worker and a message
//          channel back, polled once per frame.
// Usage: Callbacks start threads through CallbackInfo; the window polls and
//        reaps them at the timer phase and joins them on teardown.

package glint

import "sync/atomic"

// ThreadId identifies one background thread within a window.
type ThreadId uint64

var threadIdCounter atomic.Uint64

// NewThreadId allocates a process-unique thread id.
func NewThreadId() ThreadId { return ThreadId(threadIdCounter.Add(1)) }

// ThreadSendMsgKind tags main→worker commands.
type ThreadSendMsgKind uint8

const (
	// ThreadSendTerminate asks the worker to return.
	ThreadSendTerminate ThreadSendMsgKind = iota
	// ThreadSendTick is sent once per frame poll so workers can pace
	// themselves against the frame loop.
	ThreadSendTick
	// ThreadSendCustom carries user data.
	ThreadSendCustom
)

// ThreadSendMsg is one main→worker command.
type ThreadSendMsg struct {
	Kind   ThreadSendMsgKind
	Custom *RefAny
}

// WriteBackCallback runs on the frame thread with the thread's writeback
// data and the payload the worker sent.
type WriteBackCallback func(writebackData, data *RefAny, info *CallbackInfo) Update

// ThreadReceiveMsgKind tags worker→main messages.
type ThreadReceiveMsgKind uint8

const (
	// ThreadReceiveWriteBack carries data plus a callback to run on the
	// frame thread.
	ThreadReceiveWriteBack ThreadReceiveMsgKind = iota
	// ThreadReceiveUpdate merges an Update into the frame lattice directly.
	ThreadReceiveUpdate
)

// ThreadReceiveMsg is one worker→main message.
type ThreadReceiveMsg struct {
	Kind     ThreadReceiveMsgKind
	Data     *RefAny
	Callback WriteBackCallback
	Update   Update
}

// ThreadSender is the worker's handle for sending messages to the frame
// thread. Sends never block: when the window is gone the message is dropped.
type ThreadSender struct {
	ch   chan ThreadReceiveMsg
	dead chan struct{}
}

// Send queues a message for the next frame poll. Returns false when the
// thread was dropped and nobody will receive it.
func (s *ThreadSender) Send(msg ThreadReceiveMsg) bool {
	select {
	case <-s.dead:
		return false
	case s.ch <- msg:
		return true
	}
}

// ThreadReceiver is the worker's handle for commands from the frame thread.
type ThreadReceiver struct {
	ch   chan ThreadSendMsg
	dead chan struct{}
}

// Recv blocks until a command arrives. ok is false when the thread handle
// was dropped; the worker should return.
func (r *ThreadReceiver) Recv() (ThreadSendMsg, bool) {
	select {
	case msg := <-r.ch:
		return msg, true
	case <-r.dead:
		return ThreadSendMsg{}, false
	}
}

// TryRecv polls for a command without blocking.
func (r *ThreadReceiver) TryRecv() (ThreadSendMsg, bool) {
	select {
	case msg := <-r.ch:
		return msg, true
	default:
		return ThreadSendMsg{}, false
	}
}

// ThreadCallback is the worker body. It runs on its own goroutine and must
// return when it receives Terminate or Recv reports the handle dropped.
type ThreadCallback func(data *RefAny, sender *ThreadSender, receiver *ThreadReceiver)

// Thread is the frame-thread handle of one background worker.
type Thread struct {
	Id ThreadId

	// WritebackData is handed to WriteBack callbacks as their first arg.
	WritebackData *RefAny

	toWorker   chan ThreadSendMsg
	fromWorker chan ThreadReceiveMsg
	done       chan struct{} // closed when the worker returned
	dead       chan struct{} // closed when the handle is dropped
}

// CreateThreadCallback is the factory signature for starting workers, kept
// swappable so tests can run workers inline.
type CreateThreadCallback func(data, writebackData *RefAny, body ThreadCallback) *Thread

// CreateThread starts a goroutine worker and returns its handle.
func CreateThread(data, writebackData *RefAny, body ThreadCallback) *Thread {
	t := &Thread{
		Id:            NewThreadId(),
		WritebackData: writebackData,
		toWorker:      make(chan ThreadSendMsg, 32),
		fromWorker:    make(chan ThreadReceiveMsg, 32),
		done:          make(chan struct{}),
		dead:          make(chan struct{}),
	}
	sender := &ThreadSender{ch: t.fromWorker, dead: t.dead}
	receiver := &ThreadReceiver{ch: t.toWorker, dead: t.dead}
	go func() {
		defer close(t.done)
		body(data, sender, receiver)
	}()
	return t
}

// SendMsg queues a command for the worker without blocking the frame
// thread. Returns false when the worker already finished or its inbox is
// full (treated as a send failure for this poll).
func (t *Thread) SendMsg(msg ThreadSendMsg) bool {
	select {
	case <-t.done:
		return false
	case t.toWorker <- msg:
		return true
	default:
		return false
	}
}

// ReceiveMsg polls the worker's outbox without blocking.
func (t *Thread) ReceiveMsg() (ThreadReceiveMsg, bool) {
	select {
	case msg := <-t.fromWorker:
		return msg, true
	default:
		return ThreadReceiveMsg{}, false
	}
}

// IsFinished reports whether the worker goroutine returned.
func (t *Thread) IsFinished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Terminate signals the worker and joins it. Pending messages are dropped.
// A slow worker delays teardown here on purpose: the window must not
// outlive goroutines holding its data.
func (t *Thread) Terminate() {
	select {
	case t.toWorker <- ThreadSendMsg{Kind: ThreadSendTerminate}:
	default:
	}
	close(t.dead)
	<-t.done
}
