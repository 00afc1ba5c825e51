// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/thread_test.go
// Summary: Background worker tests: writeback round trips, tick pacing and
//          the terminate/join contract.

package glint

import (
	"testing"
	"time"
)

// waitForMsg polls a thread's outbox the way the frame loop does.
func waitForMsg(t *testing.T, thread *Thread) ThreadReceiveMsg {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msg, ok := thread.ReceiveMsg(); ok {
			return msg
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no message from the worker")
	return ThreadReceiveMsg{}
}

func TestThreadWriteBackRoundTrip(t *testing.T) {
	writeback := NewRefAny("window-data")
	thread := CreateThread(NewRefAny(21), writeback, func(data *RefAny, sender *ThreadSender, receiver *ThreadReceiver) {
		n := data.Value().(int)
		sender.Send(ThreadReceiveMsg{
			Kind: ThreadReceiveWriteBack,
			Data: NewRefAny(n * 2),
			Callback: func(wb, payload *RefAny, _ *CallbackInfo) Update {
				if wb.Value().(string) != "window-data" {
					t.Error("writeback data not threaded through")
				}
				if payload.Value().(int) != 42 {
					t.Errorf("payload = %v, want 42", payload.Value())
				}
				return RefreshDom
			},
		})
		receiver.Recv() // wait for terminate or drop
	})
	defer thread.Terminate()

	msg := waitForMsg(t, thread)
	if msg.Kind != ThreadReceiveWriteBack || msg.Callback == nil {
		t.Fatalf("msg = %+v", msg)
	}

	runner := &CallbackRunner{}
	res := runner.NewResult()
	info := runner.Info(res, RootDomId, NodeIdNone, nil)
	if update := msg.Callback(thread.WritebackData, msg.Data, info); update != RefreshDom {
		t.Errorf("writeback update = %v", update)
	}
}

func TestThreadUpdateMessage(t *testing.T) {
	thread := CreateThread(nil, nil, func(_ *RefAny, sender *ThreadSender, receiver *ThreadReceiver) {
		sender.Send(ThreadReceiveMsg{Kind: ThreadReceiveUpdate, Update: RefreshDomAllWindows})
		receiver.Recv()
	})
	defer thread.Terminate()

	msg := waitForMsg(t, thread)
	if msg.Kind != ThreadReceiveUpdate || msg.Update != RefreshDomAllWindows {
		t.Errorf("msg = %+v", msg)
	}
}

func TestThreadTickReachesWorker(t *testing.T) {
	got := make(chan ThreadSendMsgKind, 1)
	thread := CreateThread(nil, nil, func(_ *RefAny, _ *ThreadSender, receiver *ThreadReceiver) {
		for {
			msg, ok := receiver.Recv()
			if !ok || msg.Kind == ThreadSendTerminate {
				return
			}
			select {
			case got <- msg.Kind:
			default:
			}
		}
	})
	defer thread.Terminate()

	if !thread.SendMsg(ThreadSendMsg{Kind: ThreadSendTick}) {
		t.Fatal("tick not sent")
	}
	select {
	case kind := <-got:
		if kind != ThreadSendTick {
			t.Errorf("worker got %v, want tick", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never saw the tick")
	}
}

func TestThreadTerminateJoins(t *testing.T) {
	started := make(chan struct{})
	thread := CreateThread(nil, nil, func(_ *RefAny, _ *ThreadSender, receiver *ThreadReceiver) {
		close(started)
		for {
			if _, ok := receiver.Recv(); !ok {
				return
			}
		}
	})
	<-started

	thread.Terminate()
	if !thread.IsFinished() {
		t.Error("Terminate returned before the worker did")
	}
}

func TestThreadTerminateWithQueuedMessages(t *testing.T) {
	thread := CreateThread(nil, nil, func(_ *RefAny, sender *ThreadSender, receiver *ThreadReceiver) {
		sender.Send(ThreadReceiveMsg{Kind: ThreadReceiveUpdate, Update: RefreshDom})
		receiver.Recv()
	})
	// terminate without ever polling: the join must not deadlock on the
	// unconsumed outbox
	thread.Terminate()
	if !thread.IsFinished() {
		t.Fatal("worker still running after Terminate")
	}
}

func TestThreadIsFinishedAfterWorkerReturns(t *testing.T) {
	thread := CreateThread(nil, nil, func(_ *RefAny, _ *ThreadSender, _ *ThreadReceiver) {})
	deadline := time.Now().Add(2 * time.Second)
	for !thread.IsFinished() {
		if time.Now().After(deadline) {
			t.Fatal("worker never finished")
		}
		time.Sleep(time.Millisecond)
	}
	thread.Terminate() // joining a finished worker is a no-op
}
