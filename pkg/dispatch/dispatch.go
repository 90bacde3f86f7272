// Package dispatch ties the session layer to the completion detector. A
// dispatch resolves (or creates) a session, delivers a message to the
// agent inside it, and optionally blocks until the agent finishes
// responding.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"relay/pkg/detect"
	"relay/pkg/eventlog"
	"relay/pkg/session"
)

// startupDelay gives a freshly launched agent time to finish its own
// startup before the first message is typed at it.
const startupDelay = 1 * time.Second

// Waiter is the detector surface dispatch needs.
type Waiter interface {
	Wait(ctx context.Context, session string, timeout time.Duration) detect.Result
}

// Request describes one dispatch.
type Request struct {
	Session string
	WorkDir string
	Message string
	Wait    bool
	Timeout time.Duration // zero means the dispatcher's default
}

// Response is the dispatch outcome. Result is nil for fire-and-forget
// requests.
type Response struct {
	Session session.Session
	Created bool
	Result  *detect.Result
}

// Dispatcher routes messages into sessions. Events is optional; a nil log
// disables auditing without changing behavior.
type Dispatcher struct {
	Registry       *session.Registry
	Launcher       *session.Launcher
	Detector       Waiter
	Events         *eventlog.Log
	DefaultTimeout time.Duration

	// Sleep is swappable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Dispatch resolves the target session, creating and launching it if
// needed, sends the message, and waits for completion when asked. A
// failed agent launch tears the fresh session down again, so a dispatch
// never leaves a half-created session behind.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	sess, created, err := d.Registry.ResolveOrCreate(req.Session, req.WorkDir)
	if err != nil {
		return Response{}, err
	}

	if created {
		_ = d.Events.Record(ctx, eventlog.TypeCreated, sess.Name, "")
		if err := d.Launcher.Start(sess); err != nil {
			_ = d.Registry.Kill(sess.Name)
			return Response{}, fmt.Errorf("launch failed, session removed: %w", err)
		}
		d.sleep(startupDelay)
	}

	if req.Message != "" {
		if err := d.Registry.Backend.SendKeys(sess.Name, req.Message); err != nil {
			return Response{}, fmt.Errorf("send message to %s: %w", sess.Name, err)
		}
		_ = d.Events.Record(ctx, eventlog.TypeMessageSent, sess.Name, req.Message)
	}

	if !req.Wait {
		sess.Status = session.StatusRunning
		return Response{Session: sess, Created: created}, nil
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = d.DefaultTimeout
	}

	endWait := d.Registry.BeginWait(sess.Name)
	res := d.Detector.Wait(ctx, sess.Name, timeout)
	endWait()

	d.recordOutcome(ctx, sess.Name, res)
	if res.Outcome == detect.Completed {
		sess.Status = session.StatusCompleted
	} else {
		sess.Status, _ = d.Registry.Status(sess.Name)
	}
	return Response{Session: sess, Created: created, Result: &res}, nil
}

func (d *Dispatcher) recordOutcome(ctx context.Context, name string, res detect.Result) {
	switch res.Outcome {
	case detect.Completed:
		_ = d.Events.Record(ctx, eventlog.TypeCompleted, name, string(res.Signal))
	case detect.TimedOut:
		_ = d.Events.Record(ctx, eventlog.TypeTimedOut, name, "")
	case detect.Lost:
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		}
		_ = d.Events.Record(ctx, eventlog.TypeLost, name, detail)
	}
}

func (d *Dispatcher) sleep(dur time.Duration) {
	if d.Sleep != nil {
		d.Sleep(dur)
		return
	}
	time.Sleep(dur)
}
