package watch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubecli/kubecli/internal/kubelog"
	"github.com/kubecli/kubecli/pkg/codec"
	"github.com/kubecli/kubecli/pkg/request"
)

var tracer = otel.Tracer("github.com/kubecli/kubecli/pkg/watch")

// State is a Durable Watcher's position in the state machine of
// spec.md §4.H.
type State int

const (
	Created State = iota
	Opening
	Streaming
	Reconnecting
	Errored
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Opening:
		return "Opening"
	case Streaming:
		return "Streaming"
	case Reconnecting:
		return "Reconnecting"
	case Errored:
		return "Errored"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Callbacks is the consumer's notification set. Every callback is
// invoked from the watcher's single driver goroutine (spec.md §9's
// serialized-notifier note), so consumers never need to lock against
// each other; a nil callback is simply skipped.
type Callbacks[T Object] struct {
	Opened          func()
	InitialListSent func()
	EventReceived   func(WatchEvent[T])
	Reset           func()
	Error           func(error)
	Closed          func()
}

// listEnvelope decodes just enough of a LIST response to resume a
// list-watch after a 410 Gone: the collection's resourceVersion and its
// items, regardless of the list's concrete Kind (PodList, ServiceList,
// ...) since JSON decoding only cares about field shape.
type listEnvelope[T Object] struct {
	Metadata struct {
		ResourceVersion string `json:"resourceVersion"`
	} `json:"metadata"`
	Items []T `json:"items"`
}

// Watcher is the durable, self-resuming watch (spec.md §4.H): built from
// a Request for the collection or single item being watched, it
// reconnects across disconnects and 410 Gone responses, tracking the
// resource version to resume from.
type Watcher[T Object] struct {
	base           *request.Request
	initialVersion string
	isListWatch    bool
	allowBookmarks bool
	callbacks      Callbacks[T]
	backoff        *Backoff

	mu    sync.Mutex
	state State

	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// New constructs a Watcher over base (the Request for the watched
// collection or single item; its own Watch/NoWatch state is ignored and
// overwritten) starting from initialVersion. isListWatch, if non-nil,
// overrides the default of "base has no Name set" (spec.md §4.H).
func New[T Object](base *request.Request, initialVersion string, isListWatch *bool, callbacks Callbacks[T]) *Watcher[T] {
	listWatch := base.NameOrNil() == nil
	if isListWatch != nil {
		listWatch = *isListWatch
	}
	w := &Watcher[T]{
		base:           base.Clone().NoWatch(),
		initialVersion: initialVersion,
		isListWatch:    listWatch,
		allowBookmarks: listWatch,
		callbacks:      callbacks,
		backoff:        NewBackoff(),
		state:          Created,
		done:           make(chan struct{}),
	}
	return w
}

// State reports the watcher's current position in the state machine.
func (w *Watcher[T]) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher[T]) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Done is closed once the watcher has emitted Closed and will not run
// again.
func (w *Watcher[T]) Done() <-chan struct{} { return w.done }

// Stop cancels the watcher's in-flight request and drives it to
// Stopped. Idempotent; safe to call from any goroutine, including
// before Run has returned.
func (w *Watcher[T]) Stop() {
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
	})
}

// Run drives the watcher's state machine until ctx is cancelled, Stop
// is called, or a terminal error occurs. It blocks; callers run it in
// its own goroutine. Run must be called at most once per Watcher.
func (w *Watcher[T]) Run(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "watch.Run", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	defer func() {
		w.setState(Stopped)
		w.emit(w.callbacks.Closed)
		close(w.done)
	}()

	tracked := w.initialVersion
	snapshotPending := w.isListWatch
	bootstrap := tracked

	w.setState(Opening)
	for {
		if runCtx.Err() != nil {
			return
		}

		resp, gone, err := w.openStream(runCtx, tracked)
		if err != nil {
			if runCtx.Err() != nil {
				return
			}
			w.reconnectAfterFailure(runCtx)
			continue
		}
		if gone {
			newTracked, resetErr := w.performReset(runCtx)
			if resetErr != nil {
				if runCtx.Err() != nil {
					return
				}
				w.setState(Errored)
				w.emitError(resetErr)
				return
			}
			tracked = newTracked
			snapshotPending = false
			bootstrap = tracked
			w.setState(Opening)
			continue
		}

		w.setState(Streaming)
		kubelog.V(kubelog.VLifecycle).Infof("watch opened")
		w.emit(w.callbacks.Opened)
		w.backoff.Reset()

		newTracked, needsReset, streamErr := w.consume(runCtx, resp, tracked, bootstrap, &snapshotPending)
		_ = resp.Close()
		tracked = newTracked

		if runCtx.Err() != nil {
			return
		}
		if needsReset {
			newTracked, resetErr := w.performReset(runCtx)
			if resetErr != nil {
				w.setState(Errored)
				w.emitError(resetErr)
				return
			}
			tracked = newTracked
			snapshotPending = false
			bootstrap = tracked
			w.setState(Opening)
			continue
		}
		if streamErr != nil {
			w.setState(Errored)
			w.emitError(streamErr)
			return
		}

		// Clean EOF: reconnect and resume from tracked without
		// treating it as a failure (no backoff).
		reconnects.WithLabelValues(outcomeClean).Inc()
		w.setState(Reconnecting)
		w.setState(Opening)
	}
}

func (w *Watcher[T]) reconnectAfterFailure(ctx context.Context) {
	reconnects.WithLabelValues(outcomeFailure).Inc()
	w.setState(Reconnecting)
	delay := w.backoff.Next()
	kubelog.V(kubelog.VLifecycle).Infof("watch reconnecting after failure, backing off %s", delay)
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
	w.setState(Opening)
}

func (w *Watcher[T]) openStream(ctx context.Context, tracked string) (resp *request.Response, gone bool, err error) {
	req := w.base.Clone().Watch(tracked)
	if w.allowBookmarks {
		req = req.QuerySet("allowWatchBookmarks", "true")
	}
	httpResp, err := req.Do(ctx)
	if err != nil {
		return nil, false, err
	}
	if httpResp.StatusCode() == http.StatusGone {
		_ = httpResp.Close()
		return nil, true, nil
	}
	if httpResp.IsError() {
		status, _ := httpResp.Status()
		_ = httpResp.Close()
		return nil, false, request.NewStatusError(httpResp.StatusCode(), status)
	}
	return httpResp, false, nil
}

// consume drains one streaming open until EOF, an Error frame, or a
// decode failure, returning the updated tracked version and whether the
// stream signaled a 410-equivalent Expired condition.
func (w *Watcher[T]) consume(ctx context.Context, resp *request.Response, tracked, bootstrap string, snapshotPending *bool) (newTracked string, needsReset bool, err error) {
	reader := NewReader[T](resp.BodyStream())
	newTracked = tracked
	for {
		if ctx.Err() != nil {
			return newTracked, false, nil
		}
		ev, readErr := reader.Next()
		if readErr == io.EOF {
			return newTracked, false, nil
		}
		if readErr != nil {
			return newTracked, false, readErr
		}

		switch ev.Type {
		case Error:
			if isExpired(ev.Status) {
				return newTracked, true, nil
			}
			return newTracked, false, fmt.Errorf("kubecli: watch error event: %s", statusMessage(ev.Status))
		case Bookmark:
			newTracked = ev.Object.GetResourceVersion()
			if *snapshotPending {
				*snapshotPending = false
				w.emit(w.callbacks.InitialListSent)
			}
		default:
			newTracked = ev.Object.GetResourceVersion()
			fire := *snapshotPending && newTracked != bootstrap
			w.emitEvent(*ev)
			if fire {
				*snapshotPending = false
				w.emit(w.callbacks.InitialListSent)
			}
		}
	}
}

// performReset carries out spec.md §4.H point 4: emits Reset, then
// either re-LISTs (list-watch) or re-GETs (single-item watch) to
// establish a fresh baseline, emitting synthesized Added events along
// the way.
func (w *Watcher[T]) performReset(ctx context.Context) (newTracked string, err error) {
	reconnects.WithLabelValues(outcomeReset).Inc()
	kubelog.V(kubelog.VLifecycle).Infof("watch resetting after expiry")
	w.emit(w.callbacks.Reset)

	resp, err := w.base.Clone().Do(ctx)
	if err != nil {
		return "", err
	}
	defer resp.Close()

	if w.isListWatch {
		if resp.IsError() {
			status, _ := resp.Status()
			return "", request.NewStatusError(resp.StatusCode(), status)
		}
		data, err := resp.Body()
		if err != nil {
			return "", err
		}
		var env listEnvelope[T]
		if err := codec.JSON.Decode(data, &env); err != nil {
			return "", &request.DecodeError{Err: err}
		}
		for _, item := range env.Items {
			w.emitEvent(WatchEvent[T]{Type: Added, Object: item})
		}
		w.emit(w.callbacks.InitialListSent)
		return env.Metadata.ResourceVersion, nil
	}

	if resp.IsNotFound() {
		// The watched item is gone; resume with no tracked version so
		// the next open starts from "now".
		return "", nil
	}
	if resp.IsError() {
		status, _ := resp.Status()
		return "", request.NewStatusError(resp.StatusCode(), status)
	}
	var obj T
	if err := resp.Into(&obj); err != nil {
		return "", err
	}
	w.emitEvent(WatchEvent[T]{Type: Added, Object: obj})
	return obj.GetResourceVersion(), nil
}

func (w *Watcher[T]) emit(fn func()) {
	if fn != nil {
		fn()
	}
}

func (w *Watcher[T]) emitEvent(ev WatchEvent[T]) {
	if w.callbacks.EventReceived != nil {
		w.callbacks.EventReceived(ev)
	}
}

func (w *Watcher[T]) emitError(err error) {
	if w.callbacks.Error != nil {
		w.callbacks.Error(err)
	}
}

// isExpired reports whether an Error frame signals that the server
// expired the watcher's resource version, per spec.md §4.H point 4:
// the same condition as a 410 Gone, delivered in-band instead of as an
// HTTP status.
func isExpired(status *metav1.Status) bool {
	if status == nil {
		return false
	}
	return status.Reason == metav1.StatusReasonExpired || status.Reason == metav1.StatusReasonGone
}

func statusMessage(status *metav1.Status) string {
	if status == nil {
		return "unknown"
	}
	if status.Message != "" {
		return status.Message
	}
	return string(status.Reason)
}
