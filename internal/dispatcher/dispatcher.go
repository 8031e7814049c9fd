// Package dispatcher implements the JSON command/response surface:
// two serialized worker queues (console-bound vs data-bound commands)
// behind a single routing table lookup, matching spec.md §4.8's
// "two worker threads, each owning a table mapping command names to
// handler methods" shape. Grounded on
// original_source/source/vws/CommandHandler.cpp and
// original_source/source/vws/DataCommandHandler.cpp.
package dispatcher

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/protocol"
)

// Arguments is the decoded `"arguments"` array: each element is a
// single-key object, e.g. `{"state":"on"}`.
type Arguments []map[string]string

// Get returns the first value for key across the argument list, the
// way CommandHandler::handleCommand loops its argumentList looking
// for a matching first.
func (a Arguments) Get(key string) (string, bool) {
	for _, m := range a {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Request is one decoded JSON command object.
type Request struct {
	Command   string    `json:"command"`
	Arguments Arguments `json:"arguments"`
}

// Result values for Response.Result.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Response is the JSON envelope every command produces, success or
// failure, per spec.md §4.8.
type Response struct {
	Response  string `json:"response"`
	Result    string `json:"result"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func failure(command, requestID, reason string) Response {
	return Response{
		Response:  command,
		Result:    ResultFailure,
		Data:      map[string]string{"error": reason},
		RequestID: requestID,
	}
}

func success(command, requestID string, data any) Response {
	return Response{Response: command, Result: ResultSuccess, Data: data, RequestID: requestID}
}

// Handler executes one command's arguments and returns the payload
// for a successful response's Data field, or an error to render as a
// failure. Handlers never return raw Go error strings containing
// internal type names; callers should use protocol.New/Newf or plain
// errors.New with a user-safe message.
type Handler func(ctx context.Context, args Arguments) (any, error)

type job struct {
	req    Request
	respCh chan Response
}

// Dispatcher routes decoded commands to one of two serialized
// workers. Console-bound commands run on the same goroutine that owns
// the serial transport; data-bound commands run on a second goroutine
// that never touches it, so the two can proceed in parallel (spec.md
// §5).
type Dispatcher struct {
	logger *zap.SugaredLogger

	mu           sync.RWMutex
	consoleTable map[string]Handler
	dataTable    map[string]Handler
	consoleQueue chan job
	dataQueue    chan job
	wg           sync.WaitGroup
	startOnce    sync.Once
}

// New builds an empty Dispatcher. Register handlers with
// RegisterConsole/RegisterData, then call Start.
func New(logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		logger:       logger,
		consoleTable: make(map[string]Handler),
		dataTable:    make(map[string]Handler),
		consoleQueue: make(chan job, 16),
		dataQueue:    make(chan job, 16),
	}
}

// RegisterConsole adds a console-bound command handler.
func (d *Dispatcher) RegisterConsole(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.consoleTable[name] = h
}

// RegisterData adds a data-bound command handler.
func (d *Dispatcher) RegisterData(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dataTable[name] = h
}

// Start spins up the two worker goroutines. They run until ctx is
// canceled, at which point they drain no further jobs — any
// in-flight Dispatch call's context should itself be derived from ctx
// so it observes cancellation rather than blocking forever.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.wg.Add(2)
		go d.runWorker(ctx, d.consoleQueue, d.consoleTable, "console")
		go d.runWorker(ctx, d.dataQueue, d.dataTable, "data")
	})
}

// Wait blocks until both worker goroutines have exited, i.e. after
// Start's ctx has been canceled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, queue chan job, table map[string]Handler, name string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.logger.Infow("dispatcher worker stopping", "worker", name)
			return
		case j := <-queue:
			d.run(ctx, j, table)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, j job, table map[string]Handler) {
	d.mu.RLock()
	h, ok := table[j.req.Command]
	d.mu.RUnlock()
	if !ok {
		j.respCh <- failure(j.req.Command, "", "unrecognized")
		return
	}
	data, err := h(ctx, j.req.Arguments)
	if err != nil {
		j.respCh <- failure(j.req.Command, "", errorMessage(err))
		return
	}
	j.respCh <- success(j.req.Command, "", data)
}

// errorMessage renders err as the short, sanitized string spec.md §7
// allows into data.error: a protocol.Error contributes only its
// wrapped message, never its Kind or Go type name.
func errorMessage(err error) string {
	if e, ok := err.(*protocol.Error); ok && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}

// Dispatch enqueues req on whichever worker owns its command name and
// blocks for that worker's response. Commands absent from both tables
// fail immediately with "unrecognized", without enqueuing anything —
// the routing decision happens here instead of a requeue/claim dance
// between the two workers, since Go's channels make an explicit
// lookup-then-route simpler than a shared-queue claim protocol while
// preserving the same two-serialized-workers behavior.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	requestID := uuid.New().String()
	d.logger.Debugw("dispatching command", "command", req.Command, "arguments", req.Arguments, "requestId", requestID)

	d.mu.RLock()
	_, isConsole := d.consoleTable[req.Command]
	_, isData := d.dataTable[req.Command]
	d.mu.RUnlock()

	var queue chan job
	switch {
	case isConsole:
		queue = d.consoleQueue
	case isData:
		queue = d.dataQueue
	default:
		return failure(req.Command, requestID, "unrecognized")
	}

	j := job{req: req, respCh: make(chan Response, 1)}
	select {
	case queue <- j:
	case <-ctx.Done():
		return failure(req.Command, requestID, "dispatch canceled")
	}

	select {
	case resp := <-j.respCh:
		resp.RequestID = requestID
		return resp
	case <-ctx.Done():
		return failure(req.Command, requestID, "dispatch canceled")
	}
}
