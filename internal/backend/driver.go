package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/breezewish/codex-potter-sub000/internal/backenderr"
	"github.com/breezewish/codex-potter-sub000/internal/events"
	"github.com/breezewish/codex-potter-sub000/internal/jsonrpc"
	"github.com/breezewish/codex-potter-sub000/internal/log"
)

// doneMarker is the sentinel string the app server and CodexPotter agree
// signals a turn's successful completion.
const doneMarker = "DONE_MARKER"

// BackendOutcome is the result of one complete Run call.
type BackendOutcome struct {
	DoneMarkerSeen bool
}

// msgState tracks the per-round decoding state described by the backend
// driver's data model: whether a turn has completed, whether the done
// marker was observed, and the accumulated agent message text.
type msgState struct {
	turnCompleteSeen bool
	doneMarkerSeen   bool
	sawAgentDelta    bool
	agentMessageBuf  strings.Builder
}

func (s *msgState) observe(msg events.EventMsg) {
	switch m := msg.(type) {
	case *events.AgentMessageDelta:
		s.sawAgentDelta = true
		s.agentMessageBuf.WriteString(m.Delta)
	case *events.AgentMessage:
		if !s.sawAgentDelta {
			s.agentMessageBuf.Reset()
			s.agentMessageBuf.WriteString(m.Message)
		}
	case *events.TurnComplete:
		haystack := s.agentMessageBuf.String()
		if m.LastAgentMessage != nil {
			haystack = *m.LastAgentMessage
		}
		if strings.Contains(haystack, doneMarker) {
			s.doneMarkerSeen = true
		}
		s.turnCompleteSeen = true
	case *events.TurnAborted, *events.ErrorMsg:
		s.turnCompleteSeen = true
	}
}

// driver holds the live state of one app-server session: its id counter,
// its stdin writer, and the thread id established by thread/start.
type driver struct {
	stdin       io.WriteCloser
	stdoutLines <-chan jsonrpc.Message
	nextID      int64
	threadID    string
}

func (d *driver) newID() jsonrpc.RequestID {
	id := jsonrpc.NewIntID(d.nextID)
	d.nextID++
	return id
}

func (d *driver) writeMessage(msg jsonrpc.Message) error {
	line, err := jsonrpc.Encode(msg)
	if err != nil {
		return err
	}
	_, err = d.stdin.Write(line)
	return err
}

func (d *driver) writeRequest(method string, params json.RawMessage) (jsonrpc.RequestID, error) {
	id := d.newID()
	return id, d.writeMessage(jsonrpc.NewRequest(id, method, params))
}

// readUntilResponse drains stdoutLines, forwarding notifications and
// auto-answering server requests along the way, until it sees a
// Response/ErrorResponse correlated to id. It is the single point where the
// driver consumes decoded stdout lines, whether awaiting the initialize or
// thread/start handshake responses or a turn/start response mid-round.
func (d *driver) readUntilResponse(id jsonrpc.RequestID, eventsOut chan<- events.Event, state *msgState) (jsonrpc.Message, error) {
	for msg := range d.stdoutLines {
		switch msg.Kind {
		case jsonrpc.KindResponse, jsonrpc.KindErrorResponse:
			if !msg.ID.Equal(id) {
				return jsonrpc.Message{}, fmt.Errorf("jsonrpc: response id %s does not match in-flight request %s", msg.ID, id)
			}
			return msg, nil
		case jsonrpc.KindNotification:
			d.processNotification(msg, eventsOut, state)
		case jsonrpc.KindRequest:
			if err := d.processServerRequest(msg); err != nil {
				log.Debug(log.CatBackend, "failed to answer server request", "method", msg.Method, "error", err)
			}
		}
	}
	return jsonrpc.Message{}, io.EOF
}

func (d *driver) processNotification(msg jsonrpc.Message, eventsOut chan<- events.Event, state *msgState) {
	if !strings.HasPrefix(msg.Method, "codex/event/") {
		return
	}
	var ev events.Event
	if err := json.Unmarshal(msg.Params, &ev); err != nil {
		log.Debug(log.CatBackend, "failed to decode event notification", "method", msg.Method, "error", err)
		return
	}
	if state != nil {
		state.observe(ev.Msg)
	}
	eventsOut <- ev
}

// processServerRequest answers a server-originated request per the
// auto-answer policy: accept/approve known approval methods, JSON-RPC
// -32601 for everything else, so the server is never left blocked waiting
// on a human.
func (d *driver) processServerRequest(msg jsonrpc.Message) error {
	switch msg.Method {
	case jsonrpc.MethodCommandExecutionApproval, jsonrpc.MethodFileChangeApproval:
		result := jsonrpc.MustMarshal(jsonrpc.ApprovalDecisionResult{Decision: "accept"})
		return d.writeMessage(jsonrpc.NewResponse(msg.ID, result))
	case jsonrpc.MethodApplyPatch, jsonrpc.MethodExecCommand:
		result := jsonrpc.MustMarshal(jsonrpc.ApprovalDecisionResult{Decision: "approved"})
		return d.writeMessage(jsonrpc.NewResponse(msg.ID, result))
	default:
		message := fmt.Sprintf("unsupported server request %s: not implemented", msg.Method)
		return d.writeMessage(jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrMethodNotFound, message, nil))
	}
}

// Run implements one complete app-server session: spawn, initialize, start
// a thread, then pump messages until the ops channel closes and the child
// exits. It returns a non-nil error only for the startup failures in the
// SpawnFailed/HandshakeFailed taxonomy; all other failures are surfaced
// through eventsOut/fatalOut, the sole user-visible reporters once a round
// is underway.
func Run(ctx context.Context, cfg Config, opsIn <-chan Op, eventsOut chan<- events.Event, fatalOut chan<- string) (BackendOutcome, error) {
	cmd := exec.CommandContext(ctx, cfg.CodexBin, buildArgs(cfg)...)
	cmd.Dir = cfg.WorkDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return BackendOutcome{}, fmt.Errorf("%w: stdin pipe: %v", backenderr.ErrSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return BackendOutcome{}, fmt.Errorf("%w: stdout pipe: %v", backenderr.ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return BackendOutcome{}, fmt.Errorf("%w: stderr pipe: %v", backenderr.ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return BackendOutcome{}, fmt.Errorf("%w: %v", backenderr.ErrSpawnFailed, err)
	}

	stderrCap := newStderrCapture()
	go stderrCap.drain(stderr)

	scanner := jsonrpc.NewLineScanner(stdout)
	stdoutLines := make(chan jsonrpc.Message, 16)
	scanErrCh := make(chan error, 1)
	go func() {
		defer close(stdoutLines)
		for scanner.Scan() {
			stdoutLines <- scanner.Message()
		}
		scanErrCh <- scanner.Err()
	}()

	d := &driver{stdin: stdin, stdoutLines: stdoutLines, nextID: 1}
	state := &msgState{}

	if err := d.handshake(cfg, eventsOut, state); err != nil {
		return BackendOutcome{}, fmt.Errorf("%w: %v", backenderr.ErrHandshakeFailed, err)
	}

	runMainLoop(d, opsIn, stdoutLines, eventsOut, state)

	scanErr := <-scanErrCh
	_ = cmd.Wait()

	if !state.turnCompleteSeen {
		message := "codex app-server exited unexpectedly"
		if scanErr != nil {
			if snippet := stderrCap.Snapshot(); snippet != "" {
				message = fmt.Sprintf("%s: %s", message, snippet)
			} else {
				message = fmt.Sprintf("%s: %v", message, scanErr)
			}
		}
		reportFatal(eventsOut, fatalOut, message)
	}

	return BackendOutcome{DoneMarkerSeen: state.doneMarkerSeen}, nil
}

// handshake performs the initialize → initialized → thread/start sequence
// and synthesizes the SessionConfigured event the round runner relies on.
func (d *driver) handshake(cfg Config, eventsOut chan<- events.Event, state *msgState) error {
	initID, err := d.writeRequest(jsonrpc.MethodInitialize, jsonrpc.MustMarshal(jsonrpc.InitializeParams{
		ClientInfo: jsonrpc.ClientInfo{Name: "codex-potter", Title: "codex-potter", Version: ClientVersion},
	}))
	if err != nil {
		return fmt.Errorf("send initialize: %w", err)
	}
	if _, err := d.readUntilResponse(initID, eventsOut, state); err != nil {
		return fmt.Errorf("await initialize response: %w", err)
	}

	if err := d.writeMessage(jsonrpc.NewNotification(jsonrpc.MethodInitialized, nil)); err != nil {
		return fmt.Errorf("send initialized: %w", err)
	}

	var codexHome *string
	var config *jsonrpc.ThreadStartConfig
	if cfg.CodexHome != nil {
		codexHome = cfg.CodexHome
		config = &jsonrpc.ThreadStartConfig{CodexHome: codexHome}
	}

	threadParams := jsonrpc.ThreadStartParams{
		Model:                 nil,
		ModelProvider:         nil,
		Cwd:                   nil,
		ApprovalPolicy:        "never",
		Sandbox:               cfg.SandboxMode.wireValue(),
		Config:                config,
		BaseInstructions:      nil,
		DeveloperInstructions: cfg.DeveloperInstructions,
		ExperimentalRawEvents: false,
	}
	threadID, err := d.writeRequest(jsonrpc.MethodThreadStart, jsonrpc.MustMarshal(threadParams))
	if err != nil {
		return fmt.Errorf("send thread/start: %w", err)
	}
	resp, err := d.readUntilResponse(threadID, eventsOut, state)
	if err != nil {
		return fmt.Errorf("await thread/start response: %w", err)
	}
	if resp.Kind == jsonrpc.KindErrorResponse {
		return fmt.Errorf("thread/start: %w", resp.Err)
	}

	var started jsonrpc.ThreadStartResponse
	if err := json.Unmarshal(resp.Result, &started); err != nil {
		return fmt.Errorf("decode thread/start response: %w", err)
	}
	d.threadID = started.ThreadID

	sc := &events.SessionConfigured{
		ThreadID:          started.ThreadID,
		Model:             started.Model,
		ModelProvider:     started.ModelProvider,
		Cwd:               started.Cwd,
		ReasoningEffort:   started.ReasoningEffort,
		RolloutPath:       started.RolloutPath,
		HistoryLogID:      started.HistoryLogID,
		HistoryEntryCount: started.HistoryEntryCount,
		ForkedFromID:      started.ForkedFromID,
	}
	eventsOut <- events.Event{Msg: sc}
	return nil
}

// runMainLoop forwards ops to the child and dispatches unsolicited stdout
// lines until the stdout stream closes (the child has exited). Once the ops
// channel closes, the driver stops submitting new ops and closes stdin,
// which is the shutdown signal to the server.
func runMainLoop(d *driver, opsIn <-chan Op, stdoutLines <-chan jsonrpc.Message, eventsOut chan<- events.Event, state *msgState) {
	ops := opsIn
	for {
		select {
		case op, ok := <-ops:
			if !ok {
				ops = nil
				state.turnCompleteSeen = true
				_ = d.stdin.Close()
				continue
			}
			d.handleOp(op, eventsOut, state)
		case msg, ok := <-stdoutLines:
			if !ok {
				return
			}
			switch msg.Kind {
			case jsonrpc.KindNotification:
				d.processNotification(msg, eventsOut, state)
			case jsonrpc.KindRequest:
				if err := d.processServerRequest(msg); err != nil {
					log.Debug(log.CatBackend, "failed to answer server request", "method", msg.Method, "error", err)
				}
			default:
				// Unsolicited Response/ErrorResponse: no in-flight request is
				// awaiting it here, so it is ignored.
			}
		}
	}
}

func (d *driver) handleOp(op Op, eventsOut chan<- events.Event, state *msgState) {
	switch op.Kind {
	case OpUserInput:
		params := jsonrpc.TurnStartParams{
			ThreadID:     d.threadID,
			Input:        op.Items,
			OutputSchema: op.OutputSchema,
		}
		id, err := d.writeRequest(jsonrpc.MethodTurnStart, jsonrpc.MustMarshal(params))
		if err != nil {
			log.Debug(log.CatBackend, "failed to send turn/start", "error", err)
			return
		}
		if _, err := d.readUntilResponse(id, eventsOut, state); err != nil {
			log.Debug(log.CatBackend, "turn/start response not received", "error", err)
		}
	case OpInterrupt, OpGetHistoryEntryRequest:
		// No-op: the single-turn driver never tracks an in-flight turn id to
		// route this to.
	}
}

func reportFatal(eventsOut chan<- events.Event, fatalOut chan<- string, message string) {
	select {
	case eventsOut <- events.Event{Msg: &events.ErrorMsg{Message: message}}:
	default:
	}
	select {
	case fatalOut <- message:
	default:
	}
}
