package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/autoglm/tui-go/internal/model"
	"github.com/autoglm/tui-go/internal/stream"
)

var (
	// ErrTaskRunning is returned when a send arrives while a task is active.
	ErrTaskRunning = errors.New("a task is already running")
	// ErrEmptyMessage is returned for blank task submissions.
	ErrEmptyMessage = errors.New("task message is empty")
)

// transportNotice replaces the in-progress bubble when the stream dies at the
// transport level and no remote error record will ever arrive.
const transportNotice = "Network error: lost connection to the agent service"

// greeting seeds an empty transcript, mirroring the backend's default history.
const greeting = "您好！我是 AutoGLM。今天想让我帮您控制手机做些什么？"

// Backend is what the controller needs from the rest of the system: submit a
// task and get a byte stream back, poll run state, fetch or clear the
// persisted transcript, and request cancellation. The HTTP client implements
// it; tests substitute fakes for the stream and the poll independently.
type Backend interface {
	SubmitTask(ctx context.Context, req model.TaskRequest) (io.ReadCloser, error)
	RunStatus(ctx context.Context) (model.RunStatus, error)
	Stop(ctx context.Context) error
	History(ctx context.Context) (model.Transcript, error)
	ClearHistory(ctx context.Context) (model.Transcript, error)
}

// Controller reconciles the two loosely-synchronized signals about one agent
// session: the live per-invocation event stream and the periodic run-status
// poll. It is the sole owner of the transcript; the poll-derived flags are
// written only through ApplyRunStatus. The poll is the final authority on
// whether a task is actually running — the stream reader's view is optimistic
// and may be overridden in either direction.
type Controller struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time

	mu           sync.Mutex
	transcript   model.Transcript
	state        model.SessionState
	timer        ElapsedTimer
	streamActive bool
	// settle is armed when a stream ends and fires once a poll tick confirms
	// the backend is idle; that confirmation triggers the history refresh.
	settle chan struct{}

	updates chan struct{}
}

// NewController creates a controller around the given backend. A nil logger
// falls back to slog.Default.
func NewController(backend Backend, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		backend: backend,
		log:     log,
		now:     time.Now,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals that Snapshot would return something new. Signals are
// coalesced; consumers re-read the snapshot rather than counting them.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Snapshot returns copies of the transcript and session state.
func (c *Controller) Snapshot() (model.Transcript, model.SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Clone(), c.state
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Send submits a task. It rejects blank input and refuses to start while a
// task is still loading, keeping at most one active task per controller.
// The stream is consumed on a background goroutine; progress is observable
// through Updates/Snapshot.
func (c *Controller) Send(ctx context.Context, req model.TaskRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state.Loading || c.streamActive {
		c.mu.Unlock()
		return ErrTaskRunning
	}
	c.state.Loading = true
	c.mu.Unlock()
	c.notify()

	go c.run(ctx, req)
	return nil
}

// run executes the requested cycles strictly in sequence. A new cycle starts
// only after the previous one has fully settled: its stream ended, a poll
// tick confirmed the backend idle, and the history refresh ran.
func (c *Controller) run(ctx context.Context, req model.TaskRequest) {
	loops := req.LoopCount
	if loops < 1 {
		loops = 1
	}

	for i := 0; i < loops; i++ {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			c.mu.Lock()
			if c.state.Loading || c.streamActive {
				// Someone else claimed the session between cycles.
				c.mu.Unlock()
				return
			}
			c.state.Loading = true
			c.mu.Unlock()
			c.notify()
		}

		cycle := model.TaskRequest{
			Message: req.Message,
			// Only the first repetition may reset the agent's context.
			IsNewTask: req.IsNewTask && i == 0,
		}
		settled := c.runCycle(ctx, cycle)

		select {
		case <-settled:
		case <-ctx.Done():
			return
		}
	}
}

// runCycle performs one idle→submitting→streaming→settling pass and returns
// the channel that fires when the cycle has settled.
func (c *Controller) runCycle(ctx context.Context, req model.TaskRequest) <-chan struct{} {
	c.mu.Lock()
	c.transcript = c.transcript.
		Append(model.Message{
			Role:    model.RoleUser,
			Content: req.Message,
			// Placeholder client-side timestamp; the post-settlement history
			// refresh replaces it with the backend's record.
			Time: c.now().Format("15:04"),
		}).
		Append(model.Message{Role: model.RoleAssistant})
	c.streamActive = true
	c.mu.Unlock()
	c.notify()

	body, err := c.backend.SubmitTask(ctx, req)
	if err != nil {
		c.log.Error("submit task", "error", err)
		return c.finishStream(true)
	}
	defer body.Close()

	framer := stream.NewLineFramer()
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			c.applyRecords(framer.Feed(buf[:n]))
		}
		if err != nil {
			c.applyRecords(framer.Flush())
			if err == io.EOF {
				return c.finishStream(false)
			}
			c.log.Error("read task stream", "error", err)
			return c.finishStream(true)
		}
	}
}

// applyRecords decodes each record and folds it into the transcript in
// arrival order. Malformed records are dropped and logged, never fatal.
func (c *Controller) applyRecords(records []string) {
	for _, record := range records {
		ev, err := stream.DecodeEvent(record)
		if err != nil {
			c.log.Warn("dropping stream record", "error", err)
			continue
		}
		c.mu.Lock()
		c.transcript = Reduce(c.transcript, ev)
		c.mu.Unlock()
		c.notify()
	}
}

// finishStream moves the session to settling. The local loading flag drops
// immediately, but that is optimistic: until a poll tick agrees, the poller
// may re-assert loading if the task is still executing server-side.
func (c *Controller) finishStream(failed bool) <-chan struct{} {
	c.mu.Lock()
	if failed {
		c.transcript = Reduce(c.transcript, stream.Event{
			Kind:    stream.EventError,
			Content: transportNotice,
		})
	}
	c.streamActive = false
	c.state.Loading = false
	settled := make(chan struct{})
	c.settle = settled
	c.mu.Unlock()
	c.notify()
	return settled
}

// ApplyRunStatus merges one polled ground-truth snapshot. Stopping is copied
// through; loading follows the asymmetric remote-wins rule: a running backend
// flips loading on, an idle backend flips it off, matching states change
// nothing. When an idle report arrives while a settle is pending and no
// stream is active, the settle completes: one history refresh replaces the
// optimistic local transcript with the persisted one.
func (c *Controller) ApplyRunStatus(ctx context.Context, rs model.RunStatus) {
	c.mu.Lock()
	changed := false
	if c.state.Stopping != rs.Stopping {
		c.state.Stopping = rs.Stopping
		changed = true
	}
	switch {
	case rs.Running && !c.state.Loading:
		c.state.Loading = true
		changed = true
	case !rs.Running && c.state.Loading:
		c.state.Loading = false
		changed = true
	}
	var settled chan struct{}
	if !rs.Running && !c.streamActive && c.settle != nil {
		settled = c.settle
		c.settle = nil
	}
	c.mu.Unlock()

	if changed {
		c.notify()
	}
	if settled != nil {
		c.refreshHistory(ctx)
		close(settled)
	}
}

// refreshHistory replaces the transcript with the backend's persisted copy,
// reconciling placeholder timestamps and server-side formatting. A refresh
// that races a newly started stream backs off; the next settle will retry.
func (c *Controller) refreshHistory(ctx context.Context) {
	hist, err := c.backend.History(ctx)
	if err != nil {
		c.log.Error("refresh history", "error", err)
		return
	}
	c.mu.Lock()
	if !c.streamActive {
		c.transcript = hist
	}
	c.mu.Unlock()
	c.notify()
}

// LoadHistory pulls the persisted transcript, used once at startup. An empty
// history is seeded with the assistant greeting.
func (c *Controller) LoadHistory(ctx context.Context) error {
	hist, err := c.backend.History(ctx)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		hist = model.Transcript{{Role: model.RoleAssistant, Content: greeting}}
	}
	c.mu.Lock()
	if !c.streamActive {
		c.transcript = hist
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// ClearTranscript asks the backend to reset the conversation and adopts the
// returned history. Refused while a task is active.
func (c *Controller) ClearTranscript(ctx context.Context) error {
	c.mu.Lock()
	busy := c.state.Loading || c.streamActive
	c.mu.Unlock()
	if busy {
		return ErrTaskRunning
	}

	hist, err := c.backend.ClearHistory(ctx)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		hist = model.Transcript{{Role: model.RoleAssistant, Content: greeting}}
	}
	c.mu.Lock()
	c.transcript = hist
	c.mu.Unlock()
	c.notify()
	return nil
}

// RequestStop forwards a cancellation to the backend and changes nothing
// locally: the effect of stopping is observed exclusively through subsequent
// poll ticks, first as stopping=true and eventually as running=false.
func (c *Controller) RequestStop(ctx context.Context) error {
	if err := c.backend.Stop(ctx); err != nil {
		return err
	}
	return nil
}

// TickElapsed advances the elapsed-seconds display once. While the session is
// loading or stopping the counter climbs; otherwise it holds at zero.
func (c *Controller) TickElapsed() {
	c.mu.Lock()
	active := c.state.Loading || c.state.Stopping
	prev := c.state.Elapsed
	c.state.Elapsed = c.timer.Advance(active)
	changed := c.state.Elapsed != prev
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

// RunElapsed ticks the elapsed timer once per second until ctx is done.
func (c *Controller) RunElapsed(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.TickElapsed()
		}
	}
}
