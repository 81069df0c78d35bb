package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"phone-trivia/internal/countdown"
	"phone-trivia/internal/domain"
	"phone-trivia/internal/host"
	"phone-trivia/internal/ledger"
	"phone-trivia/internal/protocol"
)

const (
	defaultFallbackDelay      = 5 * time.Second
	defaultRecoveryRetryDelay = 2 * time.Second
	defaultAvatarSize         = 64
)

// Config identifies the local participant and tunes the local timers.
type Config struct {
	ParticipantID      string
	DisplayName        string
	InstanceID         string
	FallbackDelay      time.Duration
	RecoveryRetryDelay time.Duration
	AvatarSize         int
}

// Option customizes a Client.
type Option func(*Client)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.log = logger }
}

func WithQuestionSource(src QuestionSource) Option {
	return func(c *Client) { c.questionSource = src }
}

func WithScoreStore(store ScoreStore) Option {
	return func(c *Client) { c.scoreStore = store }
}

func WithAvatarService(svc AvatarService) Option {
	return func(c *Client) { c.avatarService = svc }
}

func WithRegistry(reg Registry) Option {
	return func(c *Client) { c.registry = reg }
}

func WithSurface(surface Surface) Option {
	return func(c *Client) { c.surface = surface }
}

// Client is one participant's view of a trivia session. All handlers,
// local actions, and timer callbacks run under mu, one at a time.
type Client struct {
	cfg            Config
	bus            Bus
	clock          clockwork.Clock
	log            zerolog.Logger
	questionSource QuestionSource
	scoreStore     ScoreStore
	avatarService  AvatarService
	registry       Registry
	surface        Surface

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	unsubscribe func()
	outbox      []protocol.Message
	dirty       bool
	subscribers map[chan View]struct{}

	ledger   *ledger.Ledger
	host     *host.Heuristic
	fallback *countdown.Countdown
	retry    *countdown.Countdown
	recovery recoveryState
	degraded bool

	sessionID       string
	phase           domain.Phase
	questionIndex   int
	resultsIndex    int
	totalQuestions  int
	question        *domain.Question
	placeholder     bool
	questionShownAt time.Time
	deadline        time.Time
	bank            []domain.Question
	bankIsFallback  bool
	selection       *int
	participants    []domain.Participant
	answered        map[string]bool
	settings        domain.Settings

	correctness  domain.Correctness
	correctIndex int
	answerCounts []int
	scores       map[string]int
	leaderboard  []domain.LeaderboardEntry
	boardIndex   int
	avatars      map[string][]byte
	avatarsBusy  map[string]bool

	score     scoreState
	lifetime  lifetimeScore
	persistCh chan int
}

// New builds a client bound to bus. It does nothing until Start.
func New(cfg Config, bus Bus, opts ...Option) *Client {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = defaultFallbackDelay
	}
	if cfg.RecoveryRetryDelay <= 0 {
		cfg.RecoveryRetryDelay = defaultRecoveryRetryDelay
	}
	if cfg.AvatarSize <= 0 {
		cfg.AvatarSize = defaultAvatarSize
	}
	c := &Client{
		cfg:         cfg,
		bus:         bus,
		clock:       clockwork.NewRealClock(),
		log:         zerolog.Nop(),
		ctx:         context.Background(),
		subscribers: make(map[chan View]struct{}),
		ledger:      ledger.New(),
		host:        host.New(cfg.ParticipantID),
		avatars:     make(map[string][]byte),
		avatarsBusy: make(map[string]bool),
		persistCh:   make(chan int, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().
		Str("participant_id", cfg.ParticipantID).
		Str("instance_id", cfg.InstanceID).
		Logger()
	c.fallback = countdown.New(c.clock)
	c.retry = countdown.New(c.clock)
	c.bank = fallbackQuestions()
	c.bankIsFallback = true
	c.phase = domain.PhaseWaitingForGame
	c.resetSessionLocked()
	return c
}

// Start registers the instance, loads the question bank, subscribes to the
// bus, and asks the controller for a snapshot.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	runCtx := c.ctx
	c.mu.Unlock()

	c.register(runCtx)
	if err := c.loadQuestions(runCtx); err != nil {
		c.log.Warn().Err(err).Msg("question source unavailable, using fallback bank")
	}
	c.loadLifetimeScore(runCtx)

	unsubscribe := c.bus.Subscribe(c.HandleMessage)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.beginRecoveryLocked()
	c.dirty = true
	c.release()
	return nil
}

// Stop cancels timers, leaves the bus, and unregisters the instance.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.fallback.Cancel()
	c.retry.Cancel()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	cancel := c.cancel
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if c.registry != nil {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.registry.Unregister(ctx, c.cfg.ParticipantID, c.cfg.InstanceID); err != nil {
			c.log.Warn().Err(err).Msg("unregister client instance")
		}
		done()
	}
	if cancel != nil {
		cancel()
	}
}

// HandleMessage applies one broadcast. Client-originated kinds are ignored.
func (c *Client) HandleMessage(msg protocol.Message) {
	c.mu.Lock()
	defer c.release()

	switch m := msg.(type) {
	case protocol.QuestionShow:
		c.onQuestionShow(m)
	case protocol.Results:
		c.onResults(m)
	case protocol.Leaderboard:
		c.onLeaderboard(m)
	case protocol.PlayerUpdate:
		c.onPlayerUpdate(m)
	case protocol.GameStart:
		c.onGameStart(m)
	case protocol.GameEnd:
		c.onGameEnd(m)
	case protocol.GameReset:
		c.onGameReset(m)
	case protocol.SettingsUpdate:
		c.onSettingsUpdate(m)
	case protocol.StateResponse:
		c.onStateResponse(m)
	case protocol.HostChanged:
		c.onHostChanged(m)
	case protocol.ControllerReady:
		c.onControllerReady(m)
	case protocol.AnswerSubmitted, protocol.NextQuestion, protocol.StateRequest,
		protocol.SettingsChange, protocol.AwardPoints, protocol.StartGame,
		protocol.EndGame, protocol.PlayAgain:
		// addressed to the controller
	default:
		c.log.Debug().Str("kind", string(msg.Kind())).Msg("ignoring unknown message")
	}
}

// Subscribe returns a channel of View updates. The caller must invoke the
// returned cancel function to avoid leaks.
func (c *Client) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	// ch is empty, so this never blocks; sending under mu keeps Stop from
	// closing it first.
	ch <- c.viewLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// View returns the current UI-observable state.
func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// release publishes a changed view, unlocks, then flushes outbound messages
// so bus deliveries never run under the handler lock.
func (c *Client) release() {
	if c.dirty {
		c.dirty = false
		c.publishLocked(c.viewLocked())
	}
	out := c.outbox
	c.outbox = nil
	ctx := c.ctx
	c.mu.Unlock()

	for _, msg := range out {
		if err := c.bus.Send(ctx, msg); err != nil {
			c.log.Warn().Err(err).Str("kind", string(msg.Kind())).Msg("send failed")
		}
	}
}

func (c *Client) publishLocked(v View) {
	if c.surface != nil {
		c.surface.Render(v)
	}
	for ch := range c.subscribers {
		select {
		case ch <- v:
		default:
			// drop the oldest view so a slow reader never blocks a handler
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

func (c *Client) emit(msg protocol.Message) {
	c.outbox = append(c.outbox, msg)
}

// setPhase moves to p and cancels timers that belonged to the prior phase.
func (c *Client) setPhase(p domain.Phase) {
	c.dirty = true
	if p == c.phase {
		return
	}
	c.fallback.Cancel()
	c.retry.Cancel()
	c.recovery.awaiting = false
	c.log.Debug().
		Str("from", string(c.phase)).
		Str("to", string(p)).
		Int("question_index", c.questionIndex).
		Msg("phase transition")
	c.phase = p
}

// resetSessionLocked clears everything scoped to one session. The pinned host
// survives; callers clear it explicitly.
func (c *Client) resetSessionLocked() {
	c.fallback.Cancel()
	c.ledger.Reset()
	c.sessionID = ""
	c.questionIndex = -1
	c.resultsIndex = -1
	c.question = nil
	c.placeholder = false
	c.questionShownAt = time.Time{}
	c.deadline = time.Time{}
	c.selection = nil
	c.answered = make(map[string]bool)
	c.correctness = domain.CorrectnessUnknown
	c.correctIndex = -1
	c.answerCounts = nil
	c.scores = nil
	c.leaderboard = nil
	c.boardIndex = -1
	c.score.reset()
	c.dirty = true
}

func (c *Client) participantIDs() []string {
	ids := make([]string, 0, len(c.participants))
	for _, p := range c.participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// allAnswered evaluates the tally against the current participant list.
func (c *Client) allAnswered() bool {
	if len(c.participants) == 0 {
		return false
	}
	for _, p := range c.participants {
		if !c.answered[p.ID] {
			return false
		}
	}
	return true
}

func (c *Client) register(ctx context.Context) {
	if c.registry == nil {
		return
	}
	already, err := c.registry.Register(ctx, c.cfg.ParticipantID, c.cfg.InstanceID)
	if err != nil {
		c.log.Warn().Err(err).Msg("register client instance")
		return
	}
	if already {
		c.log.Debug().Msg("client instance already registered")
	}
}

func (c *Client) loadQuestions(ctx context.Context) error {
	if c.questionSource == nil {
		return nil
	}
	questions, err := c.questionSource.FetchQuestions(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return domain.ErrQuestionsNotFound
	}
	c.mu.Lock()
	c.bank = questions
	c.bankIsFallback = false
	if c.placeholder && c.questionIndex >= 0 {
		c.question, c.placeholder = c.resolveQuestion(c.questionIndex, nil)
	}
	c.dirty = true
	c.release()
	return nil
}
