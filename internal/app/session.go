package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"doodleduel/internal/config"
	"doodleduel/internal/domain"
	"doodleduel/internal/notify"
	"doodleduel/internal/phase"
	"doodleduel/internal/queue"
	"doodleduel/internal/reward"
	"doodleduel/internal/sabotage"
	"doodleduel/internal/store"
	"doodleduel/internal/submit"
	"doodleduel/internal/timer"
	"doodleduel/internal/upload"
)

const (
	DefaultPollInterval    = time.Second
	DefaultStuckTimeout    = 10 * time.Second
	DefaultKickedDebounce  = 2 * time.Second
	DefaultClosedCountdown = 3 * time.Second
	DefaultRequestTimeout  = 5 * time.Second

	countdownTick   = 100 * time.Millisecond
	eventBufferSize = 100
)

// Canvas is the local drawing surface
type Canvas interface {
	Clear()
	// Export returns the current drawing as a URL or data URI
	Export() (string, error)
}

// Sender queues a notification without blocking
type Sender interface {
	Send(n notify.Notification) bool
}

// Options configures a session. Zero values fall back to the defaults.
type Options struct {
	PollInterval    time.Duration
	StuckTimeout    time.Duration
	KickedDebounce  time.Duration
	ClosedCountdown time.Duration
	RequestTimeout  time.Duration

	Canvas   Canvas
	Notifier Sender
	Uploader upload.Uploader
	Profile  *reward.Profile
	Now      func() time.Time
}

// OptionsFromConfig copies the sync timings from configuration
func OptionsFromConfig(cfg config.SyncConfig) Options {
	return Options{
		PollInterval:    cfg.PollInterval,
		StuckTimeout:    cfg.StuckTimeout,
		KickedDebounce:  cfg.KickedDebounce,
		ClosedCountdown: cfg.ClosedCountdown,
		RequestTimeout:  cfg.RequestTimeout,
	}
}

func (o *Options) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StuckTimeout <= 0 {
		o.StuckTimeout = DefaultStuckTimeout
	}
	if o.KickedDebounce <= 0 {
		o.KickedDebounce = DefaultKickedDebounce
	}
	if o.ClosedCountdown <= 0 {
		o.ClosedCountdown = DefaultClosedCountdown
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// View is everything the UI renders for the local player
type View struct {
	RoomCode     string           `json:"roomCode"`
	PlayerID     string           `json:"playerId"`
	Screen       phase.Screen     `json:"screen"`
	Role         domain.Role      `json:"role"`
	Status       domain.Status    `json:"status"`
	Round        int              `json:"round"`
	IsHost       bool             `json:"isHost"`
	Deadline     time.Time        `json:"deadline,omitempty"` // zero until the player is ready
	Submission   submit.Display   `json:"submission"`
	Effects      sabotage.Effects `json:"effects"`
	CanForceJoin bool             `json:"canForceJoin"`
	Notice       string           `json:"notice,omitempty"`
	Room         *domain.Room     `json:"-"`
}

// sessionState is the local shadow state of one session. A session is bound
// to one room code and one player id, so a new room or player means a new
// session and a fresh state.
type sessionState struct {
	// Reset only with the session
	last        *phase.Snapshot
	edges       reward.EdgeDetector
	version     int64
	seen        bool
	startedAt   time.Time
	absentSince time.Time

	// Reset on every new round
	round             int
	timerStart        timer.Tracked[time.Time]
	deadline          *timer.Debouncer
	countdown         *timer.Countdown
	sabotageAnnounced bool
	sabotageWritten   bool
	hasCheckedPending bool
	autoSubmitting    bool
	autoSubmitPending bool // a timer submission failed and is retried on a later tick
	autoRetryAt       time.Time
}

func newSessionState(now time.Time) sessionState {
	return sessionState{
		startedAt: now,
		deadline:  timer.NewDebouncer(timer.JitterThreshold),
	}
}

func (st *sessionState) resetRound(round int) {
	st.round = round
	st.resetTimer()
	st.sabotageAnnounced = false
	st.sabotageWritten = false
	st.hasCheckedPending = false
	st.autoSubmitting = false
	st.autoSubmitPending = false
	st.autoRetryAt = time.Time{}
}

// resetTimer also runs on every entry into drawing
func (st *sessionState) resetTimer() {
	st.timerStart.Reset()
	st.deadline.Reset()
	st.countdown = nil
}

type pendingEvent struct {
	typ     EventType
	payload interface{}
}

// Session keeps one player's view of one room in sync with the store
type Session struct {
	store    store.Store
	roomCode string
	player   domain.Player
	opts     Options
	guard    *submit.Guard
	logger   *slog.Logger

	// ctx outlives individual Run calls' requests and bounds background writes
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   sessionState
	room    *domain.Room
	view    View
	profile reward.Profile
	left    bool
	closed  bool
	events  chan *Event
}

// NewSession creates a session for a player who already joined the room
func NewSession(st store.Store, roomCode string, player domain.Player, opts Options, logger *slog.Logger) *Session {
	opts.withDefaults()
	logger = logger.With("roomCode", roomCode, "playerID", player.ID)

	profile := reward.NewProfile()
	if opts.Profile != nil {
		profile = *opts.Profile
		profile.Unlocks = slices.Clone(profile.Unlocks)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:    st,
		roomCode: roomCode,
		player:   player,
		opts:     opts,
		guard:    submit.NewGuard(logger),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		state:    newSessionState(opts.Now()),
		view: View{
			RoomCode:   roomCode,
			PlayerID:   player.ID,
			Screen:     phase.ScreenHome,
			Submission: submit.DisplayDrawing,
		},
		profile: profile,
		events:  make(chan *Event, eventBufferSize),
	}
}

// Events returns the session's event stream. It is closed when Run returns.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// View returns the latest derived view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Profile returns the local player's progression
func (s *Session) Profile() reward.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile
	p.Unlocks = slices.Clone(p.Unlocks)
	return p
}

// Close stops Run and any background writes
func (s *Session) Close() {
	s.cancel()
}

// Run polls the room until ctx ends or the session reaches a terminal state:
// ErrRoomClosed, ErrKicked, ErrRoomUnavailable or ErrLeft. Transient store
// failures are logged and retried on the next tick.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	defer s.shutdown()

	s.logger.Info("session started")

	feed := s.watch(ctx)

	poll := time.NewTicker(s.opts.PollInterval)
	defer poll.Stop()
	tick := time.NewTicker(countdownTick)
	defer tick.Stop()

	if err := s.poll(ctx); err != nil {
		return s.finish(ctx, err)
	}
	for {
		select {
		case <-ctx.Done():
			if s.hasLeft() {
				return ErrLeft
			}
			return ctx.Err()
		case <-poll.C:
			if err := s.poll(ctx); err != nil {
				return s.finish(ctx, err)
			}
		case <-tick.C:
			s.tickCountdown()
		case room, ok := <-feed:
			if !ok {
				s.logger.Debug("snapshot stream ended, polling only")
				feed = nil
				continue
			}
			s.apply(room)
		}
	}
}

// watch subscribes to pushed snapshots when the store supports it
func (s *Session) watch(ctx context.Context) <-chan *domain.Room {
	w, ok := s.store.(store.Watcher)
	if !ok {
		return nil
	}
	feed, err := w.Watch(ctx, s.roomCode)
	if err != nil {
		s.logger.Debug("snapshot stream unavailable, polling only", "error", err)
		return nil
	}
	return feed
}

// poll reads the room, heartbeats and checks for a pending kick
func (s *Session) poll(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	room, err := s.store.Get(reqCtx, s.roomCode)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return ErrRoomClosed
		}
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Debug("poll failed", "error", err)
		return s.checkStuck()
	}
	s.apply(room)

	if err := s.store.Heartbeat(reqCtx, s.roomCode, s.player.ID); err != nil {
		s.logger.Debug("heartbeat failed", "error", err)
	}
	return s.checkKicked(ctx)
}

// checkStuck gives up when no snapshot ever arrived within the stuck timeout
func (s *Session) checkStuck() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.seen && s.opts.Now().Sub(s.state.startedAt) >= s.opts.StuckTimeout {
		return ErrRoomUnavailable
	}
	return nil
}

// checkKicked confirms an absence that outlasted the debounce with a fresh read
func (s *Session) checkKicked(ctx context.Context) error {
	s.mu.Lock()
	since := s.state.absentSince
	s.mu.Unlock()

	if since.IsZero() || s.opts.Now().Sub(since) < s.opts.KickedDebounce {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	room, err := s.store.Get(reqCtx, s.roomCode)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return ErrRoomClosed
		}
		return nil
	}
	if queue.Resolve(room, s.player.ID) == domain.RoleAbsent {
		return ErrKicked
	}
	s.apply(room)
	return nil
}

// finish shows the terminal state for err and returns it
func (s *Session) finish(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrRoomClosed):
		s.logger.Info("room closed by host")
		s.mu.Lock()
		s.view.Notice = "The host ended the game"
		s.state.countdown = nil
		s.emitLocked(EventRoomClosed, &RoomClosedPayload{ReturnIn: s.opts.ClosedCountdown})
		s.mu.Unlock()

		t := time.NewTimer(s.opts.ClosedCountdown)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		s.goHome("The host ended the game", "")
	case errors.Is(err, ErrKicked):
		s.logger.Info("removed from room")
		s.goHome("You were removed from the room", EventKicked)
	case errors.Is(err, ErrRoomUnavailable):
		s.logger.Warn("room data never arrived")
		s.goHome("Couldn't load the room", EventRoomUnavailable)
	}
	return err
}

func (s *Session) goHome(notice string, typ EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.view.Screen
	s.view.Screen = phase.ScreenHome
	s.view.Notice = notice
	s.view.Deadline = time.Time{}
	s.state.countdown = nil
	if prev != phase.ScreenHome {
		s.emitLocked(EventScreenChanged, &ScreenChangedPayload{From: prev, To: phase.ScreenHome})
	}
	if typ != "" {
		s.emitLocked(typ, nil)
	}
}

func (s *Session) shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.state.countdown = nil
		close(s.events)
	}
	s.mu.Unlock()
	s.cancel()
	s.logger.Info("session stopped")
}

func (s *Session) hasLeft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left
}

// apply derives everything from the snapshot. It depends only on the snapshot
// and the session state, never on how the snapshot arrived.
func (s *Session) apply(room *domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	// Polls and the stream can deliver out of order; never step back
	if s.state.seen && room.Version < s.state.version {
		return
	}
	s.state.seen = true
	s.state.version = room.Version
	s.room = room

	id := s.player.ID
	role := queue.Resolve(room, id)
	if role == domain.RoleAbsent {
		// Could be a promotion in flight; checkKicked decides after the debounce
		if s.state.absentSince.IsZero() {
			s.state.absentSince = s.opts.Now()
		}
		return
	}
	s.state.absentSince = time.Time{}

	snap := phase.Of(room, role)
	change := phase.Detect(s.state.last, snap)
	s.state.last = &snap

	var pending []pendingEvent

	if change.RoundChanged {
		s.state.resetRound(room.RoundNumber)
		s.guard.Reset(room.RoundNumber)
		if !change.First && room.RoundNumber > 0 {
			pending = append(pending, pendingEvent{typ: EventRoundStarted})
		}
	}
	if change.Promoted() {
		pending = append(pending, pendingEvent{typ: EventPromoted})
	}
	if change.EnteredDrawing() {
		s.state.resetTimer()
		if s.opts.Canvas != nil {
			s.opts.Canvas.Clear()
		}
		pending = append(pending, pendingEvent{typ: EventCanvasCleared})
	}

	s.notifyLocked(room, role, change)
	pending = append(pending, s.grantLocked(room, role)...)
	pending = append(pending, s.sabotageLocked(room)...)
	s.updateTimerLocked(room, role)

	if role == domain.RoleSpectating && !s.state.hasCheckedPending {
		s.state.hasCheckedPending = true
		pending = append(pending, pendingEvent{typ: EventForceJoinOffered})
	}

	screen, err := phase.ScreenFor(room.Status, role)
	if err != nil {
		s.logger.Warn("no screen for room status", "status", room.Status, "error", err)
		screen = phase.ScreenHome
	}
	prevScreen := s.view.Screen
	s.view = View{
		RoomCode:     s.roomCode,
		PlayerID:     id,
		Screen:       screen,
		Role:         role,
		Status:       room.Status,
		Round:        room.RoundNumber,
		IsHost:       room.IsHost(id),
		Effects:      sabotage.For(room, id),
		CanForceJoin: role.IsWaiting() && room.Status != domain.StatusLobby,
		Room:         room,
	}
	s.syncViewLocked()

	if prevScreen != screen {
		s.emitLocked(EventScreenChanged, &ScreenChangedPayload{From: prevScreen, To: screen})
	}
	for _, ev := range pending {
		s.emitLocked(ev.typ, ev.payload)
	}
	s.emitLocked(EventSnapshot, nil)
}

// syncViewLocked refreshes the parts of the view owned by local state
func (s *Session) syncViewLocked() {
	confirmed := s.room != nil && s.room.State(s.player.ID).HasSubmitted()
	s.view.Submission = s.guard.Display(confirmed)
	s.view.Deadline = time.Time{}
	if s.state.countdown != nil {
		s.view.Deadline = s.state.countdown.Deadline()
	}
}

func (s *Session) refreshView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncViewLocked()
}

// notifyLocked fires the edge-triggered notifications
func (s *Session) notifyLocked(room *domain.Room, role domain.Role, change phase.Change) {
	if s.opts.Notifier == nil || change.First || !change.StatusChanged {
		return
	}

	n := notify.Notification{RoomCode: s.roomCode, PlayerID: s.player.ID, Round: room.RoundNumber}
	switch room.Status {
	case domain.StatusUploading:
		if room.UploaderID != s.player.ID {
			return
		}
		n.Kind, n.Message = notify.KindUploadTurn, "Your turn to pick the image"
	case domain.StatusDrawing:
		if role != domain.RoleActive {
			return
		}
		n.Kind, n.Message = notify.KindDrawingStart, "Start drawing!"
	case domain.StatusVoting:
		n.Kind, n.Message = notify.KindVotingStart, "Time to vote"
	case domain.StatusResults:
		n.Kind, n.Message = notify.KindRoundResults, "Round results are in"
	case domain.StatusFinal:
		n.Kind, n.Message = notify.KindGameOver, "Final scores are in"
	default:
		return
	}
	s.opts.Notifier.Send(n)
}

// grantLocked applies round-end and game-end rewards once per edge
func (s *Session) grantLocked(room *domain.Room, role domain.Role) []pendingEvent {
	edge := s.state.edges.Observe(room.Status, room.RoundNumber)
	if edge == reward.EdgeNone || role != domain.RoleActive {
		return nil
	}

	var g reward.Grant
	switch edge {
	case reward.EdgeRoundEnd:
		g = reward.RoundEnd(&s.profile, room, s.player.ID)
	case reward.EdgeGameEnd:
		g = reward.GameEnd(&s.profile, room, s.player.ID)
	}
	s.logger.Info("rewards granted", "kind", g.Kind, "xp", g.XP, "won", g.Won, "level", g.Level)

	profile := s.profile
	profile.Unlocks = slices.Clone(profile.Unlocks)
	s.writeAsync("publish profile", reward.Publish(s.player.ID, profile), nil)

	return []pendingEvent{{typ: EventRewardsGranted, payload: &RewardsPayload{Grant: g, Profile: profile}}}
}

// sabotageLocked announces the effect to its target once and records the
// trigger on the room so a refreshed client does not announce it again.
func (s *Session) sabotageLocked(room *domain.Room) []pendingEvent {
	if !sabotage.NeedsTrigger(room, s.player.ID) {
		return nil
	}

	var pending []pendingEvent
	if !s.state.sabotageAnnounced {
		s.state.sabotageAnnounced = true
		pending = append(pending, pendingEvent{
			typ:     EventSabotaged,
			payload: &SabotagedPayload{Effects: sabotage.For(room, s.player.ID)},
		})
	}
	if !s.state.sabotageWritten {
		s.state.sabotageWritten = true
		s.writeAsync("trigger sabotage", sabotage.Trigger(s.player.ID), func() {
			s.mu.Lock()
			s.state.sabotageWritten = false
			s.mu.Unlock()
		})
	}
	return pending
}

// updateTimerLocked recomputes the deadline and keeps one countdown per drawing phase
func (s *Session) updateTimerLocked(room *domain.Room, role domain.Role) {
	st := room.State(s.player.ID)
	if room.Status != domain.StatusDrawing || role != domain.RoleActive || st.HasSubmitted() {
		s.state.countdown = nil
		return
	}
	if st.TimerStartedAt != nil {
		s.state.timerStart.Confirm(*st.TimerStartedAt)
	}

	deadline, ok := timer.Deadline(room, s.player.ID, s.state.timerStart)
	if !ok {
		return
	}
	shown := s.state.deadline.Update(deadline)
	if s.state.countdown == nil {
		s.state.countdown = timer.NewCountdown(shown, s.expire, s.opts.Now)
		return
	}
	s.state.countdown.SetDeadline(shown)
}

func (s *Session) tickCountdown() {
	s.mu.Lock()
	c := s.state.countdown
	retry := s.autoRetryDueLocked()
	s.mu.Unlock()
	if retry {
		s.expire()
		return
	}
	if c != nil {
		c.Tick()
	}
}

// autoRetryDueLocked reports whether a failed timer submission should go out again
func (s *Session) autoRetryDueLocked() bool {
	if !s.state.autoSubmitPending || s.state.autoSubmitting || s.room == nil {
		return false
	}
	if s.room.Status != domain.StatusDrawing || !s.room.IsActive(s.player.ID) {
		return false
	}
	if s.room.State(s.player.ID).HasSubmitted() {
		s.state.autoSubmitPending = false
		return false
	}
	return !s.opts.Now().Before(s.state.autoRetryAt)
}

// expire runs when the countdown fires; the submission goes out in the background
func (s *Session) expire() {
	s.mu.Lock()
	if s.state.autoSubmitting {
		s.mu.Unlock()
		return
	}
	s.state.autoSubmitting = true
	round := s.state.round
	s.mu.Unlock()

	go s.autoSubmit(round)
}

func (s *Session) autoSubmit(round int) {
	err := s.submit(s.ctx, "auto submit")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.round != round {
		return
	}
	s.state.autoSubmitting = false
	s.state.autoSubmitPending = err != nil
	if err != nil {
		s.state.autoRetryAt = s.opts.Now().Add(s.opts.PollInterval)
		s.logger.Warn("auto submit failed", "error", err)
		s.emitLocked(EventSubmissionFailed, err)
	}
}

// writeAsync applies fn in the background without blocking the poll loop
func (s *Session) writeAsync(op string, fn domain.Transform, onErr func()) {
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.RequestTimeout)
		defer cancel()

		room, err := s.store.Update(ctx, s.roomCode, fn)
		if err != nil {
			s.logger.Debug("background write failed", "op", op, "error", err)
			if onErr != nil {
				onErr()
			}
			return
		}
		s.apply(room)
	}()
}

// emitLocked queues an event without blocking; a full queue drops it
func (s *Session) emitLocked(typ EventType, payload interface{}) {
	if s.closed {
		return
	}
	ev := &Event{
		Type:      typ,
		RoomCode:  s.roomCode,
		View:      s.view,
		Payload:   payload,
		Timestamp: s.opts.Now(),
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event queue full, dropping event", "type", typ)
	}
}
