// Command player joins a room on a doodleduel host and follows the game from
// the terminal. With -bot it also plays: it picks images, readies up, votes
// and, as host, drives the rounds forward.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"doodleduel/internal/app"
	"doodleduel/internal/config"
	"doodleduel/internal/domain"
	"doodleduel/internal/notify"
	"doodleduel/internal/phase"
	"doodleduel/internal/store/remote"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "room host base URL")
	roomCode := flag.String("room", "", "room code to join; empty creates a room")
	name := flag.String("name", "", "display name; random when empty")
	image := flag.String("image", "https://picsum.photos/512", "reference image URL or local file for upload turns")
	rounds := flag.Int("rounds", domain.DefaultTotalRounds, "rounds per game when creating a room")
	bot := flag.Bool("bot", false, "play automatically")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *name == "" {
		*name = app.RandomName()
	}
	player := domain.NewPlayer(uuid.NewString(), *name)
	client := remote.NewClient(*serverURL, nil, logger)

	code := strings.ToUpper(strings.TrimSpace(*roomCode))
	if code == "" {
		settings := domain.DefaultSettings()
		settings.TotalRounds = *rounds
		code, err = app.CreateRoom(ctx, client, player, settings)
		if err != nil {
			logger.Error("failed to create room", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Room %s created, invite others with -room %s\n", code, code)
	} else if _, err := app.JoinRoom(ctx, client, code, player); err != nil {
		logger.Error("failed to join room", "roomCode", code, "error", err)
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(notify.LogNotifier{Logger: logger}, logger)
	defer dispatcher.Close()

	opts := app.OptionsFromConfig(cfg.Sync)
	opts.Notifier = dispatcher
	opts.Uploader = client
	opts.Canvas = &scribble{}
	session := app.NewSession(client, code, player, opts, logger)

	p := &autoPlayer{session: session, me: player.ID, image: *image, bot: *bot, logger: logger}
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.follow(ctx)
	}()

	err = session.Run(ctx)
	<-done

	switch {
	case errors.Is(err, app.ErrRoomClosed), errors.Is(err, app.ErrLeft), errors.Is(err, context.Canceled):
		fmt.Println("Bye!")
	case errors.Is(err, app.ErrKicked):
		fmt.Println("You were removed from the room")
	default:
		logger.Error("session ended", "error", err)
		os.Exit(1)
	}
}

// scribble stands in for a real canvas
type scribble struct {
	mu      sync.Mutex
	strokes int
}

func (s *scribble) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = 0
}

func (s *scribble) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes++
	return fmt.Sprintf("data:text/plain,scribble-%d", s.strokes), nil
}

type autoPlayer struct {
	session *app.Session
	me      string
	image   string
	bot     bool
	logger  *slog.Logger

	acted map[string]bool
}

// follow prints screen changes and, as a bot, acts once per phase
func (p *autoPlayer) follow(ctx context.Context) {
	p.acted = make(map[string]bool)
	for ev := range p.session.Events() {
		switch ev.Type {
		case app.EventScreenChanged:
			fmt.Printf("[%s] round %d: %s\n", ev.RoomCode, ev.View.Round, ev.View.Screen)
		case app.EventRewardsGranted:
			if r, ok := ev.Payload.(*app.RewardsPayload); ok {
				fmt.Printf("+%d XP (level %d)\n", r.Grant.XP, r.Grant.Level)
			}
		case app.EventSabotaged:
			fmt.Println("You've been sabotaged!")
		case app.EventSubmissionFailed:
			fmt.Println("Submission failed, retrying on the next tick")
		case app.EventSnapshot:
			if p.bot {
				p.act(ctx, ev.View)
			}
		}
	}
}

func (p *autoPlayer) act(ctx context.Context, v app.View) {
	room := v.Room
	if room == nil || v.Role != domain.RoleActive {
		if v.CanForceJoin && p.once(v, "force-join") {
			p.check("join round", p.session.ForceJoin(ctx))
		}
		return
	}

	switch v.Screen {
	case phase.ScreenLobby:
		if v.IsHost && len(room.Players)+len(room.WaitingPlayers) >= domain.MinPlayers &&
			p.once(v, fmt.Sprintf("start-%d", len(room.Players))) {
			p.check("start", p.session.Start(ctx))
		}
	case phase.ScreenUpload:
		if room.UploaderID == p.me && p.once(v, "upload") {
			p.check("upload", p.chooseImage(ctx))
		}
	case phase.ScreenSabotage:
		if room.SaboteurID == p.me && p.once(v, "sabotage") {
			target := p.other(room)
			effect := domain.SabotageEffect{Type: domain.EffectReduceColors, Intensity: 5}
			p.check("sabotage", p.session.SelectSabotage(ctx, target, effect))
		}
	case phase.ScreenDrawing:
		if v.Deadline.IsZero() && p.once(v, "ready") {
			p.check("ready", p.session.Ready(ctx))
		}
	case phase.ScreenVoting:
		if _, voted := room.Votes[p.me]; !voted && p.once(v, "vote") {
			p.check("vote", p.session.Vote(ctx, p.other(room)))
		}
	case phase.ScreenResults:
		if v.IsHost && p.once(v, "advance") {
			p.check("advance", p.session.Advance(ctx))
		}
	case phase.ScreenFinal:
		if v.IsHost && p.once(v, "end") {
			p.check("end game", p.session.EndGame(ctx))
		}
	}
}

func (p *autoPlayer) chooseImage(ctx context.Context) error {
	if strings.HasPrefix(p.image, "http://") || strings.HasPrefix(p.image, "https://") {
		return p.session.ChooseImage(ctx, p.image)
	}
	f, err := os.Open(p.image)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.session.UploadImage(ctx, filepath.Base(p.image), f)
}

// once reports whether the action has not run yet in this phase of this round
func (p *autoPlayer) once(v app.View, action string) bool {
	key := fmt.Sprintf("%s/%d/%s", v.Status, v.Round, action)
	if p.acted[key] {
		return false
	}
	p.acted[key] = true
	return true
}

// other returns the first active player who is not the bot
func (p *autoPlayer) other(room *domain.Room) string {
	for _, pl := range room.Players {
		if pl.ID != p.me {
			return pl.ID
		}
	}
	return ""
}

func (p *autoPlayer) check(op string, err error) {
	if err == nil {
		return
	}
	var ae *app.ActionError
	if errors.As(err, &ae) {
		fmt.Printf("%s: %s\n", op, ae.Message)
		return
	}
	p.logger.Warn("action failed", "op", op, "error", err)
}
