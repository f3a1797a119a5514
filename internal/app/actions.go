package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"doodleduel/internal/domain"
	"doodleduel/internal/game"
	"doodleduel/internal/queue"
	"doodleduel/internal/store"
)

// ErrNoUploader is returned by UploadImage when the session has no uploader
var ErrNoUploader = errors.New("image uploads are not configured")

// CreateRoom creates a lobby hosted by host and returns its code
func CreateRoom(ctx context.Context, st store.Store, host domain.Player, settings domain.Settings) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", newActionError("create room", err)
	}
	code, err := st.Create(ctx, domain.NewRoom(host, settings))
	if err != nil {
		return "", newActionError("create room", err)
	}
	return code, nil
}

// JoinRoom adds player to the room. Outside the lobby the player waits for
// the next round.
func JoinRoom(ctx context.Context, st store.Store, code string, player domain.Player) (*domain.Room, error) {
	room, err := st.Update(ctx, code, queue.Join(player))
	if err != nil {
		return nil, newActionError("join room", err)
	}
	return room, nil
}

// Start begins the game (host only)
func (s *Session) Start(ctx context.Context) error {
	return s.act(ctx, "start game", game.StartGame(s.player.ID))
}

// UpdateSettings changes the lobby settings (host only)
func (s *Session) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return s.act(ctx, "update settings", game.UpdateSettings(s.player.ID, settings))
}

// Kick removes another player (host only)
func (s *Session) Kick(ctx context.Context, targetID string) error {
	return s.act(ctx, "kick player", game.Kick(s.player.ID, targetID))
}

// ChooseImage sets an already hosted reference image
func (s *Session) ChooseImage(ctx context.Context, imageURL string) error {
	return s.act(ctx, "choose image", game.SubmitImage(s.player.ID, imageURL))
}

// UploadImage stores the image through the uploader and uses it as the
// round's reference image.
func (s *Session) UploadImage(ctx context.Context, name string, r io.Reader) error {
	if s.opts.Uploader == nil {
		return newActionError("upload image", ErrNoUploader)
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	url, err := s.opts.Uploader.ProcessAndStoreImage(reqCtx, name, r)
	if err != nil {
		return newActionError("upload image", err)
	}
	return s.ChooseImage(ctx, url)
}

// SelectSabotage picks the target and effect for this round (saboteur only)
func (s *Session) SelectSabotage(ctx context.Context, targetID string, effect domain.SabotageEffect) error {
	return s.act(ctx, "select sabotage", game.SelectSabotage(s.player.ID, targetID, effect))
}

// SkipSabotage passes on sabotage this round
func (s *Session) SkipSabotage(ctx context.Context) error {
	return s.act(ctx, "skip sabotage", game.SkipSabotage(s.player.ID))
}

// Ready starts the local countdown right away and confirms the start on the
// room. If the write fails the optimistic start is rolled back.
func (s *Session) Ready(ctx context.Context) error {
	now := s.opts.Now()

	s.mu.Lock()
	s.state.timerStart.SetOptimistic(now)
	if s.room != nil {
		s.updateTimerLocked(s.room, queue.Resolve(s.room, s.player.ID))
		s.syncViewLocked()
	}
	s.mu.Unlock()

	room, err := s.update(ctx, game.Ready(s.player.ID, now))
	if err != nil {
		s.mu.Lock()
		s.state.timerStart.Rollback()
		if _, ok := s.state.timerStart.Resolve(); !ok {
			s.state.deadline.Reset()
			s.state.countdown = nil
		}
		s.syncViewLocked()
		s.mu.Unlock()
		return newActionError("ready", err)
	}
	s.apply(room)
	return nil
}

// SubmitDrawing sends the canvas. Concurrent calls and a racing timer expiry
// collapse into one transmission.
func (s *Session) SubmitDrawing(ctx context.Context) error {
	return s.submit(ctx, "submit drawing")
}

// Done is the player finishing before the timer runs out
func (s *Session) Done(ctx context.Context) error {
	return s.submit(ctx, "done")
}

func (s *Session) submit(ctx context.Context, op string) error {
	s.mu.Lock()
	confirmed := s.room != nil && s.room.State(s.player.ID).HasSubmitted()
	s.mu.Unlock()

	sent, err := s.guard.Submit(ctx, confirmed, func(ctx context.Context) error {
		var drawing string
		if s.opts.Canvas != nil {
			var err error
			if drawing, err = s.opts.Canvas.Export(); err != nil {
				return fmt.Errorf("export canvas: %w", err)
			}
		}
		room, err := s.update(ctx, game.SubmitDrawing(s.player.ID, drawing))
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			return nil
		}
		if err != nil {
			return err
		}
		s.apply(room)
		return nil
	})
	s.refreshView()
	if err != nil {
		s.logger.Warn("submission failed", "op", op, "error", err)
		return newActionError(op, err)
	}
	if sent {
		s.logger.Info("drawing submitted", "op", op)
	}
	return nil
}

// Vote picks another player's drawing
func (s *Session) Vote(ctx context.Context, targetID string) error {
	return s.act(ctx, "vote", game.CastVote(s.player.ID, targetID))
}

// EndDrawing closes drawing for everyone (host only)
func (s *Session) EndDrawing(ctx context.Context) error {
	return s.act(ctx, "end drawing", game.EndDrawing(s.player.ID))
}

// CloseVoting tallies the round without waiting for missing votes (host only)
func (s *Session) CloseVoting(ctx context.Context) error {
	return s.act(ctx, "close voting", game.CloseVoting(s.player.ID))
}

// Advance moves from results to the next round or the final ranking (host only)
func (s *Session) Advance(ctx context.Context) error {
	return s.act(ctx, "next round", game.Advance(s.player.ID))
}

// ShowRewards moves to the rewards recap (host only)
func (s *Session) ShowRewards(ctx context.Context) error {
	return s.act(ctx, "show rewards", game.ShowRewards(s.player.ID))
}

// ReturnToLobby resets the room for another game (host only)
func (s *Session) ReturnToLobby(ctx context.Context) error {
	return s.act(ctx, "return to lobby", game.ReturnToLobby(s.player.ID))
}

// ForceJoin enters the running round instead of waiting for the next one
func (s *Session) ForceJoin(ctx context.Context) error {
	return s.act(ctx, "join round", queue.ForceJoin(s.player.ID))
}

// Leave removes the player from the room and stops the session
func (s *Session) Leave(ctx context.Context) error {
	if err := s.act(ctx, "leave room", game.Leave(s.player.ID)); err != nil {
		return err
	}
	s.mu.Lock()
	s.left = true
	s.mu.Unlock()
	s.cancel()
	return nil
}

// EndGame deletes the room for everyone (host only)
func (s *Session) EndGame(ctx context.Context) error {
	s.mu.Lock()
	isHost := s.room != nil && s.room.IsHost(s.player.ID)
	s.mu.Unlock()
	if !isHost {
		return newActionError("end game", domain.ErrNotHost)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	if err := s.store.Delete(reqCtx, s.roomCode); err != nil {
		return newActionError("end game", err)
	}
	s.logger.Info("game ended by host")
	return nil
}

// act writes fn and applies the resulting snapshot right away
func (s *Session) act(ctx context.Context, op string, fn domain.Transform) error {
	room, err := s.update(ctx, fn)
	if err != nil {
		s.logger.Debug("action failed", "op", op, "error", err)
		return newActionError(op, err)
	}
	s.apply(room)
	return nil
}

func (s *Session) update(ctx context.Context, fn domain.Transform) (*domain.Room, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	return s.store.Update(reqCtx, s.roomCode, fn)
}
