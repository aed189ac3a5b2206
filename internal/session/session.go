// Package session is the top-level controller for one crowd-voted game. It
// reacts to transport events, drives the voting rounds and the opponent
// watchdog, and emits outbound commands. Handlers run to completion under a
// single mutex, so round/ledger/game state never sees interleaved updates.
package session

import (
    "context"
    "math/rand"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/park285/crowd-chess-bot/internal/gamelog"
    "github.com/park285/crowd-chess-bot/internal/ledger"
    "github.com/park285/crowd-chess-bot/internal/msgcat"
    "github.com/park285/crowd-chess-bot/internal/oracle"
    "github.com/park285/crowd-chess-bot/internal/transport"
    "github.com/park285/crowd-chess-bot/internal/vote"
)

// State is the controller's lifecycle phase.
type State string

const (
    StateIdle              State = "idle"
    StateWaitingOnOpponent State = "waiting_on_opponent"
    StateCollectingVotes   State = "collecting_votes"
)

// Moderation is the external ban/moderator collaborator.
type Moderation interface {
    IsBanned(ctx context.Context, user string) (bool, error)
    IsModerator(ctx context.Context, user string) (bool, error)
    Ban(ctx context.Context, user string) error
    Unban(ctx context.Context, user string) error
    Promote(ctx context.Context, user string) error
}

// GameSink receives finished games for persistence.
type GameSink interface {
    SaveResult(ctx context.Context, rec *gamelog.Record) error
}

// Config carries the voting window and the challenge-acceptance policy.
type Config struct {
    BotID        string
    VotingWindow time.Duration // default 15s
    AbortAfter   time.Duration // default 60s

    AllowedVariants []string
    MinIncrement    int
    MinBase         int
    SpeedClass      string
}

// Deps are injected collaborators. Commander is required; the rest default
// to inert implementations.
type Deps struct {
    Commander  transport.Commander
    Moderation Moderation
    Catalog    *msgcat.Catalog
    Sink       GameSink
    RNG        *rand.Rand
    Logger     *zap.Logger
}

// Game is the active contest owned by the session.
type Game struct {
    ID        string
    Variant   string
    Color     oracle.Side
    WhiteID   string
    BlackID   string
    Resigned  bool
    StartedAt time.Time
}

type Session struct {
    mu   sync.Mutex
    cfg  Config
    cmd  transport.Commander
    mods Moderation
    cat  *msgcat.Catalog
    sink GameSink
    rng  *rand.Rand
    log  *zap.Logger

    state State
    game  *Game
    board *oracle.Board
    votes *ledger.Ledger

    roundTimer *oneshot
    abortWatch *oneshot
    roundID    string
    voters     map[string]struct{}

    // set once per consecutive streak of empty rounds, cleared only when a
    // round finally resolves
    noVoteNoticeSent bool

    queue         []transport.ChallengeEvent
    awaitingStart bool
}

func New(cfg Config, d Deps) *Session {
    if cfg.VotingWindow <= 0 {
        cfg.VotingWindow = 15 * time.Second
    }
    if cfg.AbortAfter <= 0 {
        cfg.AbortAfter = 60 * time.Second
    }
    if d.RNG == nil {
        d.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
    }
    if d.Logger == nil {
        d.Logger = zap.NewNop()
    }
    s := &Session{
        cfg:   cfg,
        cmd:   d.Commander,
        mods:  d.Moderation,
        cat:   d.Catalog,
        sink:  d.Sink,
        rng:   d.RNG,
        log:   d.Logger,
        state: StateIdle,
        votes: ledger.New(),
    }
    s.roundTimer = newOneshot(s.onRoundExpire)
    s.abortWatch = newOneshot(s.onAbortExpire)
    return s
}

func (s *Session) State() State {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.state
}

// HandleChallenge accepts, declines, or queues an incoming challenge.
func (s *Session) HandleChallenge(ev transport.ChallengeEvent) {
    if !s.acceptable(ev) {
        s.log.Info("challenge_declined", zap.String("id", ev.ID), zap.String("variant", ev.Variant), zap.Bool("rated", ev.Rated))
        if err := s.cmd.DeclineChallenge(context.Background(), ev.ID); err != nil {
            s.log.Warn("challenge_decline_error", zap.String("id", ev.ID), zap.Error(err))
        }
        return
    }
    s.mu.Lock()
    if s.game != nil || s.awaitingStart {
        s.queue = append(s.queue, ev)
        s.mu.Unlock()
        s.log.Info("challenge_queued", zap.String("id", ev.ID), zap.String("from", ev.Challenger))
        return
    }
    s.awaitingStart = true
    s.mu.Unlock()
    // accept runs off the event loop so a slow accept cannot stall other events
    go s.accept(ev)
}

func (s *Session) accept(ev transport.ChallengeEvent) {
    err := s.cmd.AcceptChallenge(context.Background(), ev.ID)
    if err == nil {
        s.log.Info("challenge_accepted", zap.String("id", ev.ID), zap.String("from", ev.Challenger))
        return
    }
    s.log.Warn("challenge_accept_error", zap.String("id", ev.ID), zap.Error(err))
    s.mu.Lock()
    s.awaitingStart = false
    next, ok := s.popQueueLocked()
    if ok {
        s.awaitingStart = true
    }
    s.mu.Unlock()
    if ok {
        s.accept(next)
    }
}

func (s *Session) popQueueLocked() (transport.ChallengeEvent, bool) {
    if len(s.queue) == 0 {
        return transport.ChallengeEvent{}, false
    }
    next := s.queue[0]
    s.queue = s.queue[1:]
    return next, true
}

func (s *Session) acceptable(ev transport.ChallengeEvent) bool {
    if ev.Rated {
        return false
    }
    variantOK := false
    for _, v := range s.cfg.AllowedVariants {
        if strings.EqualFold(v, ev.Variant) {
            variantOK = true
            break
        }
    }
    if !variantOK {
        return false
    }
    if !strings.EqualFold(ev.TimeControlType, "clock") {
        return false
    }
    if !strings.EqualFold(ev.Speed, s.cfg.SpeedClass) {
        return false
    }
    return ev.Increment >= s.cfg.MinIncrement && ev.BaseLimit >= s.cfg.MinBase
}

// HandleGameStart initializes the game and the position oracle, replaying
// any history already played (reconnect), and arms whichever trigger matches
// whose turn it is.
func (s *Session) HandleGameStart(ev transport.GameStartEvent) {
    board := oracle.New()
    if len(ev.Moves) > 0 {
        if err := board.Replay(ev.Moves); err != nil {
            s.log.Error("game_start_replay_error", zap.String("game_id", ev.GameID), zap.Error(err))
            return
        }
    }
    color := oracle.White
    if strings.EqualFold(ev.BlackID, s.cfg.BotID) {
        color = oracle.Black
    }

    s.mu.Lock()
    s.awaitingStart = false
    s.game = &Game{
        ID:        ev.GameID,
        Variant:   ev.Variant,
        Color:     color,
        WhiteID:   ev.WhiteID,
        BlackID:   ev.BlackID,
        StartedAt: time.Now(),
    }
    s.board = board
    s.votes.Clear()
    s.voters = make(map[string]struct{})
    s.noVoteNoticeSent = false
    s.log.Info("game_start",
        zap.String("game_id", ev.GameID),
        zap.String("variant", ev.Variant),
        zap.String("color", string(color)),
        zap.Int("prior_moves", board.MoveCount()),
    )
    s.sendChatLocked(s.render("vote.instructions", nil))
    if board.GameOver() {
        s.endGameLocked("finished")
        s.mu.Unlock()
        return
    }
    if board.Turn() == color {
        s.announceRoundLocked()
        s.openRoundLocked()
    } else {
        s.armAbortLocked()
    }
    s.mu.Unlock()
}

// HandleGameState reacts to a game update. Only updates that hand the bot
// the move are applied; everything else is ignored as stale.
func (s *Session) HandleGameState(ev transport.GameStateEvent) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.game == nil {
        return
    }
    if ev.GameID != "" && ev.GameID != s.game.ID {
        return
    }
    if terminalStatus(ev.Status) {
        s.log.Info("game_end_remote", zap.String("game_id", s.game.ID), zap.String("status", ev.Status))
        s.endGameLocked(ev.Status)
        return
    }

    total := len(ev.Moves)
    have := s.board.MoveCount()
    if total <= have {
        return
    }
    toMove := oracle.White
    if total%2 == 1 {
        toMove = oracle.Black
    }
    if toMove != s.game.Color {
        return
    }

    s.abortWatch.Stop()
    if total < 2 {
        // the first update can race the game-end detection; keep the
        // watchdog armed until a real exchange exists
        s.abortWatch.Arm(s.cfg.AbortAfter)
    }
    for _, mv := range ev.Moves[have:] {
        if _, err := s.board.Apply(mv); err != nil {
            s.log.Error("state_apply_error", zap.String("game_id", s.game.ID), zap.String("move", mv), zap.Error(err))
            return
        }
    }
    if s.board.GameOver() {
        s.log.Info("game_end_on_board", zap.String("game_id", s.game.ID))
        s.endGameLocked("finished")
        return
    }
    s.announceRoundLocked()
    s.openRoundLocked()
}

// HandleChat routes spectator chat: moderator commands to the moderation
// collaborator, everything else into the vote ledger while the bot is on
// move.
func (s *Session) HandleChat(ev transport.ChatEvent) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.game == nil || ev.Room != transport.RoomSpectator {
        return
    }
    user := strings.TrimSpace(ev.Username)
    text := strings.TrimSpace(ev.Text)
    if user == "" || text == "" {
        return
    }
    ctx := context.Background()
    if s.mods != nil {
        if isMod, _ := s.mods.IsModerator(ctx, user); isMod && strings.HasPrefix(text, "!") {
            s.handleModCommandLocked(user, text)
            return
        }
        if banned, _ := s.mods.IsBanned(ctx, user); banned {
            s.log.Debug("vote_from_banned", zap.String("user", user))
            return
        }
    }
    if s.board.Turn() != s.game.Color {
        s.log.Debug("vote_while_waiting_on_opponent", zap.String("user", user), zap.String("text", text))
        return
    }
    s.votes.Record(user, text)
    if s.voters != nil {
        s.voters[user] = struct{}{}
    }
    s.log.Debug("vote_recorded", zap.String("round", s.roundID), zap.String("user", user), zap.String("text", text))
}

func (s *Session) handleModCommandLocked(mod, text string) {
    fields := strings.Fields(strings.TrimPrefix(text, "!"))
    if len(fields) < 2 {
        return
    }
    cmd, target := strings.ToLower(fields[0]), fields[1]
    ctx := context.Background()
    var err error
    var noticeKey string
    switch cmd {
    case "ban":
        err = s.mods.Ban(ctx, target)
        noticeKey = "mod.banned"
    case "unban":
        err = s.mods.Unban(ctx, target)
        noticeKey = "mod.unbanned"
    case "promote":
        err = s.mods.Promote(ctx, target)
        noticeKey = "mod.promoted"
    default:
        return
    }
    if err != nil {
        s.log.Warn("mod_command_error", zap.String("mod", mod), zap.String("cmd", cmd), zap.String("target", target), zap.Error(err))
        return
    }
    s.log.Info("mod_command", zap.String("mod", mod), zap.String("cmd", cmd), zap.String("target", target))
    s.sendChatLocked(s.render(noticeKey, map[string]any{"User": target}))
}

// onRoundExpire resolves the round. An unusable round is reopened with a
// fresh deadline instead of committing anything.
func (s *Session) onRoundExpire() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.game == nil || s.state != StateCollectingVotes {
        return
    }
    out := vote.Resolve(s.votes.Snapshot(), s.board, s.rng)
    if out == nil {
        if !s.noVoteNoticeSent {
            s.noVoteNoticeSent = true
            s.sendChatLocked(s.render("vote.waiting", nil))
        }
        s.log.Debug("round_empty", zap.String("round", s.roundID), zap.Int("ballots", s.votes.Len()))
        s.roundTimer.Arm(s.cfg.VotingWindow)
        return
    }

    s.noVoteNoticeSent = false
    voters := s.votes.Len()
    s.votes.Clear()
    ctx := context.Background()

    if out.Action == vote.ActionResign {
        s.log.Info("round_resign", zap.String("round", s.roundID), zap.Int("votes", out.Votes))
        if err := s.cmd.Resign(ctx, s.game.ID); err != nil {
            s.log.Error("resign_error", zap.String("game_id", s.game.ID), zap.Error(err))
        }
        s.sendChatLocked(s.render("vote.resign", nil))
        s.game.Resigned = true
        s.endGameLocked("resigned")
        return
    }

    mv, err := transport.MoveFromUCI(out.UCI)
    if err != nil {
        s.log.Error("descriptor_error", zap.String("uci", out.UCI), zap.Error(err))
        s.roundTimer.Arm(s.cfg.VotingWindow)
        return
    }
    if err := s.cmd.MakeMove(ctx, s.game.ID, mv); err != nil {
        s.log.Error("move_error", zap.String("game_id", s.game.ID), zap.String("uci", out.UCI), zap.Error(err))
        s.roundTimer.Arm(s.cfg.VotingWindow)
        return
    }
    if _, err := s.board.Apply(out.SAN); err != nil {
        // the remote accepted the move, so the oracle must be desynced
        s.log.Error("oracle_advance_error", zap.String("san", out.SAN), zap.Error(err))
    }
    s.log.Info("round_committed",
        zap.String("round", s.roundID),
        zap.String("san", out.SAN),
        zap.String("uci", out.UCI),
        zap.Int("votes", out.Votes),
        zap.Int("ballots", voters),
    )
    s.sendChatLocked(s.render("vote.move", map[string]any{"SAN": out.SAN, "Votes": out.Votes}))
    if s.board.GameOver() {
        // terminal by our own move; the remote end event closes the game
        s.roundTimer.Stop()
        s.abortWatch.Stop()
        s.state = StateWaitingOnOpponent
        return
    }
    s.armAbortLocked()
}

// onAbortExpire fires when the opponent never moved.
func (s *Session) onAbortExpire() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.game == nil || s.state != StateWaitingOnOpponent {
        return
    }
    s.log.Warn("opponent_timeout", zap.String("game_id", s.game.ID))
    if err := s.cmd.Abort(context.Background(), s.game.ID); err != nil {
        s.log.Error("abort_error", zap.String("game_id", s.game.ID), zap.Error(err))
    }
    s.sendChatLocked(s.render("game.abort", nil))
    s.endGameLocked("aborted")
}

func (s *Session) openRoundLocked() {
    // a round and the abort watch are never armed together
    s.abortWatch.Stop()
    s.roundID = uuid.NewString()[:8]
    s.roundTimer.Arm(s.cfg.VotingWindow)
    s.state = StateCollectingVotes
    s.log.Debug("round_open", zap.String("round", s.roundID), zap.Duration("window", s.cfg.VotingWindow))
}

func (s *Session) armAbortLocked() {
    s.roundTimer.Stop()
    s.abortWatch.Arm(s.cfg.AbortAfter)
    s.state = StateWaitingOnOpponent
}

func (s *Session) announceRoundLocked() {
    s.sendChatLocked(s.render("vote.round_open", map[string]any{"Seconds": int(s.cfg.VotingWindow / time.Second)}))
}

func (s *Session) endGameLocked(reason string) {
    s.roundTimer.Stop()
    s.abortWatch.Stop()
    g, b := s.game, s.board
    s.game, s.board = nil, nil
    s.votes.Clear()
    s.noVoteNoticeSent = false
    s.state = StateIdle
    if g != nil {
        s.log.Info("game_end", zap.String("game_id", g.ID), zap.String("reason", reason))
    }
    if s.sink != nil && g != nil && b != nil {
        rec := &gamelog.Record{
            GameID:    g.ID,
            Variant:   g.Variant,
            BotColor:  string(g.Color),
            Result:    gameResult(g, b),
            Method:    reason,
            MovesUCI:  b.MovesUCI(),
            MovesSAN:  b.MovesSAN(),
            Voters:    len(s.voters),
            StartedAt: g.StartedAt,
            EndedAt:   time.Now(),
        }
        go func() {
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            if err := s.sink.SaveResult(ctx, rec); err != nil {
                s.log.Error("gamelog_error", zap.String("game_id", rec.GameID), zap.Error(err))
            }
        }()
    }
    s.voters = nil
    if !s.awaitingStart {
        if next, ok := s.popQueueLocked(); ok {
            s.awaitingStart = true
            go s.accept(next)
        }
    }
}

func gameResult(g *Game, b *oracle.Board) string {
    if g.Resigned {
        if g.Color == oracle.White {
            return "black"
        }
        return "white"
    }
    return b.Outcome()
}

func (s *Session) sendChatLocked(text string) {
    if s.game == nil || strings.TrimSpace(text) == "" {
        return
    }
    if err := s.cmd.SendChat(context.Background(), s.game.ID, transport.RoomSpectator, text); err != nil {
        s.log.Warn("chat_error", zap.String("game_id", s.game.ID), zap.Error(err))
    }
}

// render falls back to the bare key when the catalog is absent or the
// template fails, so a broken override never silences the bot.
func (s *Session) render(key string, data map[string]any) string {
    if s.cat == nil {
        return key
    }
    out, err := s.cat.Render(key, data)
    if err != nil {
        s.log.Warn("msgcat_error", zap.String("key", key), zap.Error(err))
        return key
    }
    return out
}

func terminalStatus(status string) bool {
    switch strings.ToLower(strings.TrimSpace(status)) {
    case "", "created", "started":
        return false
    }
    return true
}
