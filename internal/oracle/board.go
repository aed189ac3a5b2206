package oracle

import (
    "fmt"
    "strings"

    nchess "github.com/corentings/chess/v2"
)

// Side identifies a chess color.
type Side string

const (
    White Side = "white"
    Black Side = "black"
)

// MoveResult is the canonical form of an applied move.
type MoveResult struct {
    SAN string
    UCI string
}

// Board tracks the authoritative position for the active game. It accepts
// moves in either UCI or algebraic notation and reports the canonical form
// of whatever it applied. Undo rebuilds from the recorded UCI history.
type Board struct {
    game *nchess.Game
    uci  []string
    san  []string
}

func New() *Board {
    return &Board{game: nchess.NewGame()}
}

// Replay rebuilds the board from a full recorded move list, e.g. when
// (re)connecting to an in-progress game.
func (b *Board) Replay(moves []string) error {
    fresh := nchess.NewGame()
    uci := make([]string, 0, len(moves))
    san := make([]string, 0, len(moves))
    for _, mv := range moves {
        pos := fresh.Position()
        res, err := push(fresh, pos, mv)
        if err != nil {
            return fmt.Errorf("replay %q: %w", mv, err)
        }
        uci = append(uci, res.UCI)
        san = append(san, res.SAN)
    }
    b.game, b.uci, b.san = fresh, uci, san
    return nil
}

// Apply plays a single move given in UCI or algebraic notation and returns
// its canonical SAN and UCI forms. The input is parsed leniently so that
// textual variants of the same move collapse to one canonical result.
func (b *Board) Apply(raw string) (*MoveResult, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return nil, fmt.Errorf("empty move")
    }
    pos := b.game.Position()
    res, err := push(b.game, pos, raw)
    if err != nil {
        return nil, err
    }
    b.uci = append(b.uci, res.UCI)
    b.san = append(b.san, res.SAN)
    return res, nil
}

// push tries UCI first, then algebraic. pos must be the position before the move.
func push(game *nchess.Game, pos *nchess.Position, raw string) (*MoveResult, error) {
    if mv, err := (nchess.UCINotation{}).Decode(pos, strings.ToLower(raw)); err == nil {
        if merr := game.Move(mv, nil); merr != nil {
            return nil, merr
        }
        return &MoveResult{
            SAN: nchess.AlgebraicNotation{}.Encode(pos, mv),
            UCI: mv.String(),
        }, nil
    }
    if err := game.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil); err != nil {
        return nil, err
    }
    moves := game.Moves()
    last := moves[len(moves)-1]
    return &MoveResult{
        SAN: nchess.AlgebraicNotation{}.Encode(pos, last),
        UCI: last.String(),
    }, nil
}

// Undo reverts the most recent move. The rules library offers no direct
// takeback, so the game is reconstructed from the remaining UCI history.
func (b *Board) Undo() {
    if len(b.uci) == 0 {
        return
    }
    b.uci = b.uci[:len(b.uci)-1]
    b.san = b.san[:len(b.san)-1]
    fresh := nchess.NewGame()
    for _, mv := range b.uci {
        if err := fresh.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
            return
        }
    }
    b.game = fresh
}

func (b *Board) Turn() Side {
    if b.game.Position().Turn() == nchess.White {
        return White
    }
    return Black
}

func (b *Board) GameOver() bool {
    return b.game.Outcome() != nchess.NoOutcome
}

// Outcome reports the terminal result as a color token, or "" while the
// game is still running.
func (b *Board) Outcome() string {
    switch b.game.Outcome() {
    case nchess.WhiteWon:
        return "white"
    case nchess.BlackWon:
        return "black"
    case nchess.Draw:
        return "draw"
    }
    return ""
}

func (b *Board) MoveCount() int { return len(b.uci) }

func (b *Board) MovesUCI() []string { return append([]string(nil), b.uci...) }

func (b *Board) MovesSAN() []string { return append([]string(nil), b.san...) }

func (b *Board) FEN() string { return b.game.FEN() }
