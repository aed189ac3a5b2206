package transport

import (
    "context"
    "fmt"
    "strings"
)

// Chat rooms exposed by the hosting platform.
const (
    RoomPlayer    = "player"
    RoomSpectator = "spectator"
)

// ChallengeEvent announces an incoming challenge.
type ChallengeEvent struct {
    ID              string `json:"id"`
    Challenger      string `json:"challenger"`
    Rated           bool   `json:"rated"`
    Variant         string `json:"variant"`
    TimeControlType string `json:"timeControlType"`
    Speed           string `json:"speedClass"`
    Increment       int    `json:"increment"`
    BaseLimit       int    `json:"baseLimit"`
}

// GameStartEvent announces that a game became active, including any move
// history already played (non-empty on reconnect).
type GameStartEvent struct {
    GameID  string   `json:"gameId"`
    Variant string   `json:"variant"`
    WhiteID string   `json:"whiteId"`
    BlackID string   `json:"blackId"`
    Moves   []string `json:"priorMovesList"`
}

// GameStateEvent carries the full move list and the game status.
type GameStateEvent struct {
    GameID string   `json:"gameId"`
    Moves  []string `json:"movesList"`
    Status string   `json:"status"`
}

// ChatEvent is a chat line from either room.
type ChatEvent struct {
    GameID   string `json:"gameId"`
    Room     string `json:"room"`
    Username string `json:"username"`
    Text     string `json:"text"`
}

// Move is the wire-level move descriptor: either a from/to pair with an
// optional promotion piece, or a drop (piece placed onto a square) for
// variants that support placement.
type Move struct {
    From      string
    To        string
    Promotion string
    Drop      string
}

// MoveFromUCI decodes a canonical UCI token into a Move. Drop notation uses
// '@' (e.g. "N@f3"); promotions carry a trailing piece letter ("e7e8q").
func MoveFromUCI(uci string) (Move, error) {
    uci = strings.TrimSpace(uci)
    if i := strings.Index(uci, "@"); i > 0 {
        piece, sq := uci[:i], uci[i+1:]
        if len(piece) != 1 || len(sq) != 2 {
            return Move{}, fmt.Errorf("bad drop token %q", uci)
        }
        return Move{To: sq, Drop: strings.ToUpper(piece)}, nil
    }
    switch len(uci) {
    case 4:
        return Move{From: uci[:2], To: uci[2:4]}, nil
    case 5:
        return Move{From: uci[:2], To: uci[2:4], Promotion: strings.ToLower(uci[4:])}, nil
    }
    return Move{}, fmt.Errorf("bad uci token %q", uci)
}

// UCI renders the descriptor back to its wire token.
func (m Move) UCI() string {
    if m.Drop != "" {
        return m.Drop + "@" + m.To
    }
    return m.From + m.To + m.Promotion
}

// Commander is the outbound command surface of the hosting platform.
type Commander interface {
    AcceptChallenge(ctx context.Context, id string) error
    DeclineChallenge(ctx context.Context, id string) error
    MakeMove(ctx context.Context, gameID string, mv Move) error
    Resign(ctx context.Context, gameID string) error
    Abort(ctx context.Context, gameID string) error
    SendChat(ctx context.Context, gameID, room, text string) error
}
