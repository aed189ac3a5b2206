// Package gamelog persists finished crowd games to Postgres. The session
// works without it; a nil *Repository disables persistence.
package gamelog

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/lib/pq"
)

type Repository struct {
    db *sql.DB
}

// Record is one finished game as seen by the session.
type Record struct {
    GameID    string
    Variant   string
    BotColor  string
    Result    string // white | black | draw | ""
    Method    string // checkmate | resignation | abort | timeout | ...
    MovesUCI  []string
    MovesSAN  []string
    Voters    int
    StartedAt time.Time
    EndedAt   time.Time
}

func NewRepository(databaseURL string) (*Repository, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(8)
    db.SetMaxIdleConns(4)
    db.SetConnMaxLifetime(30 * time.Minute)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        return nil, err
    }
    return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
    if r == nil || r.db == nil {
        return nil
    }
    return r.db.Close()
}

// SaveResult upserts a finished game keyed by its remote game id.
func (r *Repository) SaveResult(ctx context.Context, rec *Record) error {
    if r == nil || r.db == nil || rec == nil {
        return nil
    }
    movesUCIRaw, _ := json.Marshal(rec.MovesUCI)
    movesSANRaw, _ := json.Marshal(rec.MovesSAN)
    pgn := buildMovetext(rec.MovesSAN, pgnResult(rec.Result))
    duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
    if duration < 0 {
        duration = 0
    }

    q := `INSERT INTO crowd_games (
        id, game_id, variant, bot_color, result, result_method,
        moves_uci, moves_san, pgn, voters,
        started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
      ON CONFLICT (game_id) DO UPDATE SET
        result = EXCLUDED.result,
        result_method = EXCLUDED.result_method,
        moves_uci = EXCLUDED.moves_uci,
        moves_san = EXCLUDED.moves_san,
        pgn = EXCLUDED.pgn,
        voters = EXCLUDED.voters,
        ended_at = EXCLUDED.ended_at,
        duration_ms = EXCLUDED.duration_ms`
    _, err := r.db.ExecContext(ctx, q,
        uuid.NewString(), rec.GameID, rec.Variant, rec.BotColor,
        rec.Result, rec.Method,
        string(movesUCIRaw), string(movesSANRaw), pgn, rec.Voters,
        rec.StartedAt, rec.EndedAt, duration,
    )
    return err
}

func pgnResult(result string) string {
    switch result {
    case "white":
        return "1-0"
    case "black":
        return "0-1"
    case "draw":
        return "1/2-1/2"
    default:
        return "*"
    }
}

func buildMovetext(san []string, result string) string {
    var b strings.Builder
    for i, mv := range san {
        if i%2 == 0 {
            if i > 0 {
                b.WriteByte(' ')
            }
            fmt.Fprintf(&b, "%d.", i/2+1)
        }
        b.WriteByte(' ')
        b.WriteString(mv)
    }
    if b.Len() > 0 {
        b.WriteByte(' ')
    }
    b.WriteString(result)
    return b.String()
}
