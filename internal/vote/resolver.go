// Package vote turns a ledger snapshot into at most one committed action.
package vote

import (
    "math/rand"
    "sort"
    "strings"

    "github.com/park285/crowd-chess-bot/internal/ledger"
    "github.com/park285/crowd-chess-bot/internal/oracle"
)

// ResignToken is the literal proposal that counts as a resignation vote.
// It never touches the oracle.
const ResignToken = "resign"

// Action is the kind of committed outcome.
type Action string

const (
    ActionMove   Action = "move"
    ActionResign Action = "resign"
)

// Outcome is the single action a resolved round commits.
type Outcome struct {
    Action Action
    SAN    string
    UCI    string
    Votes  int
}

type tallyEntry struct {
    san   string
    uci   string
    count int
}

// Resolve canonicalizes the proposals, filters illegal ones, tallies per
// canonical move, and picks a winner. Legality and canonical form come from
// a trial apply on the board, immediately reverted so the authoritative
// position is unaffected. A nil result means the round produced no usable
// votes and must be re-armed.
//
// Tie policy: a sole leader wins outright (resignation included); among tied
// leaders resignation is removed first, then one move is drawn uniformly from
// rng. rng must not be nil when ties are possible.
func Resolve(votes []ledger.Vote, board *oracle.Board, rng *rand.Rand) *Outcome {
    counts := make(map[string]*tallyEntry)
    for _, v := range votes {
        raw := strings.TrimSpace(v.Proposal)
        if raw == "" {
            continue
        }
        if strings.EqualFold(raw, ResignToken) {
            bump(counts, ResignToken, "")
            continue
        }
        res, err := board.Apply(raw)
        if err != nil {
            // malformed or illegal: dropped, never surfaced to the voter
            continue
        }
        board.Undo()
        bump(counts, res.SAN, res.UCI)
    }
    if len(counts) == 0 {
        return nil
    }

    entries := make([]*tallyEntry, 0, len(counts))
    for _, e := range counts {
        entries = append(entries, e)
    }
    sort.Slice(entries, func(i, j int) bool {
        if entries[i].count != entries[j].count {
            return entries[i].count > entries[j].count
        }
        return entries[i].san < entries[j].san
    })

    max := entries[0].count
    winners := entries[:0:0]
    for _, e := range entries {
        if e.count == max {
            winners = append(winners, e)
        }
    }

    var chosen *tallyEntry
    if len(winners) == 1 {
        chosen = winners[0]
    } else {
        // resignation never wins a tie
        moves := winners[:0:0]
        for _, e := range winners {
            if e.san != ResignToken {
                moves = append(moves, e)
            }
        }
        if len(moves) == 0 {
            return nil
        }
        if len(moves) == 1 || rng == nil {
            chosen = moves[0]
        } else {
            chosen = moves[rng.Intn(len(moves))]
        }
    }

    if chosen.san == ResignToken {
        return &Outcome{Action: ActionResign, Votes: chosen.count}
    }
    return &Outcome{Action: ActionMove, SAN: chosen.san, UCI: chosen.uci, Votes: chosen.count}
}

func bump(counts map[string]*tallyEntry, san, uci string) {
    if e, ok := counts[san]; ok {
        e.count++
        return
    }
    counts[san] = &tallyEntry{san: san, uci: uci, count: 1}
}
