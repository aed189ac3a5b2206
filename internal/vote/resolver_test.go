package vote

import (
    "math/rand"
    "testing"

    "github.com/park285/crowd-chess-bot/internal/ledger"
    "github.com/park285/crowd-chess-bot/internal/oracle"
)

func votes(pairs ...string) []ledger.Vote {
    out := make([]ledger.Vote, 0, len(pairs)/2)
    for i := 0; i+1 < len(pairs); i += 2 {
        out = append(out, ledger.Vote{Voter: pairs[i], Proposal: pairs[i+1]})
    }
    return out
}

func TestPluralityWinner(t *testing.T) {
    b := oracle.New()
    fen := b.FEN()
    out := Resolve(votes("a", "e4", "b", "e4", "c", "Nf3"), b, rand.New(rand.NewSource(1)))
    if out == nil { t.Fatalf("expected outcome") }
    if out.Action != ActionMove || out.SAN != "e4" || out.UCI != "e2e4" || out.Votes != 2 {
        t.Fatalf("unexpected outcome: %+v", out)
    }
    if b.FEN() != fen { t.Fatalf("resolution must leave the board untouched") }
}

func TestEquivalentNotationsMerge(t *testing.T) {
    b := oracle.New()
    out := Resolve(votes("a", "e4", "b", "e2e4", "c", "d4"), b, rand.New(rand.NewSource(1)))
    if out == nil || out.SAN != "e4" || out.Votes != 2 {
        t.Fatalf("expected merged e4 with 2 votes, got %+v", out)
    }
}

func TestIllegalAndEmptyYieldNoOutcome(t *testing.T) {
    b := oracle.New()
    if out := Resolve(nil, b, nil); out != nil {
        t.Fatalf("empty ledger must resolve to nothing, got %+v", out)
    }
    if out := Resolve(votes("a", "Ke5", "b", "garbage", "c", "  "), b, nil); out != nil {
        t.Fatalf("illegal-only round must resolve to nothing, got %+v", out)
    }
}

func TestResignNeverWinsTie(t *testing.T) {
    b := oracle.New()
    out := Resolve(votes("a", "resign", "b", "e4"), b, rand.New(rand.NewSource(1)))
    if out == nil || out.Action != ActionMove || out.SAN != "e4" {
        t.Fatalf("tie with resign must pick the move, got %+v", out)
    }
}

func TestResignOutrightLeaderWins(t *testing.T) {
    b := oracle.New()
    out := Resolve(votes("a", "resign", "b", "Resign", "c", "e4"), b, nil)
    if out == nil || out.Action != ActionResign || out.Votes != 2 {
        t.Fatalf("sole resign leader must resign, got %+v", out)
    }
}

func TestResignOnlyTieIsUnusable(t *testing.T) {
    // only possible when resign alone reaches the max and something strips it:
    // simulate via a resign/illegal mix where resign is the single entry
    b := oracle.New()
    out := Resolve(votes("a", "resign"), b, nil)
    if out == nil || out.Action != ActionResign {
        t.Fatalf("single resign vote is a sole winner, got %+v", out)
    }
}

func TestTieBreakIsRoughlyUniform(t *testing.T) {
    rng := rand.New(rand.NewSource(42))
    picks := map[string]int{}
    for i := 0; i < 400; i++ {
        b := oracle.New()
        out := Resolve(votes("a", "e4", "b", "d4"), b, rng)
        if out == nil || out.Action != ActionMove {
            t.Fatalf("expected a move outcome, got %+v", out)
        }
        picks[out.SAN]++
    }
    if len(picks) != 2 {
        t.Fatalf("expected both tied moves to be chosen over repeated trials: %v", picks)
    }
    for san, n := range picks {
        if n < 120 || n > 280 {
            t.Fatalf("tie-break badly skewed for %s: %v", san, picks)
        }
    }
}

func TestTieBreakDeterministicWithSeed(t *testing.T) {
    run := func() string {
        b := oracle.New()
        out := Resolve(votes("a", "e4", "b", "d4", "c", "Nf3"), b, rand.New(rand.NewSource(7)))
        return out.SAN
    }
    if run() != run() {
        t.Fatalf("same seed must pick the same tied winner")
    }
}

func TestPromotionOutcomeCarriesUCI(t *testing.T) {
    b := oracle.New()
    moves := []string{"e2e4", "f7f5", "e4f5", "g7g6", "f5g6", "g8f6", "g6h7", "f6g8"}
    if err := b.Replay(moves); err != nil { t.Fatalf("Replay: %v", err) }
    out := Resolve(votes("a", "hxg8=Q"), b, nil)
    if out == nil || out.UCI != "h7g8q" {
        t.Fatalf("expected promotion uci h7g8q, got %+v", out)
    }
}
