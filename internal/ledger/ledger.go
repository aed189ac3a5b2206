// Package ledger holds the raw move proposals for the current voting round.
// It stores exactly one live proposal per voter; a later proposal from the
// same voter replaces the earlier one. Nothing survives Clear.
package ledger

import (
    "sort"
    "strings"
    "sync"
)

// Vote pairs a voter identity with their latest raw proposal text.
type Vote struct {
    Voter    string
    Proposal string
}

type Ledger struct {
    mu    sync.Mutex
    votes map[string]string
}

func New() *Ledger {
    return &Ledger{votes: make(map[string]string)}
}

// Record stores or overwrites the voter's current proposal.
func (l *Ledger) Record(voter, proposal string) {
    voter = strings.TrimSpace(voter)
    if voter == "" {
        return
    }
    l.mu.Lock()
    l.votes[voter] = strings.TrimSpace(proposal)
    l.mu.Unlock()
}

// Snapshot returns the current (voter, proposal) pairs sorted by voter so
// that tallying is deterministic.
func (l *Ledger) Snapshot() []Vote {
    l.mu.Lock()
    out := make([]Vote, 0, len(l.votes))
    for v, p := range l.votes {
        out = append(out, Vote{Voter: v, Proposal: p})
    }
    l.mu.Unlock()
    sort.Slice(out, func(i, j int) bool { return out[i].Voter < out[j].Voter })
    return out
}

// Clear empties the ledger. Called at round boundaries.
func (l *Ledger) Clear() {
    l.mu.Lock()
    l.votes = make(map[string]string)
    l.mu.Unlock()
}

func (l *Ledger) Len() int {
    l.mu.Lock()
    defer l.mu.Unlock()
    return len(l.votes)
}
