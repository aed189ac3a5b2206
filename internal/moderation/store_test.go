package moderation

import (
    "context"
    "testing"

    miniredis "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
    t.Helper()
    mr, err := miniredis.Run()
    if err != nil { t.Fatalf("miniredis: %v", err) }
    t.Cleanup(func() { mr.Close() })
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    return NewStore(rdb)
}

func TestBanUnban(t *testing.T) {
    s := newTestStore(t)
    ctx := context.Background()

    if err := s.Ban(ctx, "Troll"); err != nil { t.Fatalf("Ban: %v", err) }
    // lookups are case-insensitive
    banned, err := s.IsBanned(ctx, "troll")
    if err != nil || !banned { t.Fatalf("expected troll banned: %v %v", banned, err) }

    if err := s.Unban(ctx, "TROLL"); err != nil { t.Fatalf("Unban: %v", err) }
    banned, err = s.IsBanned(ctx, "troll")
    if err != nil || banned { t.Fatalf("expected troll unbanned: %v %v", banned, err) }
}

func TestPromoteDemote(t *testing.T) {
    s := newTestStore(t)
    ctx := context.Background()

    ok, err := s.IsModerator(ctx, "alice")
    if err != nil || ok { t.Fatalf("unexpected moderator: %v %v", ok, err) }
    if err := s.Promote(ctx, "alice"); err != nil { t.Fatalf("Promote: %v", err) }
    ok, err = s.IsModerator(ctx, "Alice")
    if err != nil || !ok { t.Fatalf("expected alice promoted: %v %v", ok, err) }
    if err := s.Demote(ctx, "alice"); err != nil { t.Fatalf("Demote: %v", err) }
    ok, _ = s.IsModerator(ctx, "alice")
    if ok { t.Fatalf("expected alice demoted") }
}

func TestBlankUserIsNoop(t *testing.T) {
    s := newTestStore(t)
    ctx := context.Background()
    if err := s.Ban(ctx, "  "); err != nil { t.Fatalf("Ban blank: %v", err) }
    list, err := s.Banned(ctx)
    if err != nil { t.Fatalf("Banned: %v", err) }
    if len(list) != 0 { t.Fatalf("expected empty ban list, got %v", list) }
}
