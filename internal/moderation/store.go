// Package moderation keeps the spectator ban list and the moderator roster
// in Redis so they survive restarts and are shared across bot instances.
package moderation

import (
    "context"
    "strings"

    "github.com/redis/go-redis/v9"
)

type Store struct{ rdb *redis.Client }

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) keyBanned() string     { return "mod:banned" }
func (s *Store) keyModerators() string { return "mod:moderators" }

func norm(user string) string { return strings.ToLower(strings.TrimSpace(user)) }

func (s *Store) IsBanned(ctx context.Context, user string) (bool, error) {
    if norm(user) == "" {
        return false, nil
    }
    return s.rdb.SIsMember(ctx, s.keyBanned(), norm(user)).Result()
}

func (s *Store) IsModerator(ctx context.Context, user string) (bool, error) {
    if norm(user) == "" {
        return false, nil
    }
    return s.rdb.SIsMember(ctx, s.keyModerators(), norm(user)).Result()
}

func (s *Store) Ban(ctx context.Context, user string) error {
    if norm(user) == "" {
        return nil
    }
    return s.rdb.SAdd(ctx, s.keyBanned(), norm(user)).Err()
}

func (s *Store) Unban(ctx context.Context, user string) error {
    if norm(user) == "" {
        return nil
    }
    return s.rdb.SRem(ctx, s.keyBanned(), norm(user)).Err()
}

func (s *Store) Promote(ctx context.Context, user string) error {
    if norm(user) == "" {
        return nil
    }
    return s.rdb.SAdd(ctx, s.keyModerators(), norm(user)).Err()
}

func (s *Store) Demote(ctx context.Context, user string) error {
    if norm(user) == "" {
        return nil
    }
    return s.rdb.SRem(ctx, s.keyModerators(), norm(user)).Err()
}

func (s *Store) Banned(ctx context.Context) ([]string, error) {
    return s.rdb.SMembers(ctx, s.keyBanned()).Result()
}
