package main

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    appcfg "github.com/park285/crowd-chess-bot/internal/config"
    "github.com/park285/crowd-chess-bot/internal/gamelog"
    "github.com/park285/crowd-chess-bot/internal/moderation"
    "github.com/park285/crowd-chess-bot/internal/msgcat"
    "github.com/park285/crowd-chess-bot/internal/obslog"
    "github.com/park285/crowd-chess-bot/internal/session"
    "github.com/park285/crowd-chess-bot/internal/transport"
)

func main() {
    cfg, err := appcfg.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    if err := obslog.InitFromEnv(); err != nil {
        log.Fatalf("log init error: %v", err)
    }
    logger := obslog.L()

    headers := func() map[string]string {
        return map[string]string{"Authorization": "Bearer " + cfg.BotToken}
    }

    ropts, err := redis.ParseURL(cfg.RedisURL)
    if err != nil {
        log.Fatalf("redis url error: %v", err)
    }
    rdb := redis.NewClient(ropts)
    if err := rdb.Ping(context.Background()).Err(); err != nil {
        log.Fatalf("redis ping error: %v", err)
    }
    mods := moderation.NewStore(rdb)

    cat, err := msgcat.New(cfg.MsgOverrideDir)
    if err != nil {
        log.Fatalf("message catalog error: %v", err)
    }

    client := transport.NewClient(cfg.APIBaseURL, transport.WithHeaderProvider(headers))

    deps := session.Deps{
        Commander:  client,
        Moderation: mods,
        Catalog:    cat,
        Logger:     logger,
    }
    var repo *gamelog.Repository
    if cfg.DatabaseURL != "" {
        repo, err = gamelog.NewRepository(cfg.DatabaseURL)
        if err != nil {
            log.Fatalf("gamelog init error: %v", err)
        }
        deps.Sink = repo
    }

    sess := session.New(session.Config{
        BotID:           cfg.BotID,
        VotingWindow:    time.Duration(cfg.VotingSeconds) * time.Second,
        AbortAfter:      time.Duration(cfg.AbortSeconds) * time.Second,
        AllowedVariants: cfg.AllowedVariants,
        MinIncrement:    cfg.MinIncrement,
        MinBase:         cfg.MinBase,
        SpeedClass:      cfg.SpeedClass,
    }, deps)

    stream := transport.NewEventStream(cfg.StreamWSURL, transport.Handlers{
        OnChallenge: sess.HandleChallenge,
        OnGameStart: sess.HandleGameStart,
        OnGameState: sess.HandleGameState,
        OnChat:      sess.HandleChat,
        OnState: func(st transport.StreamState) {
            logger.Info("stream_state", zap.String("state", string(st)))
        },
    }, 5, time.Second)
    stream.SetHeaderProvider(headers)

    cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    if err := stream.Connect(cctx); err != nil {
        cancel()
        log.Fatalf("stream connect error: %v", err)
    }
    cancel()
    logger.Info("bot_up", zap.String("bot_id", cfg.BotID), zap.Int("voting_seconds", cfg.VotingSeconds))

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
    <-sigCh

    _ = stream.Close(context.Background())
    _ = rdb.Close()
    if repo != nil {
        _ = repo.Close()
    }
    _ = logger.Sync()
}
