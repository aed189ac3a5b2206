package config

import (
    "errors"
    "os"
    "strconv"
    "strings"
)

type AppConfig struct {
    APIBaseURL  string
    StreamWSURL string
    BotToken    string
    BotID       string

    RedisURL    string
    DatabaseURL string

    VotingSeconds int
    AbortSeconds  int

    AllowedVariants []string
    MinIncrement    int
    MinBase         int
    SpeedClass      string

    MsgOverrideDir string
}

func Load() (*AppConfig, error) {
    cfg := &AppConfig{
        VotingSeconds:   15,
        AbortSeconds:    60,
        AllowedVariants: []string{"standard"},
        MinIncrement:    3,
        MinBase:         300,
        SpeedClass:      "classical",
    }

    cfg.APIBaseURL = strings.TrimSpace(os.Getenv("API_BASE_URL"))
    cfg.StreamWSURL = strings.TrimSpace(os.Getenv("STREAM_WS_URL"))
    cfg.BotToken = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
    cfg.BotID = strings.TrimSpace(os.Getenv("BOT_ID"))

    cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
    cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
    cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

    if v := strings.TrimSpace(os.Getenv("VOTING_SECONDS")); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            cfg.VotingSeconds = n
        }
    }
    if v := strings.TrimSpace(os.Getenv("ABORT_SECONDS")); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            cfg.AbortSeconds = n
        }
    }
    if v := strings.TrimSpace(os.Getenv("ALLOWED_VARIANTS")); v != "" {
        cfg.AllowedVariants = nil
        for _, p := range strings.Split(v, ",") {
            if s := strings.TrimSpace(p); s != "" {
                cfg.AllowedVariants = append(cfg.AllowedVariants, strings.ToLower(s))
            }
        }
    }
    if v := strings.TrimSpace(os.Getenv("CHALLENGE_MIN_INCREMENT")); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            cfg.MinIncrement = n
        }
    }
    if v := strings.TrimSpace(os.Getenv("CHALLENGE_MIN_BASE")); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n >= 0 {
            cfg.MinBase = n
        }
    }
    if v := strings.TrimSpace(os.Getenv("CHALLENGE_SPEED")); v != "" {
        cfg.SpeedClass = strings.ToLower(v)
    }

    if cfg.APIBaseURL == "" {
        return nil, errors.New("API_BASE_URL is required")
    }
    if cfg.StreamWSURL == "" {
        return nil, errors.New("STREAM_WS_URL is required")
    }
    if cfg.BotToken == "" {
        return nil, errors.New("BOT_TOKEN is required")
    }
    if cfg.BotID == "" {
        return nil, errors.New("BOT_ID is required")
    }
    if cfg.RedisURL == "" {
        return nil, errors.New("REDIS_URL is required")
    }

    return cfg, nil
}
