package transport

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "strings"
    "time"

    "github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers (auth token etc).
type HeaderProvider func() map[string]string

// Client implements Commander against the hosting platform's HTTP API.
type Client struct {
    baseURL string
    http    *fasthttp.Client
    headers HeaderProvider

    defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
    return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
    return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
    return func(c *Client) { c.headers = h }
}

func NewClient(baseURL string, opts ...Option) *Client {
    c := &Client{
        baseURL:        strings.TrimRight(baseURL, "/"),
        http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
        defaultTimeout: 10 * time.Second,
    }
    for _, opt := range opts {
        opt(c)
    }
    return c
}

func (c *Client) AcceptChallenge(ctx context.Context, id string) error {
    return c.post(ctx, "/api/challenge/"+url.PathEscape(id)+"/accept", nil)
}

func (c *Client) DeclineChallenge(ctx context.Context, id string) error {
    return c.post(ctx, "/api/challenge/"+url.PathEscape(id)+"/decline", nil)
}

func (c *Client) MakeMove(ctx context.Context, gameID string, mv Move) error {
    return c.post(ctx, "/api/bot/game/"+url.PathEscape(gameID)+"/move/"+url.PathEscape(mv.UCI()), nil)
}

func (c *Client) Resign(ctx context.Context, gameID string) error {
    return c.post(ctx, "/api/bot/game/"+url.PathEscape(gameID)+"/resign", nil)
}

func (c *Client) Abort(ctx context.Context, gameID string) error {
    return c.post(ctx, "/api/bot/game/"+url.PathEscape(gameID)+"/abort", nil)
}

func (c *Client) SendChat(ctx context.Context, gameID, room, text string) error {
    body := map[string]string{"room": room, "text": text}
    return c.post(ctx, "/api/bot/game/"+url.PathEscape(gameID)+"/chat", body)
}

func (c *Client) post(ctx context.Context, path string, in any) error {
    req := fasthttp.AcquireRequest()
    resp := fasthttp.AcquireResponse()
    defer func() {
        fasthttp.ReleaseRequest(req)
        fasthttp.ReleaseResponse(resp)
    }()

    req.Header.SetMethod(fasthttp.MethodPost)
    req.SetRequestURI(c.baseURL + path)
    if c.headers != nil {
        for k, v := range c.headers() {
            req.Header.Set(k, v)
        }
    }
    if in != nil {
        raw, err := json.Marshal(in)
        if err != nil {
            return err
        }
        req.Header.SetContentType("application/json")
        req.SetBody(raw)
    }

    timeout := c.defaultTimeout
    if dl, ok := ctx.Deadline(); ok {
        if rem := time.Until(dl); rem < timeout {
            timeout = rem
        }
    }
    if err := c.http.DoTimeout(req, resp, timeout); err != nil {
        return fmt.Errorf("post %s: %w", path, err)
    }
    if code := resp.StatusCode(); code < 200 || code >= 300 {
        return fmt.Errorf("post %s: status %d: %s", path, code, strings.TrimSpace(string(resp.Body())))
    }
    return nil
}
