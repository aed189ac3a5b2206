package transport

import (
    "context"
    "net/http"
    "sync"
    "time"

    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"
)

// StreamState tracks the websocket lifecycle.
type StreamState string

const (
    StreamDisconnected StreamState = "disconnected"
    StreamConnecting   StreamState = "connecting"
    StreamConnected    StreamState = "connected"
    StreamFailed       StreamState = "failed"
)

// frame is the tagged union the hosting platform emits on its event stream.
type frame struct {
    Type      string          `json:"type"`
    Challenge *ChallengeEvent `json:"challenge,omitempty"`
    GameStart *GameStartEvent `json:"gameStart,omitempty"`
    GameState *GameStateEvent `json:"gameState,omitempty"`
    Chat      *ChatEvent      `json:"chat,omitempty"`
}

// Handlers receives decoded stream events. Nil callbacks are skipped.
type Handlers struct {
    OnChallenge func(ChallengeEvent)
    OnGameStart func(GameStartEvent)
    OnGameState func(GameStateEvent)
    OnChat      func(ChatEvent)
    OnState     func(StreamState)
}

// EventStream maintains a websocket to the hosting platform and dispatches
// decoded events. It reconnects with a fixed delay up to a retry budget.
type EventStream struct {
    wsURL    string
    handlers Handlers
    headers  HeaderProvider

    conn   *websocket.Conn
    state  StreamState
    stateM sync.RWMutex

    reconnectAttempts    int
    maxReconnectAttempts int
    reconnectDelay       time.Duration
    pingInterval         time.Duration

    stopCh   chan struct{}
    stopOnce sync.Once
    wg       sync.WaitGroup

    rootCtx    context.Context
    rootCancel context.CancelFunc
}

func NewEventStream(wsURL string, h Handlers, maxReconnectAttempts int, reconnectDelay time.Duration) *EventStream {
    return &EventStream{
        wsURL:                wsURL,
        handlers:             h,
        state:                StreamDisconnected,
        maxReconnectAttempts: maxReconnectAttempts,
        reconnectDelay:       reconnectDelay,
        pingInterval:         30 * time.Second,
        stopCh:               make(chan struct{}),
    }
}

// SetHeaderProvider injects handshake headers (auth token).
func (s *EventStream) SetHeaderProvider(h HeaderProvider) { s.headers = h }

func (s *EventStream) Connect(ctx context.Context) error {
    s.stateM.Lock()
    if s.state == StreamConnected || s.state == StreamConnecting {
        s.stateM.Unlock()
        return nil
    }
    s.stateM.Unlock()

    s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
    s.setState(StreamConnecting)

    dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()

    conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
        CompressionMode: websocket.CompressionNoContextTakeover,
        HTTPHeader:      s.buildHeaders(),
    })
    if err != nil {
        s.setState(StreamFailed)
        s.scheduleReconnect()
        return err
    }

    s.conn = conn
    s.reconnectAttempts = 0
    s.setState(StreamConnected)

    s.wg.Add(2)
    go s.listen()
    go s.pingLoop()
    return nil
}

func (s *EventStream) listen() {
    defer s.wg.Done()
    for {
        select {
        case <-s.stopCh:
            return
        default:
        }
        if s.conn == nil {
            return
        }
        var f frame
        if err := wsjson.Read(s.rootCtx, s.conn, &f); err != nil {
            if s.isStopping() {
                return
            }
            s.setState(StreamDisconnected)
            _ = s.closeConn(websocket.StatusGoingAway, "reconnect")
            s.scheduleReconnect()
            return
        }
        s.dispatch(f)
    }
}

func (s *EventStream) dispatch(f frame) {
    switch f.Type {
    case "challenge":
        if s.handlers.OnChallenge != nil && f.Challenge != nil {
            s.handlers.OnChallenge(*f.Challenge)
        }
    case "gameStart":
        if s.handlers.OnGameStart != nil && f.GameStart != nil {
            s.handlers.OnGameStart(*f.GameStart)
        }
    case "gameState":
        if s.handlers.OnGameState != nil && f.GameState != nil {
            s.handlers.OnGameState(*f.GameState)
        }
    case "chat":
        if s.handlers.OnChat != nil && f.Chat != nil {
            s.handlers.OnChat(*f.Chat)
        }
    }
}

func (s *EventStream) pingLoop() {
    defer s.wg.Done()
    ticker := time.NewTicker(s.pingInterval)
    defer ticker.Stop()
    for {
        select {
        case <-s.stopCh:
            return
        case <-ticker.C:
            if s.conn == nil || s.State() != StreamConnected {
                continue
            }
            pctx, cancel := context.WithTimeout(s.rootCtx, 5*time.Second)
            _ = s.conn.Ping(pctx)
            cancel()
        }
    }
}

func (s *EventStream) scheduleReconnect() {
    if s.isStopping() {
        return
    }
    if s.maxReconnectAttempts >= 0 && s.reconnectAttempts >= s.maxReconnectAttempts {
        s.setState(StreamFailed)
        return
    }
    s.reconnectAttempts++
    time.AfterFunc(s.reconnectDelay, func() {
        if s.isStopping() {
            return
        }
        s.stateM.Lock()
        s.state = StreamDisconnected
        s.stateM.Unlock()
        _ = s.Connect(context.Background())
    })
}

func (s *EventStream) Close(ctx context.Context) error {
    s.stopOnce.Do(func() { close(s.stopCh) })
    if s.rootCancel != nil {
        s.rootCancel()
    }
    err := s.closeConn(websocket.StatusNormalClosure, "bye")
    s.wg.Wait()
    s.setState(StreamDisconnected)
    return err
}

func (s *EventStream) closeConn(code websocket.StatusCode, reason string) error {
    if s.conn == nil {
        return nil
    }
    err := s.conn.Close(code, reason)
    s.conn = nil
    return err
}

func (s *EventStream) State() StreamState {
    s.stateM.RLock()
    defer s.stateM.RUnlock()
    return s.state
}

func (s *EventStream) setState(st StreamState) {
    s.stateM.Lock()
    s.state = st
    s.stateM.Unlock()
    if s.handlers.OnState != nil {
        s.handlers.OnState(st)
    }
}

func (s *EventStream) isStopping() bool {
    select {
    case <-s.stopCh:
        return true
    default:
        return false
    }
}

func (s *EventStream) buildHeaders() http.Header {
    if s.headers == nil {
        return nil
    }
    h := http.Header{}
    for k, v := range s.headers() {
        h.Set(k, v)
    }
    return h
}
