package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajmal017/dailyScript/pkg/utils"
)

// WSConfig параметры надёжности WebSocket соединения с мостом
type WSConfig struct {
	InitialDelay   time.Duration // первая задержка перед переподключением
	MaxDelay       time.Duration // потолок exponential backoff
	MaxRetries     int           // 0 = бесконечно
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
}

// DefaultWSConfig задержки переподключения: 2s, 4s, 8s, 16s
func DefaultWSConfig() WSConfig {
	return WSConfig{
		InitialDelay:   2 * time.Second,
		MaxDelay:       16 * time.Second,
		MaxRetries:     10,
		ConnectTimeout: 10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
	}
}

// ConnState состояние соединения
type ConnState int32

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
	ConnReconnecting
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "disconnected"
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnReconnecting:
		return "reconnecting"
	case ConnClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WSConn WebSocket соединение с мостом брокера с автоматическим
// переподключением. После восстановления сессии заново выполняется
// аутентификация и повторяются накопленные подписки.
type WSConn struct {
	name string // имя канала для логов: md или td
	url  string
	cfg  WSConfig
	log  *utils.Logger

	conn   *websocket.Conn
	connMu sync.RWMutex

	state      int32 // atomic ConnState
	retryCount int32 // atomic

	closeChan chan struct{}

	onMessage func([]byte)
	onConnect func()
	cbMu      sync.RWMutex

	// Кадры, воспроизводимые после каждого (пере)подключения
	replay   []Frame
	replayMu sync.RWMutex

	// Аутентификация сессии, выполняется до воспроизведения подписок
	authFunc func(*websocket.Conn) error
}

// NewWSConn создаёт соединение; Connect нужно вызывать отдельно
func NewWSConn(name, url string, cfg WSConfig, log *utils.Logger) *WSConn {
	return &WSConn{
		name:      name,
		url:       url,
		cfg:       cfg,
		log:       log.WithComponent("ws-" + name),
		closeChan: make(chan struct{}),
	}
}

// SetOnMessage устанавливает обработчик входящих кадров.
// Вызывается из горутины чтения, обработчик не должен блокировать.
func (c *WSConn) SetOnMessage(handler func([]byte)) {
	c.cbMu.Lock()
	c.onMessage = handler
	c.cbMu.Unlock()
}

// SetOnConnect устанавливает обработчик установления сессии
func (c *WSConn) SetOnConnect(handler func()) {
	c.cbMu.Lock()
	c.onConnect = handler
	c.cbMu.Unlock()
}

// SetAuthFunc устанавливает аутентификацию, выполняемую на каждом dial
func (c *WSConn) SetAuthFunc(authFunc func(*websocket.Conn) error) {
	c.authFunc = authFunc
}

// AddReplay добавляет кадр, отправляемый после каждого переподключения
func (c *WSConn) AddReplay(frame Frame) {
	c.replayMu.Lock()
	c.replay = append(c.replay, frame)
	c.replayMu.Unlock()
}

// State возвращает текущее состояние соединения
func (c *WSConn) State() ConnState {
	return ConnState(atomic.LoadInt32(&c.state))
}

// IsConnected сообщает, установлена ли сессия
func (c *WSConn) IsConnected() bool {
	return c.State() == ConnConnected
}

// Connect устанавливает соединение и запускает чтение
func (c *WSConn) Connect() error {
	select {
	case <-c.closeChan:
		return fmt.Errorf("connection is closed")
	default:
	}

	atomic.StoreInt32(&c.state, int32(ConnConnecting))

	if err := c.dial(); err != nil {
		atomic.StoreInt32(&c.state, int32(ConnDisconnected))
		return err
	}

	atomic.StoreInt32(&c.state, int32(ConnConnected))
	atomic.StoreInt32(&c.retryCount, 0)
	c.fireOnConnect()

	go c.readPump()
	go c.pingPump()

	c.log.Info("WebSocket connected", utils.String("url", c.url))
	return nil
}

// dial подключается, аутентифицируется и воспроизводит подписки
func (c *WSConn) dial() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if c.authFunc != nil {
		if err := c.authFunc(conn); err != nil {
			conn.Close()
			c.connMu.Lock()
			c.conn = nil
			c.connMu.Unlock()
			return fmt.Errorf("session auth: %w", err)
		}
	}

	if err := c.replayFrames(); err != nil {
		// Подписки восстановятся на следующем переподключении
		c.log.Warn("Subscription replay failed", utils.Err(err))
	}
	return nil
}

// replayFrames повторяет накопленные кадры подписок
func (c *WSConn) replayFrames() error {
	c.replayMu.RLock()
	frames := make([]Frame, len(c.replay))
	copy(frames, c.replay)
	c.replayMu.RUnlock()

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("no connection")
	}

	for _, f := range frames {
		if err := conn.WriteJSON(f); err != nil {
			return fmt.Errorf("replay %s: %w", f.Op, err)
		}
	}
	if len(frames) > 0 {
		c.log.Info("Subscriptions replayed", utils.Int("frames", len(frames)))
	}
	return nil
}

func (c *WSConn) fireOnConnect() {
	c.cbMu.RLock()
	onConnect := c.onConnect
	c.cbMu.RUnlock()
	if onConnect != nil {
		onConnect()
	}
}

// readPump читает кадры до разрыва соединения
func (c *WSConn) readPump() {
	for {
		select {
		case <-c.closeChan:
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(err)
			return
		}

		c.cbMu.RLock()
		onMessage := c.onMessage
		c.cbMu.RUnlock()
		if onMessage != nil {
			onMessage(message)
		}
	}
}

// pingPump поддерживает сессию контрольными ping
func (c *WSConn) pingPump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeChan:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil || c.State() != ConnConnected {
				return
			}

			conn.SetWriteDeadline(time.Now().Add(c.cfg.PongTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Warn("Ping failed", utils.Err(err))
				c.handleDisconnect(err)
				return
			}
		}
	}
}

// handleDisconnect закрывает разорванное соединение и запускает
// цикл переподключения
func (c *WSConn) handleDisconnect(err error) {
	select {
	case <-c.closeChan:
		return
	default:
	}

	state := c.State()
	if state == ConnReconnecting || state == ConnClosed {
		return
	}
	atomic.StoreInt32(&c.state, int32(ConnReconnecting))

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	if err != nil {
		c.log.Warn("WebSocket disconnected", utils.Err(err))
	}

	go c.reconnectLoop()
}

// reconnectLoop переподключается с exponential backoff
func (c *WSConn) reconnectLoop() {
	delay := c.cfg.InitialDelay

	for {
		select {
		case <-c.closeChan:
			return
		default:
		}

		retryCount := atomic.AddInt32(&c.retryCount, 1)
		if c.cfg.MaxRetries > 0 && int(retryCount) > c.cfg.MaxRetries {
			c.log.Error("Reconnect attempts exhausted",
				utils.Int("max_retries", c.cfg.MaxRetries))
			atomic.StoreInt32(&c.state, int32(ConnDisconnected))
			return
		}

		c.log.Info("Reconnecting",
			utils.Any("delay", delay.String()),
			utils.Int("attempt", int(retryCount)),
			utils.Int("max_retries", c.cfg.MaxRetries))

		select {
		case <-c.closeChan:
			return
		case <-time.After(delay):
		}

		if err := c.dial(); err != nil {
			c.log.Warn("Reconnect failed", utils.Err(err))
			delay *= 2
			if delay > c.cfg.MaxDelay {
				delay = c.cfg.MaxDelay
			}
			continue
		}

		atomic.StoreInt32(&c.state, int32(ConnConnected))
		atomic.StoreInt32(&c.retryCount, 0)
		c.fireOnConnect()

		go c.readPump()
		go c.pingPump()

		c.log.Info("WebSocket reconnected")
		return
	}
}

// Send отправляет кадр через активную сессию
func (c *WSConn) Send(frame Frame) error {
	if c.State() != ConnConnected {
		return fmt.Errorf("not connected (state: %s)", c.State())
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("no connection")
	}
	return conn.WriteJSON(frame)
}

// Close закрывает соединение и останавливает переподключение
func (c *WSConn) Close() error {
	select {
	case <-c.closeChan:
		return nil
	default:
		close(c.closeChan)
	}

	atomic.StoreInt32(&c.state, int32(ConnClosed))

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
