package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SentiPulse/internal/domain/models"
	drepo "SentiPulse/internal/domain/repository"
	"SentiPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// SocialStream implements a PostStream backed by the social upstream's
// WebSocket feed.
type SocialStream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	normalizer     *Normalizer
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewSocialStream creates a new social PostStream.
func NewSocialStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, normalizer *Normalizer, log *logger.Logger) drepo.PostStream {
	return &SocialStream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		normalizer:     normalizer,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (s *SocialStream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("social stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	s.log.Info("social stream connected")
	return nil
}

// Subscribe subscribes to configured symbols.
func (s *SocialStream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("social stream not connected")
	}
	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
		s.log.Info("social stream subscribed", logger.String("symbol", sym))
	}
	return nil
}

type wsFrame struct {
	Type   string          `json:"type"`
	Symbol string          `json:"symbol"`
	Data   json.RawMessage `json:"data"`
}

// Read streams normalized posts and errors.
func (s *SocialStream) Read(ctx context.Context) (<-chan *models.PostEvent, <-chan error) {
	posts := make(chan *models.PostEvent, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(posts)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("social stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("social stream read: %w", err)
					return
				}
				var frame wsFrame
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-post frames
					continue
				}
				if frame.Type != "post" {
					continue
				}
				post, err := s.normalizer.post(frame.Data)
				if err != nil {
					s.normalizer.drop("stream_post", err)
					continue
				}
				select {
				case posts <- &models.PostEvent{Symbol: frame.Symbol, Post: post}:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return posts, errs
}

// Reconnect closes and reconnects.
func (s *SocialStream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *SocialStream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *SocialStream) IsConnected() bool { return s.connected }
