package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultChannels are subscribed to on connect.
var DefaultChannels = []string{"account", "symbols", "quotes"}

// WSSource streams events from the broker bridge over WebSocket.
type WSSource struct {
	cfg       ClientConfig
	id        uuid.UUID
	logger    *slog.Logger
	newClient func(ClientConfig, *slog.Logger) Client
}

// NewWSSource creates a WebSocket source. id correlates the subscribe command.
func NewWSSource(cfg ClientConfig, id uuid.UUID, logger *slog.Logger) *WSSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSSource{
		cfg:       cfg,
		id:        id,
		logger:    logger,
		newClient: NewClient,
	}
}

// Run connects, subscribes and forwards decoded events until ctx is cancelled
// or the connection fails. A normal server close returns nil.
func (s *WSSource) Run(ctx context.Context, out chan<- Event) error {
	c := s.newClient(s.cfg, s.logger)
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer c.Close()

	cmd := Command{
		ID:     s.id.String(),
		Cmd:    "subscribe",
		Params: SubscribeParams{Channels: DefaultChannels},
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	if err := c.Send(data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}
	s.logger.Info("subscribed", "id", cmd.ID, "channels", DefaultChannels)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-c.Errors():
			// The read loop has stopped; deliver what it already buffered.
			if derr := s.drain(ctx, c, out); derr != nil {
				return derr
			}
			if errors.Is(err, ErrFeedClosed) {
				s.logger.Info("feed closed by server")
				return nil
			}
			return fmt.Errorf("read feed: %w", err)

		case msg := <-c.Messages():
			if err := s.forward(ctx, msg, out); err != nil {
				return err
			}
		}
	}
}

func (s *WSSource) drain(ctx context.Context, c Client, out chan<- Event) error {
	for {
		select {
		case msg := <-c.Messages():
			if err := s.forward(ctx, msg, out); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// forward decodes msg and sends the resulting event, if any.
func (s *WSSource) forward(ctx context.Context, msg RawMessage, out chan<- Event) error {
	ev, ok, err := Decode(msg.Data, msg.ReceivedAt)
	if err != nil {
		var serr *ServerError
		if errors.As(err, &serr) {
			s.logger.Warn("feed error", "code", serr.Code, "message", serr.Message)
		} else {
			s.logger.Warn("dropping malformed message", "error", err)
		}
		return nil
	}
	if !ok {
		return nil
	}
	return send(ctx, out, ev)
}
