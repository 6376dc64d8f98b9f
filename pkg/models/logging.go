package models

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"
)

// LoggingChatClient logs every call made through the wrapped client.
type LoggingChatClient struct {
	next     ChatClient
	provider string
	logger   *log.Logger
}

// NewLoggingChatClient wraps next. A nil logger falls back to the standard logger.
func NewLoggingChatClient(next ChatClient, provider string, logger *log.Logger) *LoggingChatClient {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingChatClient{next: next, provider: provider, logger: logger}
}

func (l *LoggingChatClient) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	start := time.Now()
	l.logger.Printf("%s chat: model=%s messages=%d tools=%d", l.provider, req.Model, len(req.Messages), len(req.Tools))

	raw, err := l.next.Chat(ctx, req)
	if err != nil {
		l.logger.Printf("%s chat failed after %s: %v", l.provider, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	l.logger.Printf("%s chat reply: %d bytes in %s", l.provider, len(raw), time.Since(start).Round(time.Millisecond))
	return raw, nil
}

// Close closes the wrapped client when it holds resources.
func (l *LoggingChatClient) Close() error {
	if c, ok := l.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ ChatClient = (*LoggingChatClient)(nil)
