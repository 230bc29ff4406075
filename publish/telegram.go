// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMessageLimit is the Telegram per-message character limit the
// splitter targets, kept below the hard API maximum to leave headroom
// for formatting.
const DefaultMessageLimit = 4000

// TelegramPublisher delivers digests to a Telegram chat via the Bot API.
type TelegramPublisher struct {
	botToken string
	chatID   string
	limit    int
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
}

var _ Publisher = (*TelegramPublisher)(nil)

// TelegramOption customizes a TelegramPublisher.
type TelegramOption func(*TelegramPublisher)

// WithMessageLimit overrides the per-message split limit.
func WithMessageLimit(limit int) TelegramOption {
	return func(p *TelegramPublisher) {
		p.limit = limit
	}
}

// WithBaseURL overrides the Bot API endpoint, used in tests.
func WithBaseURL(base string) TelegramOption {
	return func(p *TelegramPublisher) {
		p.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(p *TelegramPublisher) {
		p.client = client
	}
}

// NewTelegramPublisher registers the bot token and chat identifier.
func NewTelegramPublisher(botToken, chatID string, opts ...TelegramOption) (*TelegramPublisher, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram publisher: bot token and chat id are required")
	}
	p := &TelegramPublisher{
		botToken: botToken,
		chatID:   chatID,
		limit:    DefaultMessageLimit,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   slog.Default().With("component", "telegram-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type sendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

// Publish splits the document and posts each segment as a Markdown
// message. The delivery identifier is the chat id joined with the last
// message id. A failure on any segment aborts the remainder.
func (p *TelegramPublisher) Publish(ctx context.Context, document string) (string, error) {
	segments := SplitMessage(document, p.limit)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrPublishUnavailable)
	}

	var lastID int64
	for i, segment := range segments {
		id, err := p.sendMessage(ctx, segment)
		if err != nil {
			p.logger.Error("failed to deliver segment",
				"segment", i+1, "of", len(segments), "err", err)
			return "", fmt.Errorf("%w: segment %d/%d: %w",
				ErrPublishUnavailable, i+1, len(segments), err)
		}
		lastID = id
	}

	p.logger.Info("delivered digest", "segments", len(segments))
	return fmt.Sprintf("%s:%d", p.chatID, lastID), nil
}

func (p *TelegramPublisher) sendMessage(ctx context.Context, text string) (int64, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, p.botToken)
	form := url.Values{}
	form.Set("chat_id", p.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var parsed sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return 0, fmt.Errorf("telegram error: %s %s", resp.Status, parsed.Description)
	}

	return parsed.Result.MessageID, nil
}
