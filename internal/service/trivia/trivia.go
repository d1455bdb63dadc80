// Package trivia fetches the side question shown to players during a night round.
// Question content comes from an external service; this package only knows how to
// ask for one and what to use when the service is unavailable.
package trivia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var ErrEmptyQuestion = errors.New("trivia: empty question")

type Question struct {
	// ID is whatever the upstream service returned; it may repeat across rounds.
	ID   string
	Text string
}

type Source interface {
	Next(ctx context.Context, round int) (Question, error)
}

// HTTPSource performs GET <url> and expects {"id": "...", "text": "..."}.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Next(ctx context.Context, round int) (Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Question{}, fmt.Errorf("trivia: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Question{}, fmt.Errorf("trivia: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Question{}, fmt.Errorf("trivia: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Question{}, fmt.Errorf("trivia: read body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return Question{}, errors.New("trivia: invalid json payload")
	}

	q := Question{
		ID:   gjson.GetBytes(body, "id").String(),
		Text: strings.TrimSpace(gjson.GetBytes(body, "text").String()),
	}

	if q.Text == "" {
		return Question{}, ErrEmptyQuestion
	}

	return q, nil
}

// Static always returns the same question.
type Static struct {
	Text string
}

func (s Static) Next(_ context.Context, round int) (Question, error) {
	if s.Text == "" {
		return Question{}, ErrEmptyQuestion
	}

	return Question{ID: fmt.Sprintf("q-%d", round), Text: s.Text}, nil
}

// WithFallback answers from primary and falls back to the static text on any error.
type WithFallback struct {
	Primary  Source
	Fallback Static
}

func (s WithFallback) Next(ctx context.Context, round int) (Question, error) {
	if s.Primary != nil {
		q, err := s.Primary.Next(ctx, round)
		if err == nil {
			return q, nil
		}

		zap.L().Warn(
			"trivia source failed, using fallback question",
			zap.Int("night_round", round),
			zap.Error(err),
		)
	}

	return s.Fallback.Next(ctx, round)
}

// New builds the source described by the service url; an empty url means fallback only.
func New(url string, timeout time.Duration, fallbackText string) Source {
	var primary Source
	if url != "" {
		primary = NewHTTPSource(url, timeout)
	}

	return WithFallback{
		Primary:  primary,
		Fallback: Static{Text: fallbackText},
	}
}
