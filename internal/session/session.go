package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Keys used in the underlying Store.
const (
	KeyToken     = "token"
	KeyUsername  = "username"
	KeyResponses = "responses"
)

// Exchange is one question and the answer the tutor returned for it.
type Exchange struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
	Filename  string    `json:"filename,omitempty"`
}

// Session is the typed view over a Store holding the bearer token, the display
// username and the exchange history.
type Session struct {
	store Store
	now   func() time.Time
}

// New wraps store in a Session.
func New(store Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Token returns the stored bearer token, or "" when there is none.
func (s *Session) Token() (string, error) {
	token, _, err := s.store.Get(KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// HasToken reports whether a non-empty token is stored. Read errors count as
// no token.
func (s *Session) HasToken() bool {
	token, err := s.Token()
	if err != nil {
		log.Debug().Err(err).Msg("treating unreadable session as unauthenticated")
		return false
	}
	return token != ""
}

// Username returns the stored display username.
func (s *Session) Username() (string, error) {
	username, _, err := s.store.Get(KeyUsername)
	if err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return username, nil
}

// SetAuth stores the token and the username it was issued for.
func (s *Session) SetAuth(token, username string) error {
	if err := s.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.store.Set(KeyUsername, username); err != nil {
		return fmt.Errorf("failed to store username: %w", err)
	}
	return nil
}

// ClearToken removes the token and username, keeping the exchange history.
// It returns true only if a token was actually present.
func (s *Session) ClearToken() (bool, error) {
	var cleared bool
	err := s.store.Update(func(items map[string]string) error {
		cleared = items[KeyToken] != ""
		if !cleared {
			return nil
		}
		delete(items, KeyToken)
		delete(items, KeyUsername)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to clear token: %w", err)
	}

	return cleared, nil
}

// Exchanges returns the stored history in append order.
func (s *Session) Exchanges() ([]Exchange, error) {
	raw, _, err := s.store.Get(KeyResponses)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return decodeExchanges(raw)
}

func decodeExchanges(raw string) ([]Exchange, error) {
	if raw == "" {
		return []Exchange{}, nil
	}

	var exchanges []Exchange
	if err := json.Unmarshal([]byte(raw), &exchanges); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrCorruptStore, err)
	}

	return exchanges, nil
}

// AppendExchange adds one exchange to the end of the history and persists it.
// The read and the write happen inside one store update, so appends from
// concurrent processes are not lost.
func (s *Session) AppendExchange(question, answer, filename string) (Exchange, error) {
	ex := Exchange{
		Question:  question,
		Answer:    answer,
		CreatedAt: s.now().UTC(),
		Filename:  filename,
	}

	var count int
	err := s.store.Update(func(items map[string]string) error {
		exchanges, err := decodeExchanges(items[KeyResponses])
		if err != nil {
			return err
		}
		exchanges = append(exchanges, ex)
		count = len(exchanges)

		data, err := json.Marshal(exchanges)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		items[KeyResponses] = string(data)
		return nil
	})
	if err != nil {
		return Exchange{}, fmt.Errorf("failed to store history: %w", err)
	}

	log.Debug().Int("count", count).Msg("exchange appended")

	return ex, nil
}

// Clear removes the token, username and exchange history. The store holds
// nothing else, so it is reset wholesale; this also recovers a session file
// that can no longer be decoded.
func (s *Session) Clear() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}
