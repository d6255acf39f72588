package tutor

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/aitutor/internal/api"
	"github.com/wolfeidau/aitutor/internal/session"
	"github.com/wolfeidau/aitutor/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// answer is the body returned by /tutor and /upload.
type answer struct {
	Response string `json:"response"`
	Filename string `json:"filename,omitempty"`
	User     string `json:"user,omitempty"`
}

// Flow sends questions and documents to the tutor and records the answers.
type Flow struct {
	client  *api.Client
	session *session.Session
}

func NewFlow(client *api.Client, sess *session.Session) *Flow {
	return &Flow{client: client, session: sess}
}

// Ask sends question to the tutor and appends the exchange to the history
// exactly as asked. The history is only touched after a successful response.
func (f *Flow) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", api.NewValidationError("question is required")
	}

	var out answer
	err := f.client.Do(ctx, api.Request{
		Method:       http.MethodGet,
		Path:         "/tutor",
		Query:        url.Values{"topic": {question}},
		RequiresAuth: true,
	}, &out)
	if err != nil {
		return "", err
	}

	if _, err := f.session.AppendExchange(question, out.Response, ""); err != nil {
		return "", err
	}

	telemetry.GetMetrics().ExchangesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "question")))

	log.Debug().Str("topic", question).Int("answer_len", len(out.Response)).Msg("tutor answered")

	return out.Response, nil
}

// Upload sends a document for analysis and appends the exchange to the history.
func (f *Flow) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", api.NewValidationError("file is required")
	}
	if content == nil {
		return "", api.NewValidationError("file content is required")
	}

	var out answer
	err := f.client.Do(ctx, api.Request{
		Method:       http.MethodPost,
		Path:         "/upload",
		Body:         api.FileBody("file", name, content),
		RequiresAuth: true,
	}, &out)
	if err != nil {
		return "", err
	}

	if _, err := f.session.AppendExchange("Uploaded "+name, out.Response, name); err != nil {
		return "", err
	}

	telemetry.GetMetrics().ExchangesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "upload")))

	log.Debug().Str("filename", name).Msg("document analysed")

	return out.Response, nil
}

// History returns every recorded exchange, oldest first.
func (f *Flow) History() ([]session.Exchange, error) {
	return f.session.Exchanges()
}

// Answer returns the answer of the exchange at index, counting from 1. Zero or a
// negative index selects from the end, so 0 is the most recent.
func (f *Flow) Answer(index int) (session.Exchange, error) {
	exchanges, err := f.session.Exchanges()
	if err != nil {
		return session.Exchange{}, err
	}
	if len(exchanges) == 0 {
		return session.Exchange{}, api.NewValidationError("history is empty")
	}

	pos := index - 1
	if index <= 0 {
		pos = len(exchanges) - 1 + index
	}
	if pos < 0 || pos >= len(exchanges) {
		return session.Exchange{}, api.NewValidationError("no exchange at index %d (have %d)", index, len(exchanges))
	}

	return exchanges[pos], nil
}
