package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a console logger on stderr. Debug mode lowers the level to
// debug and adds caller and stack information.
func Setup(debug bool) zerolog.Logger {
	return setup(os.Stderr, debug)
}

func setup(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
		return time.Now().Format(time.RFC3339)
	}}).Level(level).With().Timestamp().Logger()

	if debug {
		logger = logger.With().Caller().Stack().Logger()
	}

	return logger
}

var _ http.RoundTripper = (*Transport)(nil)

// Transport logs every HTTP request made through it.
type Transport struct {
	logger zerolog.Logger
	next   http.RoundTripper
}

// NewTransport wraps next (http.DefaultTransport when nil) with request logging.
func NewTransport(logger zerolog.Logger, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{logger: logger, next: next}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	l := t.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Logger()

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		l.Error().
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("http request")

		return resp, err
	}

	ev := l.Debug()
	if resp.StatusCode >= 500 {
		ev = l.Warn()
	}
	ev.Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("http request")

	return resp, nil
}
