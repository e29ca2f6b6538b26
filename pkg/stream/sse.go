package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/logger"
)

// maxFrame bounds a single SSE line
const maxFrame = 1 << 20

// SSESource reads the server-sent events endpoint. The http.Client is
// expected to add the bearer token; pkg/client's stream client does.
type SSESource struct {
	Client *http.Client
	URL    string
}

// NewSSESource returns a source for url
func NewSSESource(c *http.Client, url string) *SSESource {
	return &SSESource{Client: c, URL: url}
}

// Name implements Source
func (s *SSESource) Name() string { return "sse" }

// Run implements Source. It returns nil when the server closes the stream
// and ctx.Err() when cancelled.
func (s *SSESource) Run(ctx context.Context, emit Emit) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &api.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("stream rejected: %s", resp.Status)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), maxFrame)

	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Bytes()

		switch {
		case len(line) == 0:
			// Blank line ends the frame
			if data.Len() == 0 {
				continue
			}
			payload := append([]byte(nil), data.Bytes()...)
			data.Reset()
			if err := dispatch(payload, emit); err != nil {
				return err
			}
		case line[0] == ':':
			// comment / keep-alive
		case bytes.HasPrefix(line, []byte("data:")):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" ")))
		default:
			// event:, id: and retry: carry nothing the backend uses
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	logger.Debug("Notification stream closed by server")
	return nil
}

// dispatch decodes one payload and hands it on. Malformed payloads are
// skipped.
func dispatch(payload []byte, emit Emit) error {
	ev, err := Decode(payload)
	if err != nil {
		logger.Debug("Skipping stream event", "error", err)
		return nil
	}
	return emit(ev)
}
