package llm

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jarvis/internal/logging"
)

// call is the bookkeeping shared by one streaming request
type call struct {
	name   string
	logger *logging.Logger
	start  time.Time
	text   strings.Builder
	chunks int
	w      io.Writer
}

func newCall(name, model string, messages int, logger *logging.Logger, w io.Writer) *call {
	c := &call{
		name: name,
		logger: logger.WithFields(map[string]interface{}{
			"provider":      name,
			"model":         model,
			"message_count": messages,
		}),
		start: time.Now(),
		w:     w,
	}
	c.logger.Debug("starting chat stream request")
	return c
}

func (c *call) latency() int64 { return time.Since(c.start).Milliseconds() }

// emit appends a chunk to the response and forwards it to the writer
func (c *call) emit(content string) error {
	if content == "" {
		return nil
	}
	c.text.WriteString(content)
	c.chunks++
	_, err := io.WriteString(c.w, content)
	return err
}

func (c *call) fail(msg string, err error) error {
	c.logger.WithFields(map[string]interface{}{
		"error":      err.Error(),
		"latency_ms": c.latency(),
	}).Error(msg)
	return fmt.Errorf("%s: %s: %w", c.name, msg, err)
}

// checkStatus turns a non-200 reply into an error carrying the body
func (c *call) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.logger.WithFields(map[string]interface{}{
		"status":     resp.StatusCode,
		"latency_ms": c.latency(),
	}).Error("stream returned non-OK status")
	return fmt.Errorf("%s: stream returned status %d: %s", c.name, resp.StatusCode, strings.TrimSpace(string(body)))
}

func (c *call) done() string {
	c.logger.WithFields(map[string]interface{}{
		"latency_ms":      c.latency(),
		"chunks":          c.chunks,
		"response_length": c.text.Len(),
	}).Debug("chat stream completed")
	return c.text.String()
}

// sseData calls fn with the payload of every "data: " line until fn
// reports the stream is finished or the body ends
func sseData(body io.Reader, fn func(data string) (bool, error)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		finished, err := fn(data)
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
	}
	return scanner.Err()
}
