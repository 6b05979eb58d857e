// Package capability holds the handlers a dispatched sub-intent runs:
// chat, content writing, realtime search answering, browser launchers and
// automation skills.
package capability

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request is one sub-intent to handle
type Request struct {
	Task      string // tagged sub-intent, or the raw utterance on the write fast path
	Utterance string // full user utterance
	Username  string // resolved identity of the caller
}

// Handler produces the reply text for a request. External-service failures
// are rendered into the reply; a returned error means the handler itself
// could not run.
type Handler interface {
	Handle(ctx context.Context, req Request) (string, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, req Request) (string, error)

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Persona names the assistant and the fallback user in prompts
type Persona struct {
	AssistantName string
	DefaultUser   string
}

func (p Persona) user(username string) string {
	if username != "" {
		return username
	}
	if p.DefaultUser != "" {
		return p.DefaultUser
	}
	return "User"
}

// realtimeInfo renders the current date and time for the completion prompt
func realtimeInfo(now time.Time) string {
	return fmt.Sprintf("Please use this real-time information if needed,\n"+
		"Day: %s\nDate: %s\nMonth: %s\nYear: %s\n"+
		"Time: %s hours :%s minutes :%s seconds.\n",
		now.Format("Monday"), now.Format("02"), now.Format("January"), now.Format("2006"),
		now.Format("15"), now.Format("04"), now.Format("05"))
}

// removeBlankLines drops lines that are empty or whitespace-only
func removeBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// stripTag removes a leading tag and the following space from task
func stripTag(task string, tags ...string) string {
	for _, tag := range tags {
		if strings.HasPrefix(task, tag) {
			return strings.TrimSpace(strings.TrimPrefix(task, tag))
		}
	}
	return strings.TrimSpace(task)
}
