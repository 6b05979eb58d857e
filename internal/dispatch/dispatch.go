// Package dispatch routes a user utterance to capability handlers and
// records the exchange in the conversation log.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/capability"
	"jarvis/internal/intent"
	"jarvis/internal/logging"
	"jarvis/internal/store"
)

// ErrEmptyUtterance is returned for blank input
var ErrEmptyUtterance = errors.New("empty utterance")

// AccountNotFoundReply is the fast-path reply when the caller has no account
const AccountNotFoundReply = "❌ Error: User not found in database."

// Classifier splits an utterance into tagged sub-intents
type Classifier interface {
	Classify(ctx context.Context, utterance string) []string
}

// ConversationStore resolves accounts and records exchanges
type ConversationStore interface {
	GetAccountByUsername(ctx context.Context, username string) (*store.Account, error)
	AppendConversation(ctx context.Context, accountID, username, message, response string) error
}

// Activity is one completed exchange, published to observers
type Activity struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Tasks     []string  `json:"tasks"`
	Persisted bool      `json:"persisted"`
	At        time.Time `json:"at"`
	LatencyMS int64     `json:"latency_ms"`
}

// ActivitySink receives completed exchanges. Publish must not block.
type ActivitySink interface {
	Publish(a Activity)
}

// Handlers are the capability handlers a sub-intent can route to
type Handlers struct {
	Chat          capability.Handler
	Writer        capability.Handler
	Realtime      capability.Handler
	OpenSite      capability.Handler
	GoogleSearch  capability.Handler
	YouTubeSearch capability.Handler
	Automation    capability.Handler
}

// Dispatcher is the single entry point for user utterances
type Dispatcher struct {
	classifier Classifier
	handlers   Handlers
	store      ConversationStore
	sink       ActivitySink
	logger     *logging.Logger
}

// New creates a dispatcher
func New(classifier Classifier, handlers Handlers, conversations ConversationStore, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{classifier: classifier, handlers: handlers, store: conversations, logger: logger}
}

// SetActivitySink registers an observer for completed exchanges
func (d *Dispatcher) SetActivitySink(sink ActivitySink) {
	d.sink = sink
}

// route selects the handler for a task by prefix, first match wins
func (d *Dispatcher) route(task string) (capability.Handler, string) {
	switch {
	case strings.HasPrefix(task, intent.TagContent):
		return d.handlers.Writer, "writer"
	case strings.HasPrefix(task, intent.TagGoogleSearch):
		return d.handlers.GoogleSearch, "google_search"
	case strings.HasPrefix(task, intent.TagYouTubeSearch), strings.HasPrefix(task, intent.TagPlay):
		return d.handlers.YouTubeSearch, "youtube_search"
	case strings.HasPrefix(task, intent.TagOpen):
		return d.handlers.OpenSite, "open"
	case strings.HasPrefix(task, intent.TagRealtime), strings.HasPrefix(task, "real info"):
		return d.handlers.Realtime, "realtime"
	case strings.HasPrefix(task, intent.TagSystem), strings.HasPrefix(task, intent.TagClose), strings.HasPrefix(task, intent.TagReminder):
		return d.handlers.Automation, "automation"
	case strings.HasPrefix(task, intent.TagExit):
		return capability.HandlerFunc(goodbye), "exit"
	default:
		return d.handlers.Chat, "chat"
	}
}

func goodbye(ctx context.Context, req capability.Request) (string, error) {
	if req.Username == "" {
		return "👋 Goodbye!", nil
	}
	return fmt.Sprintf("👋 Goodbye, %s!", req.Username), nil
}

// Handle answers utterance for username and records the exchange. The reply
// is returned even when it cannot be persisted.
func (d *Dispatcher) Handle(ctx context.Context, utterance, username string) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "", ErrEmptyUtterance
	}
	start := time.Now()
	logger := d.logger.WithContext("username", username)

	var (
		reply string
		tasks []string
	)
	lower := strings.ToLower(utterance)
	if strings.HasPrefix(lower, "write ") || strings.HasPrefix(lower, "generate ") {
		tasks = []string{utterance}
		reply = d.write(ctx, utterance, username)
	} else {
		tasks = d.classifier.Classify(ctx, utterance)
		logger.WithContext("tasks", Redact(strings.Join(tasks, "; "))).Debug("utterance classified")

		replies := make([]string, 0, len(tasks))
		for _, task := range tasks {
			replies = append(replies, d.runTask(ctx, task, utterance, username))
		}
		reply = strings.Join(replies, "\n\n")
	}

	persisted := d.record(ctx, utterance, reply, username)

	latency := time.Since(start).Milliseconds()
	logger.WithFields(map[string]interface{}{
		"task_count": len(tasks),
		"persisted":  persisted,
		"latency_ms": latency,
	}).Info("utterance handled")

	// Observers get a redacted copy; the stored conversation is verbatim
	if d.sink != nil {
		d.sink.Publish(Activity{
			Username:  username,
			Message:   Redact(utterance),
			Response:  Redact(reply),
			Tasks:     redactAll(tasks),
			Persisted: persisted,
			At:        time.Now().UTC(),
			LatencyMS: latency,
		})
	}
	return reply, nil
}

// write is the fast path for explicit authoring requests
func (d *Dispatcher) write(ctx context.Context, utterance, username string) string {
	reply, err := d.invoke(ctx, d.handlers.Writer, capability.Request{Task: utterance, Utterance: utterance, Username: username})
	if errors.Is(err, capability.ErrAccountNotFound) {
		return AccountNotFoundReply
	}
	if err != nil {
		d.logger.WithContext("username", username).Error("content writer failed: %v", err)
		return fmt.Sprintf("❌ Error generating content: %v", err)
	}
	return reply
}

func (d *Dispatcher) runTask(ctx context.Context, task, utterance, username string) string {
	handler, name := d.route(task)
	reply, err := d.invoke(ctx, handler, capability.Request{Task: task, Utterance: utterance, Username: username})
	if err != nil {
		d.logger.WithFields(map[string]interface{}{
			"username": username,
			"handler":  name,
			"task":     task,
		}).Warn("task failed: %v", err)
		return fmt.Sprintf("❌ Error in task '%s': %v", task, err)
	}
	return reply
}

// invoke runs one handler, turning a panic or a missing handler into an error
func (d *Dispatcher) invoke(ctx context.Context, h capability.Handler, req capability.Request) (reply string, err error) {
	if h == nil {
		return "", errors.New("capability not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, req)
}

// record appends the exchange under the caller's account and reports
// whether it was stored
func (d *Dispatcher) record(ctx context.Context, utterance, reply, username string) bool {
	logger := d.logger.WithContext("username", username)

	account, err := d.store.GetAccountByUsername(ctx, username)
	if err != nil {
		logger.Warn("conversation not recorded, account lookup failed: %v", err)
		return false
	}
	if err := d.store.AppendConversation(ctx, account.ID, username, utterance, reply); err != nil {
		logger.Error("failed to record conversation: %v", err)
		return false
	}
	return true
}
