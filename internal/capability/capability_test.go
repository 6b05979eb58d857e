package capability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/logging"
	"jarvis/internal/search"
	"jarvis/internal/skills"
	"jarvis/internal/store"
)

var persona = Persona{AssistantName: "Jarvis", DefaultUser: "User"}

func TestRealtimeInfo(t *testing.T) {
	want := "Please use this real-time information if needed,\n" +
		"Day: Saturday\nDate: 14\nMonth: March\nYear: 2026\n" +
		"Time: 09 hours :05 minutes :07 seconds.\n"
	assert.Equal(t, want, realtimeInfo(fixedNow))
}

func TestRemoveBlankLines(t *testing.T) {
	assert.Equal(t, "a\n b\nc", removeBlankLines("\na\n\n b\n   \nc\n"))
	assert.Equal(t, "", removeBlankLines("\n \n"))
}

func TestChatHandle(t *testing.T) {
	p := &fakeProvider{reply: "Hello there.\n\n\nHow can I help?</s>"}
	c := NewChat(p, persona, logging.Discard())
	c.now = clock

	reply, err := c.Handle(context.Background(), Request{Task: "general hi", Utterance: "hi jarvis", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.\nHow can I help?", reply)

	require.Len(t, p.messages, 3)
	assert.Contains(t, p.messages[0].Content, "Hello, I am alice,")
	assert.Contains(t, p.messages[0].Content, "named Jarvis")
	assert.Equal(t, realtimeInfo(fixedNow), p.messages[1].Content)
	assert.Equal(t, "hi jarvis", p.messages[2].Content)
	assert.Equal(t, 1024, p.opts.MaxTokens)
}

func TestChatHandleFailure(t *testing.T) {
	c := NewChat(&fakeProvider{err: errors.New("rate limited")}, persona, logging.Discard())
	reply, err := c.Handle(context.Background(), Request{Utterance: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ChatFailureReply, reply)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "write_a_poem__about_go__20260314090507.txt", Filename("Write a poem (about Go)", fixedNow))

	long := Filename(strings.Repeat("a", 200), fixedNow)
	assert.Equal(t, strings.Repeat("a", 80)+"_20260314090507.txt", long)
}

func TestWriterHandle(t *testing.T) {
	p := &fakeProvider{reply: "Dear Sir,</s>"}
	files := &fakeFiles{accounts: map[string]*store.Account{"alice": {ID: "acc-1", Username: "alice"}}}
	w := NewWriter(p, files, logging.Discard())
	w.now = clock

	reply, err := w.Handle(context.Background(), Request{Task: "content leave application", Username: "alice"})
	require.NoError(t, err)

	require.Len(t, files.saved, 1)
	saved := files.saved[0]
	assert.Equal(t, "acc-1", saved.accountID)
	assert.Equal(t, "content_leave_application_20260314090507.txt", saved.filename)
	assert.Equal(t, "Dear Sir,", saved.content)
	assert.Equal(t, "✅ Content generated! <a href='/download/content_leave_application_20260314090507.txt' target='_blank'>Download here</a>", reply)
	assert.Equal(t, 2048, p.opts.MaxTokens)
	assert.Contains(t, p.messages[0].Content, "Hello, I am alice. You're a content writer.")
}

func TestWriterUnknownAccount(t *testing.T) {
	p := &fakeProvider{reply: "text"}
	files := &fakeFiles{accounts: map[string]*store.Account{}}
	w := NewWriter(p, files, logging.Discard())

	_, err := w.Handle(context.Background(), Request{Task: "write essay", Username: "ghost"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, files.saved)
	assert.Nil(t, p.messages, "no completion should run without an account")
}

func TestWriterUpstreamFailure(t *testing.T) {
	files := &fakeFiles{accounts: map[string]*store.Account{"alice": {ID: "acc-1"}}}
	w := NewWriter(&fakeProvider{err: errors.New("timeout")}, files, logging.Discard())

	reply, err := w.Handle(context.Background(), Request{Task: "write essay", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "❌ Error generating content: timeout", reply)
	assert.Empty(t, files.saved)
}

func TestWriterSaveFailure(t *testing.T) {
	files := &fakeFiles{accounts: map[string]*store.Account{"alice": {ID: "acc-1"}}, saveErr: errors.New("disk full")}
	w := NewWriter(&fakeProvider{reply: "x"}, files, logging.Discard())

	_, err := w.Handle(context.Background(), Request{Task: "write essay", Username: "alice"})
	assert.ErrorContains(t, err, "disk full")
}

func TestRealtimeHandle(t *testing.T) {
	p := &fakeProvider{reply: "The score is 2-1.\n\nFull stop."}
	s := &fakeSearcher{results: []search.Result{{Title: "Match", Description: "2-1 final"}}}
	r := NewRealtime(p, s, persona, logging.Discard())
	r.now = clock

	reply, err := r.Handle(context.Background(), Request{Task: "realtime score", Utterance: "what was the score", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "The score is 2-1.\nFull stop.", reply)
	assert.Equal(t, "what was the score", s.query)

	require.Len(t, p.messages, 4)
	assert.Contains(t, p.messages[0].Content, "Hello, I am bob,")
	assert.Equal(t, search.FormatResults("what was the score", s.results), p.messages[1].Content)
	assert.Equal(t, realtimeInfo(fixedNow), p.messages[2].Content)
	assert.Equal(t, 2048, p.opts.MaxTokens)
}

func TestRealtimeSearchFailureDegrades(t *testing.T) {
	p := &fakeProvider{reply: "I could not look that up."}
	r := NewRealtime(p, &fakeSearcher{err: errors.New("connection refused")}, persona, logging.Discard())

	reply, err := r.Handle(context.Background(), Request{Utterance: "news"})
	require.NoError(t, err)
	assert.Equal(t, "I could not look that up.", reply)
	assert.Contains(t, p.messages[1].Content, "connection refused")
	assert.True(t, strings.HasPrefix(p.messages[1].Content, "[start]"))
}

func TestRealtimeCompletionFailure(t *testing.T) {
	r := NewRealtime(&fakeProvider{err: errors.New("boom")}, &fakeSearcher{}, persona, logging.Discard())
	reply, err := r.Handle(context.Background(), Request{Utterance: "news"})
	require.NoError(t, err)
	assert.Equal(t, "❌ Error during real-time search: boom", reply)
}

func TestSiteURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com", SiteURL("YouTube"))
	assert.Equal(t, "https://www.stackoverflow.com", SiteURL("stack overflow"))
	assert.Equal(t, "http://example.org", SiteURL("http://example.org"))
}

func TestLaunchers(t *testing.T) {
	ctx := context.Background()

	reply, err := OpenSite.Handle(ctx, Request{Task: "open facebook"})
	require.NoError(t, err)
	assert.Contains(t, reply, "href='https://www.facebook.com'")

	reply, err = GoogleSearch.Handle(ctx, Request{Task: "google search go & rust"})
	require.NoError(t, err)
	assert.Contains(t, reply, "href='https://www.google.com/search?q=go+%26+rust'")
	assert.Contains(t, reply, ">go &amp; rust</a>")

	reply, err = YouTubeSearch.Handle(ctx, Request{Task: "play despacito"})
	require.NoError(t, err)
	assert.Contains(t, reply, "search_query=despacito")
	assert.Contains(t, reply, "Playing")

	reply, err = YouTubeSearch.Handle(ctx, Request{Task: "youtube search lofi beats"})
	require.NoError(t, err)
	assert.Contains(t, reply, "search_query=lofi+beats")

	_, err = OpenSite.Handle(ctx, Request{Task: "open"})
	assert.Error(t, err)
}

func TestAutomation(t *testing.T) {
	ctx := context.Background()
	skill := &skills.Skill{Name: "volume"}

	a := NewAutomation(&fakeSkills{}, &fakeRunner{}, logging.Discard())
	reply, err := a.Handle(ctx, Request{Task: "system mute"})
	require.NoError(t, err)
	assert.Equal(t, UnsupportedCommandReply, reply)

	runner := &fakeRunner{out: &skills.Output{Result: "🔇 Muted."}}
	a = NewAutomation(&fakeSkills{skill: skill}, runner, logging.Discard())
	reply, err = a.Handle(ctx, Request{Task: "System Mute", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "🔇 Muted.", reply)
	assert.Equal(t, skills.Input{Command: "system mute", Username: "alice"}, runner.input)

	a = NewAutomation(&fakeSkills{skill: skill}, &fakeRunner{out: &skills.Output{}}, logging.Discard())
	reply, _ = a.Handle(ctx, Request{Task: "system mute"})
	assert.Equal(t, "✅ volume done.", reply)

	a = NewAutomation(&fakeSkills{skill: skill}, &fakeRunner{err: errors.New("exit 1")}, logging.Discard())
	reply, err = a.Handle(ctx, Request{Task: "system mute"})
	require.NoError(t, err)
	assert.Equal(t, "❌ volume failed: exit 1", reply)

	a = NewAutomation(nil, nil, logging.Discard())
	reply, _ = a.Handle(ctx, Request{Task: "close chrome"})
	assert.Equal(t, UnsupportedCommandReply, reply)
}
