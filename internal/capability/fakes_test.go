package capability

import (
	"context"
	"io"
	"sync"
	"time"

	"jarvis/internal/llm"
	"jarvis/internal/search"
	"jarvis/internal/skills"
	"jarvis/internal/store"
)

type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages []llm.Message
	opts     llm.Options
}

func (f *fakeProvider) Stream(ctx context.Context, messages []llm.Message, opts llm.Options, w io.Writer) (string, error) {
	f.mu.Lock()
	f.messages = messages
	f.opts = opts
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	// deliver in two chunks to exercise concatenation
	half := len(f.reply) / 2
	io.WriteString(w, f.reply[:half])
	io.WriteString(w, f.reply[half:])
	return f.reply, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) IsLocal() bool { return true }

type savedFile struct {
	accountID, filename, content string
}

type fakeFiles struct {
	accounts map[string]*store.Account
	saved    []savedFile
	saveErr  error
}

func (f *fakeFiles) GetAccountByUsername(ctx context.Context, username string) (*store.Account, error) {
	a, ok := f.accounts[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeFiles) SaveGeneratedFile(ctx context.Context, accountID, filename, content string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedFile{accountID, filename, content})
	return nil
}

type fakeSearcher struct {
	results []search.Result
	err     error
	query   string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	f.query = query
	return f.results, f.err
}

type fakeSkills struct {
	skill *skills.Skill
}

func (f *fakeSkills) Match(command string) (*skills.Skill, bool) {
	return f.skill, f.skill != nil
}

type fakeRunner struct {
	out   *skills.Output
	err   error
	input skills.Input
}

func (f *fakeRunner) Execute(ctx context.Context, skill *skills.Skill, input skills.Input) (*skills.Output, error) {
	f.input = input
	return f.out, f.err
}

var fixedNow = time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)

func clock() time.Time { return fixedNow }
