package intent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jarvis/internal/llm"
)

// Example is one few-shot pair
type Example struct {
	Query  string `yaml:"query"`
	Answer string `yaml:"answer"`
}

// Prompt is the classifier's instruction preamble and its examples
type Prompt struct {
	Preamble string    `yaml:"preamble"`
	Examples []Example `yaml:"examples"`
}

// DefaultPrompt returns the built-in classifier prompt
func DefaultPrompt() Prompt {
	return Prompt{
		Preamble: `You are a very accurate Decision-Making Model, which decides what kind of a query is given to you.
You will decide whether a query is a 'general' query, a 'realtime' query, or is asking to perform any task or automation like 'open facebook, instagram', 'can you write a application and open it in notepad'.
Answer with a comma separated list where every item starts with one of: ` + strings.Join(Vocabulary, ", ") + `, followed by the relevant part of the query.
*** Do not answer any query, just decide what kind of query is given to you. ***`,
		Examples: []Example{
			{Query: "how are you?", Answer: "general how are you?"},
			{Query: "open chrome and tell me about mahatma gandhi.", Answer: "open chrome, general tell me about mahatma gandhi"},
			{Query: "remind me that i have dancing performance on 5th aug at 11pm", Answer: "reminder 11:00pm 5th aug dancing performance"},
			{Query: "who won the match yesterday?", Answer: "realtime who won the match yesterday?"},
			{Query: "write an application for sick leave and play lofi music", Answer: "content application for sick leave, play lofi music"},
			{Query: "bye jarvis", Answer: "exit"},
		},
	}
}

// LoadPrompt reads a YAML prompt file. Missing fields fall back to the
// built-in prompt.
func LoadPrompt(path string) (Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to read prompt file: %w", err)
	}
	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompt{}, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	def := DefaultPrompt()
	if strings.TrimSpace(p.Preamble) == "" {
		p.Preamble = def.Preamble
	}
	if len(p.Examples) == 0 {
		p.Examples = def.Examples
	}
	for i, ex := range p.Examples {
		if ex.Query == "" || ex.Answer == "" {
			return Prompt{}, fmt.Errorf("prompt example %d needs both query and answer", i+1)
		}
	}
	return p, nil
}

// Messages renders the prompt plus the utterance as a chat transcript
func (p Prompt) Messages(utterance string) []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(p.Examples)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: p.Preamble})
	for _, ex := range p.Examples {
		msgs = append(msgs,
			llm.Message{Role: "user", Content: ex.Query},
			llm.Message{Role: "assistant", Content: ex.Answer},
		)
	}
	return append(msgs, llm.Message{Role: "user", Content: utterance})
}
