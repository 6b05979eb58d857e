// Package intent turns a free-form utterance into a list of tagged
// sub-intents using a few-shot completion prompt.
package intent

import "strings"

const (
	TagExit          = "exit"
	TagGeneral       = "general"
	TagRealtime      = "realtime"
	TagOpen          = "open"
	TagClose         = "close"
	TagPlay          = "play"
	TagSystem        = "system"
	TagContent       = "content"
	TagGoogleSearch  = "google search"
	TagYouTubeSearch = "youtube search"
	TagReminder      = "reminder"

	// TagError marks a classification that failed upstream
	TagError = "error"
)

// Vocabulary is the closed set of tags a classification may start with
var Vocabulary = []string{
	TagExit, TagGeneral, TagRealtime, TagOpen, TagClose, TagPlay,
	TagSystem, TagContent, TagGoogleSearch, TagYouTubeSearch, TagReminder,
}

const placeholder = "(query)"

// Parse extracts tagged sub-intents from raw completion text: newlines are
// dropped, the text is split on commas and only trimmed pieces starting with
// a known tag are kept, in order.
func Parse(raw string) []string {
	raw = strings.ReplaceAll(raw, "\n", "")
	var out []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		for _, tag := range Vocabulary {
			if strings.HasPrefix(piece, tag) {
				out = append(out, piece)
				break
			}
		}
	}
	return out
}

func hasPlaceholder(tasks []string) bool {
	for _, t := range tasks {
		if strings.Contains(t, placeholder) {
			return true
		}
	}
	return false
}
