package skills

import (
	"strings"
	"sync"

	"jarvis/internal/logging"
)

// Registry holds the current skill set and swaps it on reload
type Registry struct {
	loader *Loader
	logger *logging.Logger

	mu     sync.RWMutex
	skills []*Skill
}

// NewRegistry creates an empty registry backed by loader
func NewRegistry(loader *Loader, logger *logging.Logger) *Registry {
	return &Registry{loader: loader, logger: logger}
}

// Reload rescans the skills directory. On error the previous set is kept.
func (r *Registry) Reload() error {
	skills, err := r.loader.LoadAll()
	if err != nil {
		r.logger.WithContext("error", err.Error()).Error("skill reload failed")
		return err
	}

	r.mu.Lock()
	r.skills = skills
	r.mu.Unlock()

	r.logger.WithContext("count", len(skills)).Info("skills reloaded")
	return nil
}

// List returns a snapshot of the loaded skills
func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Skill, len(r.skills))
	copy(out, r.skills)
	return out
}

// Match returns the skill whose keyword appears in command. The longest
// matching keyword wins; ties go to the skill that sorts first by name.
func (r *Registry) Match(command string) (*Skill, bool) {
	command = strings.ToLower(command)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Skill
	bestLen := 0
	for _, s := range r.skills {
		for _, kw := range s.Keywords() {
			if len(kw) > bestLen && strings.Contains(command, kw) {
				best, bestLen = s, len(kw)
			}
		}
	}
	return best, best != nil
}
