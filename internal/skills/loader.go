// Package skills loads keyword-triggered automation skills from disk and
// runs them as subprocesses.
package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jarvis/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Skill is a loaded skill with its metadata and configuration
type Skill struct {
	Name        string
	Version     string
	Description string
	Executable  string
	Triggers    []Trigger
	Settings    map[string]interface{}
	Timeout     time.Duration
	Path        string
}

// Trigger defines when a skill executes
type Trigger struct {
	Type       string                 `json:"type"` // "keyword" or "manual"
	Parameters map[string]interface{} `json:"parameters"`
}

// Metadata is the skill.json structure
type Metadata struct {
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Executable  string                 `json:"executable"`
	Triggers    []Trigger              `json:"triggers"`
	Settings    map[string]interface{} `json:"settings"`
	Timeout     int                    `json:"timeout"` // seconds
}

// Keywords returns the lower-cased keywords of every keyword trigger
func (s *Skill) Keywords() []string {
	var out []string
	for _, t := range s.Triggers {
		if t.Type != "keyword" {
			continue
		}
		raw, ok := t.Parameters["keywords"].([]interface{})
		if !ok {
			continue
		}
		for _, k := range raw {
			if kw, ok := k.(string); ok && strings.TrimSpace(kw) != "" {
				out = append(out, strings.ToLower(strings.TrimSpace(kw)))
			}
		}
	}
	return out
}

// Loader discovers skills in a directory
type Loader struct {
	skillsDir string
	logger    *logging.Logger
}

// NewLoader creates a skill loader
func NewLoader(skillsDir string, logger *logging.Logger) *Loader {
	return &Loader{skillsDir: skillsDir, logger: logger}
}

// Dir returns the directory the loader scans
func (l *Loader) Dir() string {
	return l.skillsDir
}

// LoadAll loads every valid skill under the skills directory, sorted by name.
// A missing directory yields no skills. Invalid skills are logged and skipped.
func (l *Loader) LoadAll() ([]*Skill, error) {
	l.logger.WithContext("skills_dir", l.skillsDir).Debug("loading skills")

	entries, err := os.ReadDir(l.skillsDir)
	if os.IsNotExist(err) {
		l.logger.Debug("skills directory does not exist")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read skills directory: %w", err)
	}

	var skills []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(l.skillsDir, entry.Name())
		if _, err := os.Stat(filepath.Join(skillPath, "skill.json")); os.IsNotExist(err) {
			continue
		}

		skill, err := loadSkill(skillPath)
		if err != nil {
			l.logger.WithFields(map[string]interface{}{
				"skill_dir": entry.Name(),
				"error":     err.Error(),
			}).Warn("failed to load skill")
			continue
		}
		skills = append(skills, skill)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	l.logger.WithContext("count", len(skills)).Debug("skills loaded")
	return skills, nil
}

func loadSkill(path string) (*Skill, error) {
	data, err := os.ReadFile(filepath.Join(path, "skill.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read skill.json: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse skill.json: %w", err)
	}
	if meta.Name == "" {
		return nil, fmt.Errorf("skill.json missing required field: name")
	}
	if meta.Executable == "" {
		return nil, fmt.Errorf("skill.json missing required field: executable")
	}

	execPath := filepath.Join(path, meta.Executable)
	rel, err := filepath.Rel(path, execPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("executable %s escapes the skill directory", meta.Executable)
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return nil, fmt.Errorf("executable not found: %s", execPath)
	}
	if info.Mode()&0111 == 0 {
		return nil, fmt.Errorf("executable %s does not have execute permissions", execPath)
	}

	timeout := time.Duration(meta.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Skill{
		Name:        meta.Name,
		Version:     meta.Version,
		Description: meta.Description,
		Executable:  execPath,
		Triggers:    meta.Triggers,
		Settings:    meta.Settings,
		Timeout:     timeout,
		Path:        path,
	}, nil
}
