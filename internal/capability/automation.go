package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/logging"
	"jarvis/internal/skills"
)

// UnsupportedCommandReply is returned when no skill handles a command
const UnsupportedCommandReply = "❌ This command cannot be run in web version."

// SkillMatcher finds the skill for a command
type SkillMatcher interface {
	Match(command string) (*skills.Skill, bool)
}

// SkillRunner executes a skill
type SkillRunner interface {
	Execute(ctx context.Context, skill *skills.Skill, input skills.Input) (*skills.Output, error)
}

// Automation runs system, close and reminder commands through skills
type Automation struct {
	skills SkillMatcher
	runner SkillRunner
	logger *logging.Logger
}

// NewAutomation creates the automation handler. A nil matcher disables skills.
func NewAutomation(matcher SkillMatcher, runner SkillRunner, logger *logging.Logger) *Automation {
	return &Automation{skills: matcher, runner: runner, logger: logger}
}

// Handle runs the skill matching req.Task
func (a *Automation) Handle(ctx context.Context, req Request) (string, error) {
	command := strings.ToLower(strings.TrimSpace(req.Task))
	if a.skills == nil {
		return UnsupportedCommandReply, nil
	}
	skill, ok := a.skills.Match(command)
	if !ok {
		return UnsupportedCommandReply, nil
	}

	logger := a.logger.WithFields(map[string]interface{}{
		"skill_name": skill.Name,
		"username":   req.Username,
	})
	start := time.Now()
	out, err := a.runner.Execute(ctx, skill, skills.Input{Command: command, Username: req.Username})
	if err != nil {
		logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Warn("skill failed: %v", err)
		return fmt.Sprintf("❌ %s failed: %v", skill.Name, err), nil
	}
	logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Info("skill executed")

	if strings.TrimSpace(out.Result) == "" {
		return fmt.Sprintf("✅ %s done.", skill.Name), nil
	}
	return out.Result, nil
}
