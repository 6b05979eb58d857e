package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"jarvis/internal/logging"
)

// Executor runs skills as subprocesses
type Executor struct {
	logger *logging.Logger
}

// NewExecutor creates a skill executor
func NewExecutor(logger *logging.Logger) *Executor {
	return &Executor{logger: logger}
}

// Input is the JSON sent to skill stdin
type Input struct {
	Command  string                 `json:"command"`
	Username string                 `json:"username"`
	Settings map[string]interface{} `json:"settings"`
}

// Output is the JSON received from skill stdout
type Output struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Execute runs skill with input, bounded by the skill's timeout
func (e *Executor) Execute(ctx context.Context, skill *Skill, input Input) (*Output, error) {
	logger := e.logger.WithFields(map[string]interface{}{
		"skill_name": skill.Name,
		"skill_path": skill.Path,
	})
	logger.Debug("starting skill execution")

	ctx, cancel := context.WithTimeout(ctx, skill.Timeout)
	defer cancel()

	if input.Settings == nil {
		input.Settings = skill.Settings
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	cmd := exec.CommandContext(ctx, skill.Executable)
	cmd.Dir = skill.Path
	cmd.Env = buildEnv(skill)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.WithContext("timeout", skill.Timeout.String()).Error("skill execution timed out")
		return nil, fmt.Errorf("skill execution timed out after %v", skill.Timeout)
	}

	var output Output
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		logger.WithFields(map[string]interface{}{
			"error":  err.Error(),
			"stderr": stderr.String(),
		}).Error("failed to parse skill output")
		if runErr != nil {
			return nil, fmt.Errorf("skill exited: %w", runErr)
		}
		return nil, fmt.Errorf("failed to parse skill output: %w", err)
	}

	if output.Error != "" {
		logger.WithContext("skill_error", output.Error).Warn("skill returned error")
		return &output, fmt.Errorf("skill error: %s", output.Error)
	}

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	logger.WithContext("exit_code", exitCode).Debug("skill execution completed")
	return &output, nil
}

func buildEnv(skill *Skill) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
		"JARVIS_SKILL_NAME=" + skill.Name,
		"JARVIS_SKILL_VERSION=" + skill.Version,
	}
	for key, value := range skill.Settings {
		env = append(env, fmt.Sprintf("JARVIS_SETTING_%s=%v", strings.ToUpper(key), value))
	}
	return env
}
