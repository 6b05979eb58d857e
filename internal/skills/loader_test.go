package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jarvis/internal/logging"
)

func writeSkill(t *testing.T, dir, name, meta, script string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	if err := os.MkdirAll(skillDir, 0755); err != nil {
		t.Fatalf("Failed to create skill directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(skillDir, "skill.json"), []byte(meta), 0644); err != nil {
		t.Fatalf("Failed to write skill.json: %v", err)
	}
	if script != "" {
		if err := os.WriteFile(filepath.Join(skillDir, "run.sh"), []byte(script), 0755); err != nil {
			t.Fatalf("Failed to write executable: %v", err)
		}
	}
}

func keywordMeta(name string, keywords ...string) string {
	return `{"name":"` + name + `","version":"1.0.0","executable":"run.sh","timeout":5,
		"triggers":[{"type":"keyword","parameters":{"keywords":["` + strings.Join(keywords, `","`) + `"]}}]}`
}

func TestLoadAll_NonExistentDirectory(t *testing.T) {
	loader := NewLoader("/nonexistent/path", logging.Discard())
	skills, err := loader.LoadAll()
	if err != nil {
		t.Errorf("LoadAll should not error on nonexistent directory, got: %v", err)
	}
	if len(skills) != 0 {
		t.Errorf("Expected 0 skills, got %d", len(skills))
	}
}

func TestLoadAll_ValidSkill(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "volume", keywordMeta("volume", "mute", "Volume Up"), "#!/bin/sh\necho '{}'\n")

	skills, err := NewLoader(tmpDir, logging.Discard()).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("Expected 1 skill, got %d", len(skills))
	}
	s := skills[0]
	if s.Name != "volume" || s.Version != "1.0.0" {
		t.Errorf("Unexpected skill metadata: %+v", s)
	}
	if s.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", s.Timeout)
	}
	kws := s.Keywords()
	if len(kws) != 2 || kws[1] != "volume up" {
		t.Errorf("Expected lower-cased keywords, got %v", kws)
	}
}

func TestLoadAll_SkipsInvalidSkills(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "noname", `{"executable":"run.sh"}`, "#!/bin/sh\n")
	writeSkill(t, tmpDir, "noexec", `{"name":"noexec","executable":"missing.sh"}`, "")
	writeSkill(t, tmpDir, "escape", `{"name":"escape","executable":"../run.sh"}`, "")
	writeSkill(t, tmpDir, "badjson", `{not json`, "")
	writeSkill(t, tmpDir, "good", keywordMeta("good", "x"), "#!/bin/sh\n")

	if err := os.WriteFile(filepath.Join(tmpDir, "good", "plain.sh"), []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatal(err)
	}
	writeSkill(t, tmpDir, "noperm", `{"name":"noperm","executable":"../good/plain.sh"}`, "")

	skills, err := NewLoader(tmpDir, logging.Discard()).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(skills) != 1 || skills[0].Name != "good" {
		t.Fatalf("Expected only the valid skill, got %d", len(skills))
	}
}

func TestLoadAll_DefaultTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "t", `{"name":"t","executable":"run.sh"}`, "#!/bin/sh\n")

	skills, err := NewLoader(tmpDir, logging.Discard()).LoadAll()
	if err != nil || len(skills) != 1 {
		t.Fatalf("LoadAll: %v (%d skills)", err, len(skills))
	}
	if skills[0].Timeout != defaultTimeout {
		t.Errorf("Expected default timeout, got %v", skills[0].Timeout)
	}
}

func TestRegistryMatch(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "close", keywordMeta("close", "close"), "#!/bin/sh\n")
	writeSkill(t, tmpDir, "closeall", keywordMeta("closeall", "close all"), "#!/bin/sh\n")
	writeSkill(t, tmpDir, "remind", keywordMeta("remind", "reminder"), "#!/bin/sh\n")

	reg := NewRegistry(NewLoader(tmpDir, logging.Discard()), logging.Discard())
	if _, ok := reg.Match("close notepad"); ok {
		t.Fatal("Match before Reload should find nothing")
	}
	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	tests := []struct {
		command string
		want    string
	}{
		{"close notepad", "close"},
		{"CLOSE ALL windows", "closeall"},
		{"reminder 9pm call mom", "remind"},
		{"system mute", ""},
	}
	for _, tt := range tests {
		s, ok := reg.Match(tt.command)
		if tt.want == "" {
			if ok {
				t.Errorf("Match(%q) = %s, want none", tt.command, s.Name)
			}
			continue
		}
		if !ok || s.Name != tt.want {
			t.Errorf("Match(%q) = %v, want %s", tt.command, s, tt.want)
		}
	}

	if len(reg.List()) != 3 {
		t.Errorf("Expected 3 skills listed, got %d", len(reg.List()))
	}
}

func TestExecutor_Execute(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "echo", keywordMeta("echo", "echo"),
		"#!/bin/sh\ncat > /dev/null\necho \"{\\\"result\\\":\\\"ran $JARVIS_SKILL_NAME\\\"}\"\n")
	writeSkill(t, tmpDir, "fail", keywordMeta("fail", "fail"),
		"#!/bin/sh\ncat > /dev/null\necho '{\"error\":\"device busy\"}'\n")
	writeSkill(t, tmpDir, "garbage", keywordMeta("garbage", "garbage"),
		"#!/bin/sh\necho not-json\n")

	skills, err := NewLoader(tmpDir, logging.Discard()).LoadAll()
	if err != nil || len(skills) != 3 {
		t.Fatalf("LoadAll: %v (%d skills)", err, len(skills))
	}
	byName := map[string]*Skill{}
	for _, s := range skills {
		byName[s.Name] = s
	}

	exec := NewExecutor(logging.Discard())
	ctx := context.Background()

	out, err := exec.Execute(ctx, byName["echo"], Input{Command: "echo hi", Username: "alice"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Result != "ran echo" {
		t.Errorf("Expected result 'ran echo', got %q", out.Result)
	}

	out, err = exec.Execute(ctx, byName["fail"], Input{Command: "fail"})
	if err == nil || !strings.Contains(err.Error(), "device busy") {
		t.Errorf("Expected skill error, got %v", err)
	}
	if out == nil || out.Error != "device busy" {
		t.Errorf("Expected output with error field, got %+v", out)
	}

	if _, err := exec.Execute(ctx, byName["garbage"], Input{}); err == nil {
		t.Error("Expected parse error for non-JSON output")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "slow", keywordMeta("slow", "slow"), "#!/bin/sh\nexec sleep 5\n")

	skills, err := NewLoader(tmpDir, logging.Discard()).LoadAll()
	if err != nil || len(skills) != 1 {
		t.Fatalf("LoadAll: %v", err)
	}
	skill := skills[0]
	skill.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err = NewExecutor(logging.Discard()).Execute(context.Background(), skill, Input{})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("Execute did not honor the timeout")
	}
}
