package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comicflow/internal/testsupport"
)

type cliTestEnv struct {
	projectRoot string
	configPath  string
	baseDir     string
}

// setupCLITestEnv writes a config with a private log dir and a project root
// holding one three-shot timeline and a matching workflow descriptor.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("COMICFLOW_MODEL_ID", "")
	t.Setenv("COMICFLOW_LOG_LEVEL", "")
	t.Setenv("COMICFLOW_OUTPUTS_DIR", "")

	root := filepath.Join(base, "project")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, filepath.Join(base, "logs"))

	testsupport.WriteTimeline(t, root, "specs/examples/timeline.v1.sample.json",
		testsupport.SequentialShots(3, 5, "i2v", ""))
	testsupport.WriteWorkflow(t, root, defaultWorkflowPath,
		testsupport.WorkflowDoc("cli-run", "specs/examples/timeline.v1.sample.json", map[string]any{"engine": "mock"}))

	return &cliTestEnv{projectRoot: root, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path, logDir string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
outputs_dir = "outputs"
log_dir = %q

[preflight]
enabled = true
min_free_mib = 0

[logging]
level = "error"

[[models]]
id = "test-t2v-keyframes"
label = "T2V + keyframes"
t2v = true
i2v_first_last = true
`, logDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--project-root", env.projectRoot, "--config", env.configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
