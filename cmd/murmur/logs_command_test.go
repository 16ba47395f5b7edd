package main

import (
	"os"
	"strings"
	"testing"
)

func TestLogsShowsLatestRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No run logs")

	path := env.cfg.RunLogPath("abc")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write run log: %v", err)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.TrimSpace(out) != "second\nthird" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, _, err := runCLI(t, []string{"logs", "--run", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
