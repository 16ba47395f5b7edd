package main

import "testing"

func TestRunExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)

	if code := run([]string{"--config", env.configPath, "config", "validate"}); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if code := run([]string{"--config", env.configPath, "no-such-command"}); code != 1 {
		t.Fatalf("expected exit 1 for unknown command, got %d", code)
	}
}
