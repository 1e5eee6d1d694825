package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Setenv(envSQLitePath, "")

	opts, err := parseFlags([]string{"--direction", " DOWN ", "-n", "2", "--path", "cart.db"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "down" || opts.steps != 2 || opts.path != "cart.db" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseFlags([]string{"--direction=status"}); err == nil {
		t.Fatal("expected error without path")
	}

	if _, err := parseFlags([]string{"--unknown"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseFlags_PathFromEnv(t *testing.T) {
	t.Setenv(envSQLitePath, "/tmp/from-env.db")

	opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.path != "/tmp/from-env.db" || opts.direction != "up" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestRun_UpDownStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, options{direction: "status", path: path}, &out); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out.String(), "version=0 applied=0") {
		t.Fatalf("unexpected status output: %q", out.String())
	}

	out.Reset()
	if err := run(ctx, options{direction: "up", path: path}, &out); err != nil {
		t.Fatalf("up failed: %v", err)
	}
	if !strings.Contains(out.String(), "migrate up ok: version=4 applied=4") {
		t.Fatalf("unexpected up output: %q", out.String())
	}

	out.Reset()
	if err := run(ctx, options{direction: "down", steps: 2, path: path}, &out); err != nil {
		t.Fatalf("down failed: %v", err)
	}
	if !strings.Contains(out.String(), "version=2 applied=2") {
		t.Fatalf("unexpected down output: %q", out.String())
	}
}

func TestRun_UnsupportedDirection(t *testing.T) {
	err := run(context.Background(), options{direction: "sideways", path: filepath.Join(t.TempDir(), "cart.db")}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unsupported direction") {
		t.Fatalf("expected unsupported direction error, got %v", err)
	}
}

func TestFailExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_FAIL_EXIT") == "1" {
		fail("forced failure %d", 42)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_FAIL_EXIT=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}
