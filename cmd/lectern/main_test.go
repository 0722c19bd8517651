package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"NAME", "SIZE"},
		[][]string{{"alpha", "10"}, {"beta", "2000"}},
		1,
	)
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "beta") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
	if len(strings.Split(out, "\n")) < 4 {
		t.Fatalf("expected bordered table, got:\n%s", out)
	}
}

func TestFormatSize(t *testing.T) {
	small := int64(512)
	large := int64(5 << 20)
	if got := formatSize(&small); got != "512 B" {
		t.Fatalf("unexpected small size %q", got)
	}
	if got := formatSize(&large); got != "5.0 MiB" {
		t.Fatalf("unexpected large size %q", got)
	}
	if got := formatSize(nil); got != "-" {
		t.Fatalf("unexpected nil size %q", got)
	}
}
