package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/juicer149/amorfati/pkg/config"
)

// resetCLIState clears flag values and cobra's changed markers so tests
// can run commands back to back.
func resetCLIState() {
	logAt, logAtUnix, logValue, logMeta = "", 0, 0, nil
	logAttributive, logInteractive = false, false
	showDate, showAttributive, showJSON = "", false, false
	typesJSON = false
	verifyDate, verifyAttributive = "", false
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

func execute(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	resetCLIState()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setupDirs(t *testing.T) (configDir, logDir string) {
	t.Helper()
	base := t.TempDir()
	configDir = filepath.Join(base, "configs")
	logDir = filepath.Join(base, "logs")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("AMORFATI_CONFIG_DIR", configDir)
	t.Setenv("AMORFATI_LOG_DIR", logDir)
	t.Setenv("AMORFATI_SINK", "file")
	t.Setenv("AMORFATI_LAYOUT", "record")
	t.Setenv("AMORFATI_TZ", "UTC")
	t.Setenv("AMORFATI_APP_LOG", "")
	return configDir, logDir
}

func writeRunDefinition(t *testing.T, configDir string) {
	t.Helper()
	body := `unit: time
value: 1.0
calc: linear
meta:
  intensity:
    prompt: "Intensity 1-10"
    weight: 1.2
  weather:
    weight: 0.1
`
	if err := os.WriteFile(filepath.Join(configDir, "run.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}
}

func journalFiles(t *testing.T, logDir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(logDir, "*.jsonl"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return files
}

func TestLogThenShow(t *testing.T) {
	configDir, logDir := setupDirs(t)
	writeRunDefinition(t, configDir)

	out, err := execute(t, nil, "log", "run", "30", "--at-unix", "1754229600", "--meta", "intensity=7")
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if !strings.Contains(out, "Logged: run 30 time @ 1754229600 +meta") {
		t.Errorf("unexpected log output: %q", out)
	}

	files := journalFiles(t, logDir)
	if len(files) != 1 {
		t.Fatalf("expected 1 journal file, got %d", len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	wantLine := `{"name":"run","unit":"time","amount":30,"value":1,"calc":"linear","unix_time":1754229600,"meta":{"intensity":7}}`
	if string(data) != wantLine+"\n" {
		t.Errorf("journal line mismatch:\n got %q\nwant %q", string(data), wantLine)
	}

	out, err = execute(t, nil, "show", "--json")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, wantLine) {
		t.Errorf("show --json missing record, got %q", out)
	}

	out, err = execute(t, nil, "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "run 30 time") || !strings.Contains(out, "intensity=7") {
		t.Errorf("unexpected show output: %q", out)
	}
	if !strings.Contains(out, "1 event(s)") {
		t.Errorf("missing count line in %q", out)
	}
}

func TestLogAttributive(t *testing.T) {
	configDir, logDir := setupDirs(t)
	writeRunDefinition(t, configDir)

	_, err := execute(t, nil, "log", "run", "30",
		"--at-unix", "1754229600", "--meta", "intensity=7", "--attributive")
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}

	files := journalFiles(t, logDir)
	if len(files) != 1 {
		t.Fatalf("expected 1 journal file, got %d", len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 attributive lines, got %d:\n%s", len(lines), data)
	}
	if lines[0] != `{"id":1754229600,"key":"name","value":"run"}` {
		t.Errorf("unexpected first line: %q", lines[0])
	}

	out, err := execute(t, nil, "show", "--attributive", "--json")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	want := `{"name":"run","unit":"time","amount":30,"value":1,"calc":"linear","unix_time":1754229600,"meta":{"intensity":7}}`
	if !strings.Contains(out, want) {
		t.Errorf("attributive lines did not reassemble, got %q", out)
	}
}

func TestLogInteractive(t *testing.T) {
	configDir, logDir := setupDirs(t)
	writeRunDefinition(t, configDir)

	// First prompt answered, second skipped.
	out, err := execute(t, strings.NewReader("7\n\n"),
		"log", "run", "30", "--at-unix", "1754229600", "-i")
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if !strings.Contains(out, "Intensity 1-10: ") || !strings.Contains(out, "weather: ") {
		t.Errorf("prompts missing from output: %q", out)
	}

	data, err := os.ReadFile(journalFiles(t, logDir)[0])
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if !strings.Contains(string(data), `"meta":{"intensity":7}`) {
		t.Errorf("collected meta missing: %q", string(data))
	}
}

func TestLogErrors(t *testing.T) {
	configDir, _ := setupDirs(t)
	writeRunDefinition(t, configDir)

	if _, err := execute(t, nil, "log", "ghost", "5"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := execute(t, nil, "log", "run", "lots"); err == nil {
		t.Error("expected error for non-numeric amount")
	}
	if _, err := execute(t, nil, "log", "run", "30", "--meta", "mood=5"); err == nil {
		t.Error("expected error for undeclared meta key")
	}
	if _, err := execute(t, nil, "log", "run", "30", "--at", "25:99"); err == nil {
		t.Error("expected error for bad clock spec")
	}
}

func TestVerifyMatchesAcrossLayouts(t *testing.T) {
	// The same event logged through either layout digests identically.
	configDir, _ := setupDirs(t)
	writeRunDefinition(t, configDir)
	args := []string{"log", "run", "30", "--at-unix", "1754229600", "--meta", "intensity=7"}

	if _, err := execute(t, nil, args...); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	recordOut, err := execute(t, nil, "verify")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	configDir2, _ := setupDirs(t)
	writeRunDefinition(t, configDir2)
	if _, err := execute(t, nil, append(args, "--attributive")...); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	attrOut, err := execute(t, nil, "verify", "--attributive")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	recordDigest := strings.Fields(recordOut)[0]
	attrDigest := strings.Fields(attrOut)[0]
	if len(recordDigest) != 64 {
		t.Errorf("digest should be sha256 hex, got %q", recordDigest)
	}
	if recordDigest != attrDigest {
		t.Errorf("digests differ across layouts: %s vs %s", recordDigest, attrDigest)
	}
}

func TestTypesListsDefinitions(t *testing.T) {
	configDir, _ := setupDirs(t)
	writeRunDefinition(t, configDir)

	out, err := execute(t, nil, "types")
	if err != nil {
		t.Fatalf("types failed: %v", err)
	}
	if !strings.Contains(out, "run: unit=time value=1 calc=linear meta=[intensity weather]") {
		t.Errorf("unexpected types output: %q", out)
	}

	out, err = execute(t, nil, "types", "--json")
	if err != nil {
		t.Fatalf("types --json failed: %v", err)
	}
	if !strings.Contains(out, `"name":"run"`) || !strings.Contains(out, `"weight":1.2`) {
		t.Errorf("unexpected types --json output: %q", out)
	}
}

func TestInitScaffolds(t *testing.T) {
	base := t.TempDir()
	configDir := filepath.Join(base, "configs")
	logDir := filepath.Join(base, "logs")
	t.Setenv("AMORFATI_CONFIG_DIR", configDir)
	t.Setenv("AMORFATI_LOG_DIR", logDir)
	t.Setenv("AMORFATI_TZ", "UTC")
	t.Setenv("AMORFATI_APP_LOG", "")

	out, err := execute(t, nil, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "wrote") {
		t.Errorf("expected sample definition to be written, got %q", out)
	}
	for _, dir := range []string{configDir, logDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("directory %s missing: %v", dir, err)
		}
	}

	// Idempotent: the sample is kept, not overwritten.
	out, err = execute(t, nil, "init")
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected existing definition to be kept, got %q", out)
	}

	// The scaffolded definition loads cleanly.
	if _, err := execute(t, nil, "types"); err != nil {
		t.Fatalf("types after init failed: %v", err)
	}
}

func TestShowEmptyDay(t *testing.T) {
	setupDirs(t)

	out, err := execute(t, nil, "show", "--date", "2020-01-01")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "no events on 2020-01-01") {
		t.Errorf("unexpected output for empty day: %q", out)
	}

	if _, err := execute(t, nil, "show", "--date", "01/01/2020"); err == nil {
		t.Error("expected error for malformed date")
	}
}
