package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const cleanManifest = `
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    release: "1"
    after:
      requires:
        - "libfoo.so.1()(64bit)"
        - "foo-libs = 2.0-1"
  - name: foo-libs
    arch: x86_64
    version: "2.0"
    release: "1"
    after:
      provides:
        - "libfoo.so.1()(64bit)"
`

const failingManifest = `
subpackages:
  - name: foo
    arch: x86_64
    version: "2.0"
    release: "1"
    after:
      requires:
        - "libfoo.so.1()(64bit)"
`

func writeTempManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func runVerifyCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flags are package vars, reset between runs.
	beforeInput, rebaseFlag = "", false
	outFormat, outMode, outFile, prettyJSON = "text", "", "", true

	cmd := createVerifyCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVerifyCommandCleanBuild(t *testing.T) {
	out, err := runVerifyCommand(t, writeTempManifest(t, cleanManifest))
	if err != nil {
		t.Fatalf("expected pass, got error: %v\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "result: PASS") {
		t.Fatalf("missing pass verdict:\n%s", out)
	}
}

func TestVerifyCommandFailingBuild(t *testing.T) {
	out, err := runVerifyCommand(t, writeTempManifest(t, failingManifest))
	if err == nil {
		t.Fatalf("expected verification failure")
	}
	if !strings.Contains(out, "result: FAIL") {
		t.Fatalf("missing fail verdict:\n%s", out)
	}
	if !strings.Contains(out, "foo-libs") {
		t.Fatalf("finding must name the provider:\n%s", out)
	}
}

func TestVerifyCommandJSONOutput(t *testing.T) {
	out, err := runVerifyCommand(t, "--format", "json", writeTempManifest(t, cleanManifest))
	if err != nil {
		t.Fatalf("expected pass, got error: %v", err)
	}

	var report struct {
		RunID    string `json:"runId"`
		Success  bool   `json:"success"`
		Findings []any  `json:"findings"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\njson:\n%s", err, out)
	}
	if !report.Success || report.RunID == "" || len(report.Findings) == 0 {
		t.Fatalf("bad report: %+v", report)
	}
}

func TestVerifyCommandOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.json")
	_, err := runVerifyCommand(t, "--format", "json", "-o", dest, writeTempManifest(t, cleanManifest))
	if err != nil {
		t.Fatalf("expected pass, got error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	if !strings.Contains(string(data), "\"success\": true") {
		t.Fatalf("report file content wrong:\n%s", data)
	}
}

func TestVerifyCommandCompressedOutputFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.json.gz")
	_, err := runVerifyCommand(t, "--format", "json", "-o", dest, writeTempManifest(t, cleanManifest))
	if err != nil {
		t.Fatalf("expected pass, got error: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("opening report file: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("report file is not valid gzip: %v", err)
	}
	defer gz.Close()

	var report struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(gz).Decode(&report); err != nil {
		t.Fatalf("decoding compressed report: %v", err)
	}
	if !report.Success {
		t.Fatalf("bad report: %+v", report)
	}
}

func TestVerifyCommandRejectsBeforeWithManifest(t *testing.T) {
	_, err := runVerifyCommand(t, "--before", "/nonexistent", writeTempManifest(t, cleanManifest))
	if err == nil || !strings.Contains(err.Error(), "--before") {
		t.Fatalf("expected --before rejection, got %v", err)
	}
}
