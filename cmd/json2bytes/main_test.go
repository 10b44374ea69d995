package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	doc := writeInput(t, "doc.json", `{"a": "hello world", "b": ["short", "a longer string here"], "c": {"a": "nested a value"}}`)

	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "size",
			args:       []string{"--size", "10", doc},
			wantStdout: "hello world\x1ea longer string here\x1enested a value\x1e",
		},
		{
			name:       "fields_after_input",
			args:       []string{doc, "-f", "a", "--lines"},
			wantStdout: "hello world\nnested a value\n",
		},
		{
			name:       "stdin_by_default",
			args:       []string{"-s", "5"},
			stdin:      `{"x":"first string!!"}{"x":"second string!!"}`,
			wantStdout: "first string!!\x1esecond string!!\x1e",
		},
		{
			name:       "hex_separator",
			args:       []string{"--separator", `\x00\x1e`, "-"},
			stdin:      `["a"]`,
			wantStdout: "a\x00\x1e",
		},
		{
			name:       "odd_separator",
			args:       []string{"--separator", `\x0`, doc},
			wantCode:   2,
			wantStderr: "even number of hex digits",
		},
		{
			name:       "invalid_path",
			args:       []string{"--path", "$[", doc},
			wantCode:   2,
			wantStderr: "invalid configuration",
		},
		{
			name:       "missing_input",
			args:       []string{filepath.Join(t.TempDir(), "missing.json")},
			wantCode:   1,
			wantStderr: "Error: cannot open input",
		},
		{
			name:       "malformed_input",
			args:       []string{},
			stdin:      `"ok" {"broken"}`,
			wantCode:   1,
			wantStdout: "ok\x1e",
			wantStderr: "document 2",
		},
		{
			name:       "help",
			args:       []string{"--help"},
			wantStdout: "Usage: json2bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			args := append([]string{"json2bytes"}, tt.args...)
			code := run(args, strings.NewReader(tt.stdin), &stdout, &stderr)

			if code != tt.wantCode {
				t.Fatalf("run() exitCode = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr == "" && stderr.Len() > 0 {
				t.Errorf("unexpected stderr: %s", stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunVerboseLogsToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"json2bytes", "-v"}, strings.NewReader(`"a"`), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() exitCode = %d, want 0", code)
	}
	if stdout.String() != "a\x1e" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "a\x1e")
	}
	if !strings.Contains(stderr.String(), "level=DEBUG") {
		t.Errorf("stderr = %q, want debug logs", stderr.String())
	}
}

type closedPipe struct{}

func (closedPipe) Write([]byte) (int, error) {
	return 0, fmt.Errorf("write |1: %w", syscall.EPIPE)
}

func TestRunTreatsBrokenPipeAsSuccess(t *testing.T) {
	var stderr bytes.Buffer

	code := run([]string{"json2bytes"}, strings.NewReader(`["a","b"]`), closedPipe{}, &stderr)
	if code != 0 {
		t.Fatalf("run() exitCode = %d, want 0 (stderr: %s)", code, stderr.String())
	}
	if stderr.Len() > 0 {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}
