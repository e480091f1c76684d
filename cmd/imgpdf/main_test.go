package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgpdf "github.com/porticus-lab/go-img-pdf"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// isolate keeps the developer's .env and IMGPDF_* variables out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("IMGPDF_ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "IMGPDF_") && k != "IMGPDF_ENV_FILE" {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func imageDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), pngBytes(t, 4, 2), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_List(t *testing.T) {
	isolate(t)
	dir := imageDir(t, "1.png", "2.png", "4.png")

	code, out, errOut := runCLI(t, "list", "-misses", "2", dir)
	require.Equal(t, exitOK, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1\t1.png\t4×2\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "4\t4.png\t"), lines[2])
	assert.Contains(t, errOut, "scan finished")
}

func TestRun_ListJSON(t *testing.T) {
	isolate(t)
	dir := imageDir(t, "1.png")

	code, out, errOut := runCLI(t, "list", "-json", "-ext", "png", dir)
	require.Equal(t, exitOK, code, errOut)

	var records []imgpdf.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "1.png", records[0].Name)
	assert.Equal(t, 4, records[0].Width)
}

func TestRun_ListEmpty(t *testing.T) {
	isolate(t)

	code, out, errOut := runCLI(t, "list", t.TempDir())
	assert.Equal(t, exitOK, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "no images found")
}

func TestRun_ExportEmpty(t *testing.T) {
	isolate(t)

	code, _, errOut := runCLI(t, "export", "-o", filepath.Join(t.TempDir(), "out.pdf"), t.TempDir())
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "no images found")
}

func TestRun_UsageErrors(t *testing.T) {
	isolate(t)

	tests := [][]string{
		{},
		{"frobnicate"},
		{"list", "-nope"},
		{"list", "a", "b"},
		{"list", "-misses", "0", "."},
	}
	for _, args := range tests {
		code, _, _ := runCLI(t, args...)
		assert.Equal(t, exitUsage, code, "args %q", args)
	}
}

func TestRun_Help(t *testing.T) {
	isolate(t)

	code, out, _ := runCLI(t, "help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "imgpdf export")

	code, _, errOut := runCLI(t, "list", "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, errOut, "-misses")
}

func TestRun_MissingFolder(t *testing.T) {
	isolate(t)

	code, _, errOut := runCLI(t, "list", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "error:")
}

func TestRun_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("IMGPDF_MAX_MISSES", "0")
	dir := imageDir(t, "1.png")

	code, out, errOut := runCLI(t, "list", "-misses", "3", dir)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "1.png")

	code, _, errOut = runCLI(t, "list", dir)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "IMGPDF_MAX_MISSES")
}

func TestRun_MalformedEnvIsUsageError(t *testing.T) {
	isolate(t)
	t.Setenv("IMGPDF_TIMEOUT", "soon")

	code, _, errOut := runCLI(t, "list", t.TempDir())
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "IMGPDF_TIMEOUT")
}
