package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/session"
)

// writeHook creates dir/name with a manifest and a shell script body.
func writeHook(t *testing.T, dir, name, script string, labels ...string) *Hook {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(path, 0755))

	manifest := Manifest{Name: name, Executable: "run.sh", Labels: labels}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(path, ManifestFile), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "run.sh"), []byte("#!/bin/sh\n"+script), 0755))

	return &Hook{Manifest: manifest, Path: path, Executable: filepath.Join(path, "run.sh")}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
}

func TestHook_Accepts(t *testing.T) {
	all := &Hook{}
	assert.True(t, all.Accepts("fist"), "hook without labels should accept every gesture")

	some := &Hook{Manifest: Manifest{Labels: []string{"fist", "palm"}}}
	assert.True(t, some.Accepts("palm"))
	assert.False(t, some.Accepts("wave"))
}

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, "notify", "echo '{}'")
	writeHook(t, dir, "lights", "echo '{}'", "fist")

	// Not a hook: no manifest
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0755))
	// Not a hook: invalid manifest
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", ManifestFile), []byte("{not json"), 0644))
	// Not a hook: plain file
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("hooks"), 0644))

	m := NewManager(dir)
	require.NoError(t, m.Discover())

	hooks := m.List()
	require.Len(t, hooks, 2)
	assert.Equal(t, "lights", hooks[0].Manifest.Name, "hooks sorted by name")
	assert.Equal(t, "notify", hooks[1].Manifest.Name, "hooks sorted by name")
	assert.Equal(t, filepath.Join(dir, "lights", "run.sh"), hooks[0].Executable)

	assert.Len(t, m.For("fist"), 2)
	palm := m.For("palm")
	require.Len(t, palm, 1)
	assert.Equal(t, "notify", palm[0].Manifest.Name)

	_, err := m.Get("notify")
	require.NoError(t, err)
	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrHookNotFound)
}

func TestManager_DiscoverMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, m.Discover())
	assert.Empty(t, m.List())
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()

	t.Run("passes request on stdin", func(t *testing.T) {
		out := filepath.Join(dir, "received.json")
		h := writeHook(t, dir, "echo", "cat > "+out+"\necho '{\"success\":true}'\n")

		resp, err := NewExecutor(time.Second).Execute(context.Background(), h, &Request{Label: "fist", Previous: "palm", Distance: 0.5})
		require.NoError(t, err)
		assert.True(t, resp.Success)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var got Request
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "fist", got.Label)
		assert.Equal(t, "palm", got.Previous)
		assert.Equal(t, 0.5, got.Distance)
	})

	t.Run("reports failure response", func(t *testing.T) {
		h := writeHook(t, dir, "fails", `echo '{"success":false,"error":"no lights"}'`)

		resp, err := NewExecutor(time.Second).Execute(context.Background(), h, &Request{Label: "fist"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "no lights", resp.Error)
	})

	t.Run("silent hook succeeds", func(t *testing.T) {
		h := writeHook(t, dir, "silent", "exit 0\n")

		resp, err := NewExecutor(time.Second).Execute(context.Background(), h, &Request{Label: "fist"})
		require.NoError(t, err)
		assert.True(t, resp.Success, "expected success without output")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		h := writeHook(t, dir, "crash", "echo boom >&2\nexit 3\n")

		_, err := NewExecutor(time.Second).Execute(context.Background(), h, &Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("invalid output", func(t *testing.T) {
		h := writeHook(t, dir, "garbage", "echo not-json\n")

		_, err := NewExecutor(time.Second).Execute(context.Background(), h, &Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse response")
	})

	t.Run("timeout", func(t *testing.T) {
		h := writeHook(t, dir, "slow", "exec sleep 5\n")

		start := time.Now()
		_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), h, &Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
		assert.Less(t, time.Since(start), 3*time.Second, "timeout was not enforced")
	})
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecutor(0).timeout)
}

func result(label string) session.Result {
	return session.Result{Match: gesture.Match{Label: label}, Timestamp: time.Now()}
}

func TestDispatcher_FiresOnLabelChange(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	callLog := filepath.Join(dir, "calls.log")
	writeHook(t, dir, "record", `label=$(sed 's/^{"label":"\([^"]*\)".*/\1/')
echo "$label" >> `+callLog+`
echo '{"success":true}'
`)
	writeHook(t, dir, "fist-only", "cat > /dev/null\necho '{\"success\":true}'\n", "fist")

	m := NewManager(dir)
	require.NoError(t, m.Discover())

	d := NewDispatcher(m, NewExecutor(2*time.Second), nil)
	for _, label := range []string{"fist", "fist", "fist", "palm", "palm", "fist"} {
		d.Handle(result(label))
		d.Wait()
	}

	data, err := os.ReadFile(callLog)
	require.NoError(t, err)
	assert.Equal(t, []string{"fist", "palm", "fist"}, strings.Fields(string(data)))
}

func TestDispatcher_Reset(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	counter := filepath.Join(dir, "count")
	writeHook(t, dir, "count", "cat > /dev/null\necho x >> "+counter+"\necho '{\"success\":true}'\n")

	m := NewManager(dir)
	require.NoError(t, m.Discover())
	d := NewDispatcher(m, NewExecutor(2*time.Second), nil)

	d.Handle(result("fist"))
	d.Wait()
	d.Reset()
	d.Handle(result("fist"))
	d.Wait()

	data, err := os.ReadFile(counter)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "x"), "hook runs")
}

func TestDispatcher_LogsHookErrors(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeHook(t, dir, "sad", `cat > /dev/null; echo '{"success":false,"error":"nope"}'`)

	m := NewManager(dir)
	require.NoError(t, m.Discover())

	var buf bytes.Buffer
	d := NewDispatcher(m, NewExecutor(2*time.Second), log.New(&buf, "", 0))
	d.Handle(result("fist"))
	d.Wait()

	assert.Contains(t, buf.String(), "nope", "expected failure to be logged")
}
