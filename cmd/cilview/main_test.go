package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ciltools/ciltools/disasm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "fixtures/app.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDis(t *testing.T) {
	out, err := run(t, "dis", fixture, "Main")
	require.NoError(t, err)
	assert.Contains(t, out, ".method public hidebysig static void Main(string[] args) cil managed\n")
	assert.Contains(t, out, ".entrypoint\n")
	assert.Contains(t, out, `ldstr "Hello, World"`)
	assert.Contains(t, out, `// Console.WriteLine("Hello, World");`)
	assert.NotContains(t, out, "\x1b[")
}

func TestDisFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		missing  []string
	}{
		{
			name:     "body only",
			args:     []string{"--body-only", "Main"},
			contains: []string{"ldstr"},
			missing:  []string{".method", ".maxstack"},
		},
		{
			name:     "no source",
			args:     []string{"--no-source", "Main"},
			contains: []string{".method"},
			missing:  []string{"// Console"},
		},
		{
			name:     "qualified",
			args:     []string{"--qualify", "App.Program::Divide"},
			contains: []string{".try", "catch [mscorlib]System.DivideByZeroException", "finally", "leave.s IL_0001"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"dis", fixture}, tt.args...)...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestDisErrors(t *testing.T) {
	_, err := run(t, "dis", fixture, "Nope")
	assert.ErrorContains(t, err, "method not found")

	_, err = run(t, "dis", fixture, "Broken")
	assert.ErrorContains(t, err, "method App.Program::Broken: decode error")

	_, err = run(t, "dis", "fixtures/missing.yaml")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "dis", fixture, "Main")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestList(t *testing.T) {
	out, err := run(t, "list", fixture, "Main")
	require.NoError(t, err)
	assert.Contains(t, out, "OpCode")
	assert.Contains(t, out, "IL_000A")
	assert.Contains(t, out, "WriteLine")

	out, err = run(t, "list", fixture, "Main", "-o", "json")
	require.NoError(t, err)
	var rows []disasm.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "ldstr", rows[0].OpCode)
	assert.Equal(t, `"Hello, World"`, rows[0].Operand)
	assert.Equal(t, 10, rows[2].Offset)

	_, err = run(t, "list", fixture, "Main", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestGraph(t *testing.T) {
	out, err := run(t, "graph", fixture, "Divide")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph CIL {")
	assert.Contains(t, out, `label="App.Program::Divide";`)
}

func TestEmit(t *testing.T) {
	out, err := run(t, "emit", fixture, "Divide")
	require.NoError(t, err)
	assert.Contains(t, out, "App.Program::Divide: 24 -> 30 bytes\n")
	assert.Contains(t, out, "  IL_0000: 02 03 5B 0A DD")
	assert.Contains(t, out, "catch try")
	assert.Contains(t, out, "finally try")

	out, err = run(t, "emit", "--dis", "--body-only", fixture, "Divide")
	require.NoError(t, err)
	assert.Contains(t, out, "leave IL_0001")
	assert.NotContains(t, out, "leave.s")
	assert.NotContains(t, out, ".method")

	out, err = run(t, "emit", "--dis", "--qualify", fixture, "Divide")
	require.NoError(t, err)
	assert.Contains(t, out, ".method")
	assert.Contains(t, out, "catch [mscorlib]System.DivideByZeroException")
}

func TestEmitOmitsSourceComments(t *testing.T) {
	out, err := run(t, "dis", fixture, "Main")
	require.NoError(t, err)
	assert.Contains(t, out, `// Console.WriteLine("Hello, World");`)

	out, err = run(t, "emit", "--dis", fixture, "Main")
	require.NoError(t, err)
	assert.Contains(t, out, `ldstr "Hello, World"`)
	assert.NotContains(t, out, "// Console")
}

func TestBatch(t *testing.T) {
	out, err := run(t, "batch", "--workers", "2", fixture)
	assert.ErrorContains(t, err, "1 of 4 methods failed")
	assert.Contains(t, out, "App.Program::Main")
	assert.Contains(t, out, "App.Runner::Run")
	assert.Contains(t, out, "decode error")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cilview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("body-only: true\n"), 0o644))
	out, err := run(t, "--config", path, "dis", fixture, "Main")
	require.NoError(t, err)
	assert.NotContains(t, out, ".method")
	assert.Contains(t, out, "ldstr")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "dis", fixture, "Main")
	assert.ErrorContains(t, err, "reading config")
}

func TestEnvironment(t *testing.T) {
	t.Setenv("CILVIEW_BODY_ONLY", "true")
	out, err := run(t, "dis", fixture, "Main")
	require.NoError(t, err)
	assert.NotContains(t, out, ".method")
}
