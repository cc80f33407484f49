package recordable

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cpuinfo", "cpuinfo"},
		{"lscpu-json", "lscpu-json"},
		{"ompi_info.parsable", "ompi_info.parsable"},
		{"proc/sys/kernel", "proc_sys_kernel"},
		{"with space", "with_space"},
		{"..", "__"},
		{".hidden", "_hidden"},
		{"", "_"},
		{"größe", "gr__e"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_Long(t *testing.T) {
	long := strings.Repeat("a", 250)

	got := SanitizeFilename(long)
	assert.Len(t, got, MaxFilenameLen)

	got = SanitizeFilename(long + ".json")
	assert.Len(t, got, MaxFilenameLen)
	assert.True(t, strings.HasSuffix(got, "aaa.json"))

	rec := JSON(long, func(context.Context) (int, error) { return 1, nil })
	assert.Len(t, rec.Filename(), MaxFilenameLen)
	assert.Equal(t, long, rec.Name(), "the name itself is not shortened")
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"", KindText, false},
		{"text", KindText, false},
		{"binary", KindBinary, false},
		{"structured", KindStructured, false},
		{"json", KindStructured, false},
		{"yaml", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason Reason
		is     error
	}{
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ReasonTimedOut, ErrTimedOut},
		{"not found", &exec.Error{Name: "lshw", Err: exec.ErrNotFound}, ReasonUnavailable, ErrUnavailable},
		{"missing file", &fs.PathError{Op: "open", Path: "/nope", Err: fs.ErrNotExist}, ReasonUnavailable, ErrUnavailable},
		{"permission", fs.ErrPermission, ReasonUnavailable, ErrUnavailable},
		{"unsupported", errors.ErrUnsupported, ReasonUnavailable, ErrUnavailable},
		{"generic", errors.New("boom"), ReasonFailed, ErrFailed},
		{"already classified", TimedOut("x", nil), ReasonTimedOut, ErrTimedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := Classify("src", tt.err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.reason, ae.Reason)
			assert.ErrorIs(t, ae, tt.is)
		})
	}

	assert.Nil(t, Classify("src", nil))
}

func TestAcquisitionError_Error(t *testing.T) {
	err := Failed("lspci", errors.New("exit 1"))
	assert.Equal(t, "[SOURCE_FAILED] lspci: exit 1", err.Error())
	assert.Equal(t, "[SOURCE_TIMED_OUT] lstopo", TimedOut("lstopo", nil).Error())
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommand_Success(t *testing.T) {
	requireShell(t)

	c := Command("greeting", "sh -c 'echo hello'")
	out, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
	assert.Equal(t, KindText, c.Kind())
	assert.Equal(t, "greeting", c.Filename())
}

func TestCommand_Placeholders(t *testing.T) {
	requireShell(t)
	t.Setenv("GM_TEST_VALUE", "bar")

	c := Command("placeholder", "sh -c 'echo {name} ${GM_TEST_VALUE}'")
	out, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "placeholder bar\n", string(out))
}

func TestCommand_BareDollarPassesThrough(t *testing.T) {
	t.Setenv("GM_TEST_VALUE", "bar")

	tests := []struct {
		line string
		want []string
	}{
		{"awk '{print $1}' /proc/loadavg", []string{"awk", "{print $1}", "/proc/loadavg"}},
		{"sh -c 'echo $$ $? $HOME'", []string{"sh", "-c", "echo $$ $? $HOME"}},
		{"echo $GM_TEST_VALUE ${GM_TEST_VALUE}", []string{"echo", "$GM_TEST_VALUE", "bar"}},
		{"echo ${not a name}", []string{"echo", "${not", "a", "name}"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			argv, err := Command("dollar", tt.line).Argv()
			require.NoError(t, err)
			assert.Equal(t, tt.want, argv)
		})
	}
}

func TestCommand_ShellDollarRuns(t *testing.T) {
	requireShell(t)

	c := Command("literal-dollar", "sh -c 'echo $$ > /dev/null; echo ok'")
	out, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
}

func TestCommand_AwkField(t *testing.T) {
	if _, err := exec.LookPath("awk"); err != nil {
		t.Skip("awk not available")
	}

	c := Command("awk-field", "awk 'BEGIN { split(\"a b\", f); print f[2] } { print $2 }' /dev/null")
	out, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b\n", string(out))
}

func TestCommand_UndefinedVariable(t *testing.T) {
	os.Unsetenv("GM_TEST_UNSET_VARIABLE")

	c := Command("scontrol", "scontrol show jobid ${GM_TEST_UNSET_VARIABLE} -d")
	_, err := c.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "GM_TEST_UNSET_VARIABLE")
}

func TestCommand_MissingExecutable(t *testing.T) {
	c := Command("broken", "gm-test-command-that-does-not-exist --flag")
	_, err := c.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCommand_NonZeroExit(t *testing.T) {
	requireShell(t)

	c := Command("false", "sh -c 'echo oops >&2; exit 3'")
	_, err := c.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "returned 3")
	assert.Contains(t, err.Error(), "oops")
}

func TestCommand_ShellCommandNotFound(t *testing.T) {
	requireShell(t)

	c := Command("modules-list", "sh -c 'gm-test-command-that-does-not-exist'")
	_, err := c.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCommand_Timeout(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// The background sleep keeps stdout open; killing the process group
	// must still end the acquisition promptly.
	c := Command("hang", "sh -c 'sleep 30 & sleep 30'")
	start := time.Now()
	_, err := c.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestCommand_UnbalancedQuotes(t *testing.T) {
	c := Command("bad", "sh -c 'echo")
	_, err := c.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailed)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cpuinfo")
	require.NoError(t, os.WriteFile(path, []byte("processor\t: 0\n"), 0o644))

	f := File("cpuinfo", path)
	out, err := f.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "processor\t: 0\n", string(out))

	missing := File("missing", filepath.Join(dir, "nope"))
	_, err = missing.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEnv(t *testing.T) {
	t.Setenv("GM_TEST_FOO", "bar")
	t.Setenv("GM_TEST_EMPTY", "")
	os.Unsetenv("GM_TEST_NOT_SET")

	out, err := Env("C", "GM_TEST_FOO").Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bar", string(out))

	out, err = Env("empty", "GM_TEST_EMPTY").Acquire(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = Env("unset", "GM_TEST_NOT_SET").Acquire(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFunc(t *testing.T) {
	f := Func("A", func(context.Context) ([]byte, error) {
		return []byte("x86_64"), nil
	})
	out, err := f.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x86_64", string(out))

	failing := Func("lib", func(context.Context) ([]byte, error) {
		return nil, errors.ErrUnsupported
	})
	_, err = failing.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestJSON(t *testing.T) {
	type info struct {
		Cores int `json:"cores"`
	}
	j := JSON("cpu-counts", func(context.Context) (info, error) {
		return info{Cores: 8}, nil
	})

	assert.Equal(t, KindStructured, j.Kind())
	assert.Equal(t, "cpu-counts.json", j.Filename())

	out, err := j.Acquire(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"cores": 8}`, string(out))

	override := JSON("memory", func(context.Context) (int, error) { return 1, nil }, WithFilename("mem.txt"))
	assert.Equal(t, "mem.txt", override.Filename())
}

func TestOptions(t *testing.T) {
	c := Command("lshw", "lshw -json -quiet", WithTimeout(time.Minute), WithKind(KindStructured), WithFilename("lshw/out"))
	assert.Equal(t, time.Minute, c.Timeout())
	assert.Equal(t, KindStructured, c.Kind())
	assert.Equal(t, "lshw_out", c.Filename())
	assert.Equal(t, "lshw -json -quiet", c.Line())
}
