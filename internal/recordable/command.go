package recordable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"
)

const (
	// waitDelay bounds how long Wait keeps draining pipes after the process
	// group was killed. Grandchildren holding stdout open would block otherwise.
	waitDelay = 2 * time.Second

	// stderrTail is the number of trailing stderr bytes kept for diagnostics.
	stderrTail = 512

	// exitCommandNotFound is the shell convention for an unknown command.
	exitCommandNotFound = 127
)

// envRef matches the braced ${VAR} form only. Bare $ is left for the
// program (awk fields, shell variables inside sh -c).
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// CommandRecordable captures the stdout of an external command.
type CommandRecordable struct {
	Meta
	line string
}

// Command creates a recordable that runs line and stores its stdout.
//
// Before splitting into words, "{name}" is replaced by the recordable name and
// ${VAR} is expanded from the environment. Any other $ is passed through.
// Referencing an unset variable makes the source unavailable rather than
// running a broken command.
func Command(name, line string, opts ...Option) *CommandRecordable {
	return &CommandRecordable{
		Meta: newMeta(name, KindText, opts),
		line: line,
	}
}

// Line returns the unexpanded command line.
func (c *CommandRecordable) Line() string { return c.line }

// Argv expands and splits the command line against the current environment.
func (c *CommandRecordable) Argv() ([]string, error) {
	line := strings.ReplaceAll(c.line, "{name}", c.Name())

	var missing []string
	line = envRef.ReplaceAllStringFunc(line, func(ref string) string {
		key := ref[2 : len(ref)-1]
		v, ok := os.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		return nil, Unavailable(c.Name(), fmt.Errorf("undefined variable %s", strings.Join(missing, ", ")))
	}

	argv, err := shlex.Split(line)
	if err != nil {
		return nil, Failed(c.Name(), fmt.Errorf("parsing command %q: %w", c.line, err))
	}
	if len(argv) == 0 {
		return nil, Failed(c.Name(), errors.New("empty command"))
	}
	return argv, nil
}

// Acquire runs the command with stdin closed. The process runs in its own
// process group, which is killed as a whole when ctx ends.
func (c *CommandRecordable) Acquire(ctx context.Context) ([]byte, error) {
	argv, err := c.Argv()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	err = cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, TimedOut(c.Name(), fmt.Errorf("%s: %w", argv[0], ctxErr))
		}
		return nil, Failed(c.Name(), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cause := fmt.Errorf("%s returned %d: %s", argv[0], exitErr.ExitCode(), tail(stderr.Bytes()))
		if exitErr.ExitCode() == exitCommandNotFound {
			return nil, Unavailable(c.Name(), cause)
		}
		return nil, Failed(c.Name(), cause)
	}

	return nil, Classify(c.Name(), err)
}

func tail(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > stderrTail {
		b = b[len(b)-stderrTail:]
	}
	if len(b) == 0 {
		return "no output on stderr"
	}
	return string(b)
}
