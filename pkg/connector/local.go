package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/mensylisir/dockmcp/pkg/common"
)

// LocalConnector executes command lines through the local shell.
type LocalConnector struct {
	connCfg ConnectionCfg
}

func NewLocalConnector() (*LocalConnector, error) {
	return NewLocalConnectorWithConfig(ConnectionCfg{})
}

func NewLocalConnectorWithConfig(cfg ConnectionCfg) (*LocalConnector, error) {
	if cfg.Shell == "" {
		cfg.Shell = common.DefaultShell
	}
	if _, err := exec.LookPath(cfg.Shell); err != nil {
		return nil, fmt.Errorf("shell %s is not usable: %w", cfg.Shell, err)
	}
	return &LocalConnector{connCfg: cfg}, nil
}

// Exec runs cmd as `<shell> -c cmd`. stdout and stderr are captured separately and returned
// on every path, including failures. The child runs in its own process group which is
// killed as a whole when the timeout expires or ctx is canceled.
func (l *LocalConnector) Exec(ctx context.Context, cmd string, options *ExecOptions) (stdout, stderr []byte, err error) {
	effectiveOptions := ExecOptions{}
	if options != nil {
		effectiveOptions = *options
	}

	runCtx := ctx
	if effectiveOptions.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, effectiveOptions.Timeout)
		defer cancel()
	}

	actualCmd := exec.CommandContext(runCtx, l.connCfg.Shell, "-c", cmd)
	configureProcessGroup(actualCmd)
	actualCmd.WaitDelay = effectiveOptions.WaitDelay
	if actualCmd.WaitDelay <= 0 {
		actualCmd.WaitDelay = common.DefaultWaitDelay
	}
	if len(l.connCfg.Env) > 0 || len(effectiveOptions.Env) > 0 {
		env := append(os.Environ(), l.connCfg.Env...)
		actualCmd.Env = append(env, effectiveOptions.Env...)
	}
	if effectiveOptions.Dir != "" {
		actualCmd.Dir = effectiveOptions.Dir
	}
	if effectiveOptions.Stdin != nil {
		actualCmd.Stdin = bytes.NewReader(effectiveOptions.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	actualCmd.Stdout = &stdoutBuf
	actualCmd.Stderr = &stderrBuf

	runErr := actualCmd.Run()
	stdout, stderr = stdoutBuf.Bytes(), stderrBuf.Bytes()
	if runErr == nil {
		return stdout, stderr, nil
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		underlying := ctxErr
		if errors.Is(ctxErr, context.DeadlineExceeded) && ctx.Err() == nil {
			underlying = fmt.Errorf("timed out after %s: %w", effectiveOptions.Timeout, context.DeadlineExceeded)
		}
		return stdout, stderr, &CommandError{Cmd: cmd, ExitCode: -1, Stdout: string(stdout), Stderr: string(stderr), Underlying: underlying}
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return stdout, stderr, &CommandError{Cmd: cmd, ExitCode: exitCode, Stdout: string(stdout), Stderr: string(stderr), Underlying: runErr}
}

var _ Connector = (*LocalConnector)(nil)
