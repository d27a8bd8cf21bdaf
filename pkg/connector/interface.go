package connector

import (
	"context"
)

// ConnectionCfg holds the parameters of the local execution environment.
type ConnectionCfg struct {
	// Shell runs every command as `<Shell> -c <cmd>`.
	Shell string
	// Env is appended to the inherited process environment for every command.
	Env []string
}

// Connector runs shell command lines and captures their output.
type Connector interface {
	Exec(ctx context.Context, cmd string, opts *ExecOptions) (stdout, stderr []byte, err error)
}
