package docker

// ContainerRecord is one row of `docker ps`. Records are rebuilt on every listing and never cached.
type ContainerRecord struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Image   string `json:"image" yaml:"image"`
	Status  string `json:"status" yaml:"status"`
	Ports   string `json:"ports" yaml:"ports"`
	Created string `json:"created" yaml:"created"`
	Command string `json:"command" yaml:"command"`
}

// ShortID returns the 12 character form docker prints without --no-trunc.
func (c ContainerRecord) ShortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// LogQuery targets an already resolved container. Zero values mean "flag not given".
type LogQuery struct {
	ContainerID string
	Lines       int
	Since       string
	Until       string
	Timestamps  bool
}

// ExecRequest targets an already resolved, running container.
type ExecRequest struct {
	ContainerID string
	Command     []string
	WorkingDir  string
	Env         []string
	User        string
	Privileged  bool
	Interactive bool
}

// ExecResult is the faithful outcome of the command run inside the container.
// A non-zero ExitCode is the command's own status, not a failure of the call.
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}
