package docker

import (
	"strconv"
	"strings"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/util"
)

// Builder assembles docker CLI command lines for `/bin/sh -c`.
// Every value that can carry caller data passes through util.ShellEscape on its own;
// flags are fixed tokens and are never built from input.
type Builder struct {
	Binary string
}

func NewBuilder(binary string) *Builder {
	return &Builder{Binary: binary}
}

func (b *Builder) bin() string {
	return util.ShellEscape(util.FirstNonEmpty(b.Binary, common.DefaultDockerBinary))
}

func (b *Builder) join(args []string) string {
	return strings.Join(args, " ")
}

// List lists running containers, or every container when all is set, one tab separated row each.
func (b *Builder) List(all bool) string {
	args := []string{b.bin(), "ps"}
	if all {
		args = append(args, "--all")
	}
	args = append(args, "--no-trunc", "--format", util.ShellEscape(common.ContainerListFormat))
	return b.join(args)
}

func (b *Builder) Logs(q LogQuery) string {
	args := []string{b.bin(), "logs"}
	if q.Lines > 0 {
		args = append(args, "--tail", strconv.Itoa(q.Lines))
	}
	if q.Since != "" {
		args = append(args, "--since", util.ShellEscape(q.Since))
	}
	if q.Until != "" {
		args = append(args, "--until", util.ShellEscape(q.Until))
	}
	if q.Timestamps {
		args = append(args, "--timestamps")
	}
	args = append(args, util.ShellEscape(q.ContainerID))
	return b.join(args)
}

func (b *Builder) Inspect(containerID string) string {
	return b.join([]string{b.bin(), "inspect", util.ShellEscape(containerID)})
}

func (b *Builder) Stats(containerID string) string {
	return b.join([]string{
		b.bin(), "stats", "--no-stream",
		"--format", util.ShellEscape(common.ContainerStatsFormat),
		util.ShellEscape(containerID),
	})
}

// Exec runs req.Command inside the container. Command tokens are escaped one by one and
// keep their order; they are never joined into a single string first.
func (b *Builder) Exec(req ExecRequest) string {
	args := []string{b.bin(), "exec"}
	if req.Interactive {
		args = append(args, "-it")
	}
	if req.WorkingDir != "" {
		args = append(args, "--workdir", util.ShellEscape(req.WorkingDir))
	}
	if req.User != "" {
		args = append(args, "--user", util.ShellEscape(req.User))
	}
	if req.Privileged {
		args = append(args, "--privileged")
	}
	for _, e := range req.Env {
		args = append(args, "--env", util.ShellEscape(e))
	}
	args = append(args, util.ShellEscape(req.ContainerID))
	args = append(args, util.ShellEscapeAll(req.Command)...)
	return b.join(args)
}

// Version prints the daemon version and fails when the daemon cannot be reached.
func (b *Builder) Version() string {
	return b.join([]string{b.bin(), "version", "--format", util.ShellEscape(common.DaemonVersionFormat)})
}

func (b *Builder) ClientVersion() string {
	return b.join([]string{b.bin(), "version", "--format", util.ShellEscape(common.ClientVersionFormat)})
}
