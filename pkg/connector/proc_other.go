//go:build !unix

package connector

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
