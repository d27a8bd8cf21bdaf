// Package classify reduces docker and process failures to the closed set of error kinds
// callers are allowed to see.
package classify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mensylisir/dockmcp/pkg/connector"
	"github.com/mensylisir/dockmcp/pkg/errors/validation"
)

// Kind is the caller-visible failure category.
type Kind string

const (
	InvalidArgument     Kind = "InvalidArgument"
	DaemonUnavailable   Kind = "DaemonUnavailable"
	ContainerNotFound   Kind = "ContainerNotFound"
	ContainerNotRunning Kind = "ContainerNotRunning"
	RuntimeNotInstalled Kind = "RuntimeNotInstalled"
	Unclassified        Kind = "Unclassified"
)

// Kinds lists every kind in a stable order.
func Kinds() []Kind {
	return []Kind{InvalidArgument, DaemonUnavailable, ContainerNotFound, ContainerNotRunning, RuntimeNotInstalled, Unclassified}
}

const (
	CodeTimeout  = "timeout"
	CodeCanceled = "canceled"
)

// Error is a classified failure. Message is safe to show to the caller as is.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Fields  []validation.FieldError
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a classified error, Unclassified for anything else, and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Unclassified
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromValidation turns aggregated field violations into one InvalidArgument error that
// lists every violated field.
func FromValidation(verrs *validation.ValidationErrors) *Error {
	if verrs == nil || verrs.IsEmpty() {
		return nil
	}
	return &Error{
		Kind:    InvalidArgument,
		Message: "invalid arguments:\n" + verrs.Error(),
		Fields:  verrs.Fields(),
		Err:     verrs,
	}
}

// NotFound is the resolver's pre-flight miss.
func NotFound(identifier string, runningOnly bool) *Error {
	msg := fmt.Sprintf("container %q not found", identifier)
	if runningOnly {
		msg = fmt.Sprintf("container %q not found among running containers (only running containers are searched for this operation)", identifier)
	}
	return &Error{Kind: ContainerNotFound, Message: msg}
}

var (
	daemonMarkers = []string{
		"cannot connect to the docker daemon",
		"is the docker daemon running",
		"permission denied",
		"error during connect",
		"docker daemon is not running",
	}
	notRunningMarkers   = []string{"is not running"}
	notFoundMarkers     = []string{"no such container"}
	notInstalledMarkers = []string{"command not found", "executable file not found"}

	// execDaemonMarkers identify output written by the docker CLI itself rather than by the
	// command running inside the container.
	execDaemonMarkers = []string{
		"error response from daemon:",
		"cannot connect to the docker daemon",
		"permission denied while trying to connect to the docker daemon",
	}
)

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// ClassifyText maps raw failure text to a kind, most specific pattern first.
func ClassifyText(text string) *Error {
	lower := strings.ToLower(text)
	detail := firstLine(text)
	switch {
	case containsAny(lower, daemonMarkers):
		return &Error{Kind: DaemonUnavailable, Message: fmt.Sprintf("Docker daemon is not accessible: %s. Make sure Docker is running and the current user may access the Docker socket", detail)}
	case containsAny(lower, notRunningMarkers):
		return &Error{Kind: ContainerNotRunning, Message: fmt.Sprintf("container is not running: %s", detail)}
	case containsAny(lower, notFoundMarkers):
		return &Error{Kind: ContainerNotFound, Message: fmt.Sprintf("container not found: %s", detail)}
	case containsAny(lower, notInstalledMarkers):
		return &Error{Kind: RuntimeNotInstalled, Message: fmt.Sprintf("Docker CLI is not installed or not in PATH: %s", detail)}
	default:
		return &Error{Kind: Unclassified, Message: strings.TrimSpace(text)}
	}
}

// Classify converts any failure returned by the connector or the facade into a classified error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Unclassified, Code: CodeTimeout, Message: fmt.Sprintf("docker command timed out: %v", err), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: Unclassified, Code: CodeCanceled, Message: "operation canceled by caller", Err: err}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &Error{Kind: RuntimeNotInstalled, Message: fmt.Sprintf("shell or Docker CLI is not installed: %v", err), Err: err}
	}

	var cmdErr *connector.CommandError
	if errors.As(err, &cmdErr) {
		text := strings.TrimSpace(cmdErr.Stderr)
		if text == "" {
			text = strings.TrimSpace(cmdErr.Stdout)
		}
		if text == "" {
			text = cmdErr.Error()
		}
		classified := ClassifyText(text)
		// sh reports a missing binary as "<name>: not found" with status 127.
		if classified.Kind == Unclassified && cmdErr.ExitCode == 127 && strings.Contains(strings.ToLower(text), "not found") {
			classified = &Error{Kind: RuntimeNotInstalled, Message: fmt.Sprintf("Docker CLI is not installed or not in PATH: %s", firstLine(text))}
		}
		classified.Err = err
		return classified
	}

	classified := ClassifyText(err.Error())
	classified.Err = err
	return classified
}

// IsDockerCLIFailure reports whether stderr from `docker exec` was produced by the docker
// CLI or daemon rather than by the command inside the container.
func IsDockerCLIFailure(stderr string) bool {
	return containsAny(strings.ToLower(stderr), execDaemonMarkers)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
