// Package validation holds the format and range rules every caller-supplied argument must
// pass before a docker command is built. Rules report into a shared ValidationErrors so a
// request is rejected with all of its problems at once.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mensylisir/dockmcp/pkg/common"
	verrors "github.com/mensylisir/dockmcp/pkg/errors/validation"
)

// ValidationErrors is re-exported so callers only need this package.
type ValidationErrors = verrors.ValidationErrors
type FieldError = verrors.FieldError

// Patterns are exported so tool schemas can advertise the same rules.
const (
	ContainerNamePattern = `^[A-Za-z0-9][A-Za-z0-9._-]*$`
	ContainerIDPattern   = `^[A-Fa-f0-9]+$`
	// ContainerIdentifierPattern is the union of a name, a hex ID and a /-prefixed name.
	ContainerIdentifierPattern = `^(/.*|[A-Za-z0-9][A-Za-z0-9._-]*)$`
	RelativeTimePattern        = `^\d+[smhd]$`
	EnvVarPattern              = `^[A-Za-z_][A-Za-z0-9_]*=.*$`
	UserSpecPattern            = `^([A-Za-z0-9_-]+|\d+)(:([A-Za-z0-9_-]+|\d+))?$`
	WorkingDirPattern          = `^/`
)

var (
	containerNameRegex = regexp.MustCompile(ContainerNamePattern)
	containerIDRegex   = regexp.MustCompile(ContainerIDPattern)
	relativeTimeRegex  = regexp.MustCompile(RelativeTimePattern)
	unixTimeRegex      = regexp.MustCompile(`^\d+(\.\d{1,9})?$`)
	envVarRegex        = regexp.MustCompile(EnvVarPattern)
	userSpecRegex      = regexp.MustCompile(UserSpecPattern)
)

// absoluteTimeLayouts are the calendar forms docker logs accepts for --since/--until.
var absoluteTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.UnixDate,
	time.ANSIC,
}

// IsValidContainerIdentifier accepts a container name, a hex ID (full or short) or a
// slash-prefixed runtime name.
func IsValidContainerIdentifier(id string) bool {
	if id == "" {
		return false
	}
	if strings.HasPrefix(id, "/") {
		return true
	}
	return containerNameRegex.MatchString(id) || containerIDRegex.MatchString(id)
}

func IsValidLogLines(n int) bool {
	return n >= common.MinLogLines && n <= common.MaxLogLines
}

// IsRelativeTime reports whether ts is a duration token such as "10m" or "2d".
func IsRelativeTime(ts string) bool {
	return relativeTimeRegex.MatchString(ts)
}

// ParseAbsoluteTime parses ts as a calendar timestamp or Unix epoch seconds.
// Surrounding whitespace makes ts invalid.
func ParseAbsoluteTime(ts string) (time.Time, bool) {
	if ts == "" || ts != strings.TrimSpace(ts) {
		return time.Time{}, false
	}
	if unixTimeRegex.MatchString(ts) {
		secs, frac, _ := strings.Cut(ts, ".")
		s, err := strconv.ParseInt(secs, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		var nanos int64
		if frac != "" {
			frac = (frac + "000000000")[:9]
			nanos, _ = strconv.ParseInt(frac, 10, 64)
		}
		return time.Unix(s, nanos).UTC(), true
	}
	for _, layout := range absoluteTimeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValidTimestamp accepts either a relative duration token or an absolute timestamp.
func IsValidTimestamp(ts string) bool {
	if IsRelativeTime(ts) {
		return true
	}
	_, ok := ParseAbsoluteTime(ts)
	return ok
}

func IsValidEnvVar(entry string) bool {
	return envVarRegex.MatchString(entry)
}

func IsValidUserSpec(user string) bool {
	return userSpecRegex.MatchString(user)
}

func IsValidWorkingDir(dir string) bool {
	return dir != "" && strings.HasPrefix(dir, "/")
}

// Rule helpers. Each one appends to errs and never stops the caller.

func ValidateContainerIdentifier(errs *ValidationErrors, path, id string) {
	if id == "" {
		errs.AddError(path, "container identifier is required")
		return
	}
	if !IsValidContainerIdentifier(id) {
		errs.AddError(path, fmt.Sprintf("invalid container identifier %q: must be a container name, a hex ID or a /-prefixed name", id))
	}
}

func ValidateLogLines(errs *ValidationErrors, path string, lines int) {
	if !IsValidLogLines(lines) {
		errs.AddError(path, fmt.Sprintf("must be an integer between %d and %d, got %d", common.MinLogLines, common.MaxLogLines, lines))
	}
}

func ValidateTimestamp(errs *ValidationErrors, path, ts string) {
	if !IsValidTimestamp(ts) {
		errs.AddError(path, fmt.Sprintf("invalid timestamp %q: use a relative duration like 10m, 2h, 1d or an absolute date like 2024-01-01T00:00:00Z", ts))
	}
}

func ValidateCommand(errs *ValidationErrors, path string, command []string) {
	if len(command) < common.MinExecArgs {
		errs.AddError(path, "command must contain at least one argument")
		return
	}
	if len(command) > common.MaxExecArgs {
		errs.AddError(path, fmt.Sprintf("command must contain at most %d arguments, got %d", common.MaxExecArgs, len(command)))
	}
	for i, arg := range command {
		if arg == "" {
			errs.AddError(fmt.Sprintf("%s[%d]", path, i), "argument must not be empty")
		}
	}
}

func ValidateEnv(errs *ValidationErrors, path string, env []string) {
	for i, entry := range env {
		if !IsValidEnvVar(entry) {
			errs.AddError(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("invalid environment variable %q: must match KEY=VALUE", entry))
		}
	}
}

func ValidateUserSpec(errs *ValidationErrors, path, user string) {
	if !IsValidUserSpec(user) {
		errs.AddError(path, fmt.Sprintf("invalid user %q: use user[:group] or uid[:gid]", user))
	}
}

func ValidateWorkingDir(errs *ValidationErrors, path, dir string) {
	if !IsValidWorkingDir(dir) {
		errs.AddError(path, fmt.Sprintf("invalid working directory %q: must be an absolute path", dir))
	}
}
