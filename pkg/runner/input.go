package runner

import (
	"errors"
	"strings"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

// Request is one of ListInput, LogsInput, InspectInput, StatsInput or ExecInput.
type Request interface {
	Operation() Operation
	// Validate reports every violated field as one InvalidArgument error.
	Validate() error
}

type ListInput struct {
	All bool `json:"all"`
}

type LogsInput struct {
	Container string `json:"container"`
	// Lines is nil when the caller did not ask for a tail size; common.DefaultLogLines is used then.
	Lines      *int   `json:"lines,omitempty"`
	Since      string `json:"since,omitempty"`
	Until      string `json:"until,omitempty"`
	Timestamps bool   `json:"timestamps,omitempty"`
}

type InspectInput struct {
	Container string `json:"container"`
}

type StatsInput struct {
	Container string `json:"container"`
}

type ExecInput struct {
	Container   string   `json:"container"`
	Command     []string `json:"command"`
	WorkingDir  string   `json:"workingDir,omitempty"`
	Env         []string `json:"env,omitempty"`
	User        string   `json:"user,omitempty"`
	Privileged  bool     `json:"privileged,omitempty"`
	Interactive bool     `json:"interactive,omitempty"`
}

func (ListInput) Operation() Operation    { return OpList }
func (LogsInput) Operation() Operation    { return OpLogs }
func (InspectInput) Operation() Operation { return OpInspect }
func (StatsInput) Operation() Operation   { return OpStats }
func (ExecInput) Operation() Operation    { return OpExec }

func (ListInput) Validate() error { return nil }

func (in LogsInput) Validate() error {
	errs := &validation.ValidationErrors{}
	validation.ValidateContainerIdentifier(errs, "container", in.Container)
	if in.Lines != nil {
		validation.ValidateLogLines(errs, "lines", *in.Lines)
	}
	if in.Since != "" {
		validation.ValidateTimestamp(errs, "since", in.Since)
	}
	if in.Until != "" {
		validation.ValidateTimestamp(errs, "until", in.Until)
	}
	return invalid(errs)
}

func (in InspectInput) Validate() error {
	errs := &validation.ValidationErrors{}
	validation.ValidateContainerIdentifier(errs, "container", in.Container)
	return invalid(errs)
}

func (in StatsInput) Validate() error {
	errs := &validation.ValidationErrors{}
	validation.ValidateContainerIdentifier(errs, "container", in.Container)
	return invalid(errs)
}

func (in ExecInput) Validate() error {
	errs := &validation.ValidationErrors{}
	validation.ValidateContainerIdentifier(errs, "container", in.Container)
	validation.ValidateCommand(errs, "command", in.Command)
	if in.WorkingDir != "" {
		validation.ValidateWorkingDir(errs, "workingDir", in.WorkingDir)
	}
	validation.ValidateEnv(errs, "env", in.Env)
	if in.User != "" {
		validation.ValidateUserSpec(errs, "user", in.User)
	}
	return invalid(errs)
}

func invalid(errs *validation.ValidationErrors) error {
	if e := classify.FromValidation(errs); e != nil {
		return e
	}
	return nil
}

// ValidateDecoded runs req.Validate and folds its violations into decodeErrs, the
// type errors found while reading raw arguments into req. A field that already
// failed decoding is reported once, with its decode error.
func ValidateDecoded(req Request, decodeErrs *validation.ValidationErrors) error {
	merged := &validation.ValidationErrors{}
	merged.Merge("", decodeErrs)
	err := req.Validate()
	if err == nil {
		return invalid(merged)
	}
	var cerr *classify.Error
	if !errors.As(err, &cerr) || cerr.Kind != classify.InvalidArgument {
		if merged.HasErrors() {
			return invalid(merged)
		}
		return err
	}
	decoded := merged.Fields()
	for _, f := range cerr.Fields {
		if !failedDecoding(decoded, f.Path) {
			merged.AddError(f.Path, f.Message)
		}
	}
	return invalid(merged)
}

func failedDecoding(decoded []validation.FieldError, path string) bool {
	for _, f := range decoded {
		if f.Path == path || strings.HasPrefix(f.Path, path+"[") {
			return true
		}
	}
	return false
}

func (in LogsInput) query(containerID string) docker.LogQuery {
	lines := common.DefaultLogLines
	if in.Lines != nil {
		lines = *in.Lines
	}
	return docker.LogQuery{
		ContainerID: containerID,
		Lines:       lines,
		Since:       in.Since,
		Until:       in.Until,
		Timestamps:  in.Timestamps,
	}
}

func (in ExecInput) request(containerID string) docker.ExecRequest {
	return docker.ExecRequest{
		ContainerID: containerID,
		Command:     in.Command,
		WorkingDir:  in.WorkingDir,
		Env:         in.Env,
		User:        in.User,
		Privileged:  in.Privileged,
		Interactive: in.Interactive,
	}
}
