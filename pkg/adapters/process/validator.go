// Package process delegates validation to an external command.
//
// Each validation pass runs the command once. The request is written to its
// stdin as JSON:
//
//	{"rules": {"email": ["required"]}, "values": {"email": ""}, "first": false, "first_fields": {}}
//
// and the command prints the failures to stdout as a JSON list of
// {"field": ..., "message": ...} objects. Empty output means no failure.
// A non-zero exit status fails the whole pass.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// Command defines the external validator to execute.
type Command struct {
	Command     string            `yaml:"command" json:"command" mapstructure:"command"`
	Args        []string          `yaml:"args" json:"args" mapstructure:"args"`
	Environment map[string]string `yaml:"env" json:"env" mapstructure:"env"`
}

// ExecError is returned when the command cannot run or exits with an error.
type ExecError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("validator %s failed: %v. Stderr: %s", e.Command, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *ExecError) Unwrap() error { return e.Err }

// Validator implements ports.Validator by running a Command.
type Validator struct {
	cmd     Command
	baseDir string
}

// Option configures the validator.
type Option func(*Validator)

// WithBaseDir sets the working directory of the command.
func WithBaseDir(dir string) Option {
	return func(v *Validator) {
		v.baseDir = dir
	}
}

// New creates a Validator running cmd.
func New(cmd Command, opts ...Option) (*Validator, error) {
	if cmd.Command == "" {
		return nil, fmt.Errorf("validator command is required")
	}
	v := &Validator{cmd: cmd}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type request struct {
	Rules       map[string][]domain.Rule `json:"rules"`
	Values      map[string]any           `json:"values"`
	First       bool                     `json:"first"`
	FirstFields domain.FirstFields       `json:"first_fields"`
}

// Validate runs the command for req. Cancelling ctx kills it.
func (v *Validator) Validate(ctx context.Context, req ports.ValidationRequest) ([]domain.ErrorEntry, error) {
	input, err := json.Marshal(request{
		Rules:       req.Rules,
		Values:      req.Values,
		First:       req.First,
		FirstFields: req.FirstFields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation request: %w", err)
	}

	// Security: the request travels on stdin, never as command line flags.
	cmd := exec.CommandContext(ctx, v.cmd.Command, v.cmd.Args...)
	cmd.Dir = v.baseDir
	cmd.Env = cmd.Environ()
	for k, val := range v.cmd.Environment {
		cmd.Env = append(cmd.Env, k+"="+val)
	}
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExecError{Command: v.cmd.Command, Stderr: stderr.String(), Err: err}
	}

	output := bytes.TrimSpace(stdout.Bytes())
	if len(output) == 0 {
		return nil, nil
	}
	var entries []domain.ErrorEntry
	if err := json.Unmarshal(output, &entries); err != nil {
		return nil, fmt.Errorf("validator %s: invalid output: %w", v.cmd.Command, err)
	}

	// Drop entries for fields that were not asked for.
	out := entries[:0]
	for _, e := range entries {
		if _, ok := req.Rules[e.Field]; ok {
			out = append(out, e)
		}
	}
	if req.First && len(out) > 1 {
		out = out[:1]
	}
	return out, nil
}
