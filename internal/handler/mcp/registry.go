package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrToolNotFound = errors.New("tool not found")
)

// Result is the rendered output of one tool invocation.
type Result struct {
	Text    string
	IsError bool
}

type Tool interface {
	Name() string
	Description() string
	Schema() []byte
	Run(ctx context.Context, args json.RawMessage) (Result, error)
}

type Hook interface {
	BeforeRun(ctx context.Context, toolName string, args json.RawMessage) error
	AfterRun(ctx context.Context, toolName string, result Result, runErr error, elapsed time.Duration)
}

type Registry struct {
	tools map[string]Tool
	hooks []Hook
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool is nil")
	}
	name := strings.ToLower(strings.TrimSpace(t.Name()))
	if name == "" {
		return errors.New("tool name is empty")
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	if !json.Valid(t.Schema()) {
		return fmt.Errorf("tool %q has an invalid input schema", name)
	}

	r.tools[name] = t
	return nil
}

func (r *Registry) RegisterHook(h Hook) error {
	if h == nil {
		return errors.New("hook is nil")
	}

	r.hooks = append(r.hooks, h)
	return nil
}

func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return t, nil
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

// Descriptors returns the tools/list payload, sorted by name.
func (r *Registry) Descriptors() []ToolDescriptor {
	names := r.List()
	out := make([]ToolDescriptor, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		out = append(out, ToolDescriptor{
			Name:        name,
			Description: t.Description(),
			InputSchema: json.RawMessage(t.Schema()),
		})
	}

	return out
}

// Run invokes a tool. A BeforeRun error stops the call; AfterRun always sees
// the outcome of a call that started.
func (r *Registry) Run(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	t, err := r.Get(name)
	if err != nil {
		return Result{}, err
	}

	for _, h := range r.hooks {
		if err := h.BeforeRun(ctx, t.Name(), args); err != nil {
			return Result{}, err
		}
	}

	started := time.Now()
	res, runErr := t.Run(ctx, args)
	elapsed := time.Since(started)

	for _, h := range r.hooks {
		h.AfterRun(ctx, t.Name(), res, runErr, elapsed)
	}

	return res, runErr
}

// toolFunc adapts a plain function with its metadata into a Tool.
type toolFunc struct {
	name        string
	description string
	schema      []byte
	run         func(ctx context.Context, args json.RawMessage) (Result, error)
}

func (t toolFunc) Name() string        { return t.name }
func (t toolFunc) Description() string { return t.description }
func (t toolFunc) Schema() []byte      { return t.schema }

func (t toolFunc) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	return t.run(ctx, args)
}

// typedTool decodes the arguments into A before calling run.
func typedTool[A any](name, description, schema string, run func(ctx context.Context, args A) Result) Tool {
	return toolFunc{
		name:        name,
		description: description,
		schema:      []byte(schema),
		run: func(ctx context.Context, raw json.RawMessage) (Result, error) {
			var args A
			if err := parseJSONArgs(raw, &args); err != nil {
				return Result{}, &ArgumentError{Tool: name, Err: err}
			}
			return run(ctx, args), nil
		},
	}
}

// ArgumentError is returned when tool arguments cannot be decoded.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func parseJSONArgs(raw json.RawMessage, out any) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	return json.Unmarshal([]byte(trimmed), out)
}
