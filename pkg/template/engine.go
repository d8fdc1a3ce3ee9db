// Package template implements the response-template mini-language:
// single-level conditional and loop blocks, dot-path variable
// substitution, function calls and a narrow formatting pass, evaluated in
// a fixed order so later passes always see the output of earlier ones.
package template

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/replyforge/replyforge/pkg/models"
)

// ErrEmptyContent indicates a template with no content reached the engine.
var ErrEmptyContent = errors.New("template content is empty")

// OptionSource supplies the two domain lookups exposed as template
// functions. Implementations must serve from memory: the engine performs
// no I/O during a render.
type OptionSource interface {
	ChannelOptions() []models.Option
	StatusOptions(workflowType models.WorkflowType) []models.Option
}

// RenderOptions select the rendering mode for one render.
type RenderOptions struct {
	// Preview contains failures per-construct and marks them inline
	// instead of aborting the render.
	Preview bool

	// Locale tags locale-aware formatting functions; defaults to "en".
	Locale string
}

// Config wires an engine instance. Registries are per-instance; there is
// no process-wide function table.
type Config struct {
	Options OptionSource
}

// Engine renders template strings against a variable context.
type Engine struct {
	functions map[string]Func
	logger    *slog.Logger
}

// NewEngine creates a template engine with the built-in function set.
func NewEngine(logger *slog.Logger, config Config) *Engine {
	e := &Engine{
		functions: make(map[string]Func),
		logger:    logger.With("module", "template"),
	}

	registerBuiltins(e, config.Options)

	return e
}

// RegisterFunc adds or replaces a named template function.
func (e *Engine) RegisterFunc(name string, fn Func) {
	e.functions[name] = fn
}

// Render evaluates content against vars. Pass order is a design contract:
// conditionals, loops, variable substitution, function calls, formatting,
// then preview cleanup. In normal mode an engine-level failure aborts with
// an error; in preview mode failures render inline and the rest of the
// document still comes out.
func (e *Engine) Render(content string, vars map[string]any, opts RenderOptions) (string, error) {
	if content == "" {
		if opts.Preview {
			return previewMarker("empty template"), nil
		}

		return "", ErrEmptyContent
	}

	if vars == nil {
		vars = map[string]any{}
	}

	if opts.Locale == "" {
		opts.Locale = "en"
	}

	out := e.renderConditionals(content, vars, opts)
	out = e.renderLoops(out, vars, opts)
	out = e.renderVariables(out, vars, opts)
	out = e.renderFunctions(out, vars, opts)
	out = unescapeFormatting(out)

	if opts.Preview {
		out = previewCleanup(out)
	}

	return out, nil
}

func previewMarker(detail string) string {
	return fmt.Sprintf("[! %s !]", detail)
}
