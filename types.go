package params

import (
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
)

// RuleContext carries inputs needed when evaluating a constraint expression.
type RuleContext struct {
	Param    string
	Value    any
	Params   map[string]any
	Passed   map[string]bool
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Params == nil {
		ctx.Params = map[string]any{}
	}
	if ctx.Passed == nil {
		ctx.Passed = map[string]bool{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures checkers and runners.
type Option func(*config)

type config struct {
	program           string
	sinks             []Sink
	evaluator         Evaluator
	programCache      ProgramCache
	functions         *FunctionRegistry
	logger            EvaluatorLogger
	activityHooks     activity.Hooks
	activityChannel   string
	captureViolations bool
	requiredCheck     bool
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithProgram names the program diagnostics and activity events belong to.
func WithProgram(id string) Option {
	return func(cfg *config) {
		cfg.program = strings.TrimSpace(id)
	}
}

// WithSink adds a diagnostics sink. Without any sink, diagnostics go to
// slog.Default().
func WithSink(sink Sink) Option {
	return func(cfg *config) {
		if sink != nil {
			cfg.sinks = append(cfg.sinks, sink)
		}
	}
}

// WithLogger adds a sink that writes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.sinks = append(cfg.sinks, NewLogSink(logger))
		}
	}
}

// WithEvaluator configures the expression engine used by RequireParamExpr.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithCaptureViolations makes Runner.Invoke report fatal violations through
// Result instead of returning them as errors.
func WithCaptureViolations(capture bool) Option {
	return func(cfg *config) {
		cfg.captureViolations = capture
	}
}

// WithRequiredCheck makes Runner.Invoke fail when a required parameter was not
// passed.
func WithRequiredCheck(enabled bool) Option {
	return func(cfg *config) {
		cfg.requiredCheck = enabled
	}
}

func (cfg config) sink() Sink {
	if len(cfg.sinks) == 0 {
		return NewLogSink(slog.Default())
	}
	if len(cfg.sinks) == 1 {
		return cfg.sinks[0]
	}
	return MultiSink(cfg.sinks...)
}

func (cfg config) evaluatorLogger() EvaluatorLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopEvaluatorLogger{}
}

func (cfg config) clone() config {
	out := cfg
	out.sinks = append([]Sink(nil), cfg.sinks...)
	out.activityHooks = cfg.activityHooks.Compact()
	return out
}
