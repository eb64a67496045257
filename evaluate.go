package params

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var ErrNoEvaluator = errors.New("params: evaluator not configured")

// Engine names accepted by NewEvaluator and manifest check blocks.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewEvaluator constructs the evaluator registered under engine. The program
// cache and function registry configured through opts are wired in. An empty
// engine selects expr.
func NewEvaluator(engine string, opts ...Option) (Evaluator, error) {
	return applyOptions(opts).newEvaluator(engine)
}

func (cfg config) newEvaluator(engine string) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(
			ExprWithProgramCache(cfg.programCache),
			ExprWithFunctionRegistry(cfg.functions),
		), nil
	case EngineCEL:
		return NewCELEvaluator(
			CELWithProgramCache(cfg.programCache),
			CELWithFunctionRegistry(cfg.functions),
		), nil
	case EngineJS:
		evaluator := NewJSEvaluator(
			JSWithProgramCache(cfg.programCache),
			JSWithFunctionRegistry(cfg.functions),
		)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// evaluatorFor returns the configured evaluator for the default engine, or a
// lazily built one for a named engine.
func (c *Checker) evaluatorFor(engine string) (Evaluator, error) {
	key := strings.ToLower(strings.TrimSpace(engine))
	if key == "" && c.cfg.evaluator != nil {
		return c.cfg.evaluator, nil
	}
	if key == "" {
		key = EngineExpr
	}
	if evaluator, ok := c.evaluators[key]; ok {
		return evaluator, nil
	}
	evaluator, err := c.cfg.newEvaluator(key)
	if err != nil {
		return nil, err
	}
	if c.evaluators == nil {
		c.evaluators = map[string]Evaluator{}
	}
	c.evaluators[key] = evaluator
	return evaluator, nil
}

// evaluate runs expr and records timing through the evaluator logger.
func (c *Checker) evaluate(evaluator Evaluator, ctx RuleContext, expr string) (any, error) {
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	err = wrapEvaluationError(engine, expr, ctx.Param, err)
	c.cfg.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Param:    ctx.Param,
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}

// ruleEnvironment flattens ctx into the variables visible to expressions.
// Parameters whose names are valid identifiers are exposed directly; the
// reserved names always win.
func ruleEnvironment(ctx RuleContext) map[string]any {
	env := make(map[string]any, len(ctx.Params)+7)
	for name, value := range ctx.Params {
		if identifierPattern.MatchString(name) {
			env[name] = value
		}
	}
	env["value"] = ctx.Value
	env["name"] = ctx.Param
	env["params"] = ctx.Params
	env["passed"] = ctx.Passed
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	return env
}

func environmentKeys(env map[string]any) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*params.exprEvaluator":
		return EngineExpr
	case "*params.celEvaluator":
		return EngineCEL
	case "*params.jsEvaluator":
		return EngineJS
	default:
		return "custom"
	}
}
