package params

import "fmt"

// RequireParamExpr requires expression to evaluate to true for a passed
// parameter, using the configured evaluator (expr by default). The expression
// sees the value under value and every parameter by name.
func (c *Checker) RequireParamExpr(name, expression string, fatal bool, errorMessage string) error {
	return c.RequireParamExprWith("", name, expression, fatal, errorMessage)
}

// RequireParamExprWith is RequireParamExpr on a named engine. An empty engine
// selects the configured evaluator.
func (c *Checker) RequireParamExprWith(engine, name, expression string, fatal bool, errorMessage string) error {
	value, err := c.store.Any(name)
	if err != nil {
		return err
	}
	if expression == "" {
		return fmt.Errorf("params: expression for %s must not be empty", name)
	}
	if errorMessage == "" {
		return fmt.Errorf("%w: expression check for %s", ErrMessageRequired, name)
	}
	if c.ignoreCheck(name) || !c.store.IsPassed(name) {
		return nil
	}
	evaluator, err := c.evaluatorFor(engine)
	if err != nil {
		return err
	}
	ctx := RuleContext{
		Param:    name,
		Value:    value,
		Params:   c.store.Values(),
		Passed:   c.store.PassedSet(),
		Metadata: c.ruleMetadata(),
	}
	result, err := c.evaluate(evaluator, ctx, expression)
	if err != nil {
		return err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return wrapEvaluationError(evaluatorEngineName(evaluator), expression, name,
			fmt.Errorf("%w, got %T", ErrNonBooleanResult, result))
	}
	if ok {
		return nil
	}
	return c.invalidValue(KindExpr, name, value, fatal, errorMessage)
}

func (c *Checker) ruleMetadata() map[string]any {
	metadata := map[string]any{
		"binding": c.store.BindingStyle().String(),
	}
	if c.cfg.program != "" {
		metadata["program"] = c.cfg.program
	}
	return metadata
}
