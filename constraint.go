package params

// Constraint is a check a Program declares against its parameters.
type Constraint interface {
	Check(*Checker) error
}

// ConstraintFunc adapts a function to Constraint.
type ConstraintFunc func(*Checker) error

// Check implements Constraint.
func (f ConstraintFunc) Check(c *Checker) error {
	if f == nil {
		return nil
	}
	return f(c)
}

// OnlyOne requires exactly one of names to be passed.
func OnlyOne(fatal bool, custom string, names ...string) Constraint {
	names = append([]string(nil), names...)
	return ConstraintFunc(func(c *Checker) error {
		return c.RequireOnlyOnePassed(names, fatal, custom)
	})
}

// AtLeastOne requires one or more of names to be passed.
func AtLeastOne(fatal bool, custom string, names ...string) Constraint {
	names = append([]string(nil), names...)
	return ConstraintFunc(func(c *Checker) error {
		return c.RequireAtLeastOnePassed(names, fatal, custom)
	})
}

// InSet requires a passed parameter to hold one of set.
func InSet[T comparable](name string, set []T, fatal bool, errorMessage string) Constraint {
	set = append([]T(nil), set...)
	return ConstraintFunc(func(c *Checker) error {
		return RequireParamInSet(c, name, set, fatal, errorMessage)
	})
}

// InSetAny is InSet for values whose type is only known at runtime.
func InSetAny(name string, set []any, fatal bool, errorMessage string) Constraint {
	set = append([]any(nil), set...)
	return ConstraintFunc(func(c *Checker) error {
		return c.RequireInSet(name, set, fatal, errorMessage)
	})
}

// ValueIs requires predicate to accept the value of a passed parameter.
func ValueIs[T any](name string, predicate func(T) bool, fatal bool, errorMessage string) Constraint {
	return ConstraintFunc(func(c *Checker) error {
		return RequireParamValue(c, name, predicate, fatal, errorMessage)
	})
}

// Expr requires expression to hold for a passed parameter. engine may be
// empty to use the checker's evaluator.
func Expr(engine, name, expression string, fatal bool, errorMessage string) Constraint {
	return ConstraintFunc(func(c *Checker) error {
		return c.RequireParamExprWith(engine, name, expression, fatal, errorMessage)
	})
}

// Ignored warns that name is ignored when every condition holds.
func Ignored(name string, conditions ...Condition) Constraint {
	conditions = append([]Condition(nil), conditions...)
	return ConstraintFunc(func(c *Checker) error {
		return c.ReportIgnoredParam(conditions, name)
	})
}
