package params

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-params/pkg/activity"
)

// Checker evaluates constraints against a Store and reports violations through
// the configured Sink. Each check produces at most one diagnostic. A fatal
// violation is returned as a *ViolationError; warnings return nil.
type Checker struct {
	ctx         context.Context
	store       *Store
	cfg         config
	sink        Sink
	emitter     *activity.Emitter
	evaluators  map[string]Evaluator
	diagnostics []Diagnostic
}

// NewChecker returns a checker bound to store.
func NewChecker(store *Store, opts ...Option) *Checker {
	return newChecker(context.Background(), store, applyOptions(opts))
}

func newChecker(ctx context.Context, store *Store, cfg config) *Checker {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Checker{
		ctx:     ctx,
		store:   store,
		cfg:     cfg,
		sink:    cfg.sink(),
		emitter: cfg.activityEmitter(),
	}
}

// Store returns the store the checker reads from.
func (c *Checker) Store() *Store {
	return c.store
}

// Diagnostics returns every diagnostic the checker has produced so far.
func (c *Checker) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Condition pairs a parameter with the passed state it must have.
type Condition struct {
	Name   string
	Passed bool
}

// WhenPassed holds when name was passed.
func WhenPassed(name string) Condition {
	return Condition{Name: name, Passed: true}
}

// WhenAbsent holds when name was not passed.
func WhenAbsent(name string) Condition {
	return Condition{Name: name, Passed: false}
}

// RequireOnlyOnePassed requires exactly one of names to be passed. custom is
// appended to the message after a semicolon; it should start lower-case and
// carry no trailing punctuation.
func (c *Checker) RequireOnlyOnePassed(names []string, fatal bool, custom string) error {
	if err := c.known(names...); err != nil {
		return err
	}
	if c.ignoreCheck(names...) {
		return nil
	}
	if c.countPassed(names) == 1 {
		return nil
	}
	message := "Must specify " + c.describeSet(names, "or")
	return c.report(KindOnlyOne, names, fatal, withCustom(message, custom)+"!")
}

// RequireAtLeastOnePassed requires one or more of names to be passed.
func (c *Checker) RequireAtLeastOnePassed(names []string, fatal bool, custom string) error {
	if err := c.known(names...); err != nil {
		return err
	}
	if c.ignoreCheck(names...) {
		return nil
	}
	if c.countPassed(names) >= 1 {
		return nil
	}
	message := "Should pass " + c.describeSet(names, "or")
	return c.report(KindAtLeastOne, names, fatal, withCustom(message, custom)+"!")
}

// RequireParamInSet requires a passed parameter to hold one of set. Unpassed
// parameters are not checked.
func RequireParamInSet[T comparable](c *Checker, name string, set []T, fatal bool, errorMessage string) error {
	v, err := Get[T](c.store, name)
	if err != nil {
		return err
	}
	values := make([]any, len(set))
	for i := range set {
		values[i] = set[i]
	}
	return c.requireInSet(name, *v, values, func(a, b any) bool {
		return a.(T) == b.(T)
	}, fatal, errorMessage)
}

// RequireInSet is the untyped form of RequireParamInSet. Values are compared
// with reflect.DeepEqual, so set must hold values of the registered type.
func (c *Checker) RequireInSet(name string, set []any, fatal bool, errorMessage string) error {
	v, err := c.store.Any(name)
	if err != nil {
		return err
	}
	return c.requireInSet(name, v, set, reflect.DeepEqual, fatal, errorMessage)
}

func (c *Checker) requireInSet(name string, value any, set []any, equal func(a, b any) bool, fatal bool, errorMessage string) error {
	if errorMessage == "" {
		return fmt.Errorf("%w: in-set check for %s", ErrMessageRequired, name)
	}
	if len(set) == 0 {
		return fmt.Errorf("%w: in-set check for %s has no allowed values", ErrEmptyConstraint, name)
	}
	if c.ignoreCheck(name) || !c.store.IsPassed(name) {
		return nil
	}
	for _, candidate := range set {
		if equal(candidate, value) {
			return nil
		}
	}
	allowed := make([]string, len(set))
	for i, candidate := range set {
		allowed[i] = formatValue(candidate, true)
	}
	message := fmt.Sprintf("Invalid value of %s specified (%s); %s; must be one of %s!",
		quote(c.store.Label(name)), formatValue(value, true), errorMessage, setList(allowed))
	return c.report(KindInSet, []string{name}, fatal, message)
}

// RequireParamValue requires predicate to accept the value of a passed
// parameter. Unpassed parameters keep their default and are not checked.
func RequireParamValue[T any](c *Checker, name string, predicate func(T) bool, fatal bool, errorMessage string) error {
	if predicate == nil {
		return fmt.Errorf("params: value check for %s has no predicate", name)
	}
	v, err := Get[T](c.store, name)
	if err != nil {
		return err
	}
	if errorMessage == "" {
		return fmt.Errorf("%w: value check for %s", ErrMessageRequired, name)
	}
	if c.ignoreCheck(name) || !c.store.IsPassed(name) {
		return nil
	}
	if predicate(*v) {
		return nil
	}
	return c.invalidValue(KindValue, name, *v, fatal, errorMessage)
}

// ReportIgnoredParam warns that name will be ignored when every condition
// holds and name was passed. It never produces a fatal diagnostic; the error
// return only reports unknown parameter names.
func (c *Checker) ReportIgnoredParam(conditions []Condition, name string) error {
	names := make([]string, 0, len(conditions)+1)
	for _, cond := range conditions {
		names = append(names, cond.Name)
	}
	names = append(names, name)
	if err := c.known(names...); err != nil {
		return err
	}
	if c.ignoreCheck(names...) {
		return nil
	}
	for _, cond := range conditions {
		if c.store.IsPassed(cond.Name) != cond.Passed {
			return nil
		}
	}
	if !c.store.IsPassed(name) {
		return nil
	}
	_ = c.report(KindIgnored, names, false, c.ignoredMessage(conditions, name))
	return nil
}

// CheckRequired reports required parameters that were not passed.
func (c *Checker) CheckRequired(fatal bool) error {
	missing := c.store.Missing()
	if len(missing) == 0 {
		return nil
	}
	noun := "parameter"
	if len(missing) > 1 {
		noun = "parameters"
	}
	message := fmt.Sprintf("Missing required %s %s!", noun, joinList(c.quotedLabels(missing), "and"))
	return c.report(KindRequired, missing, fatal, message)
}

// Check evaluates constraints in order and stops at the first error.
func (c *Checker) Check(constraints ...Constraint) error {
	for _, constraint := range constraints {
		if constraint == nil {
			continue
		}
		if err := constraint.Check(c); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) invalidValue(kind, name string, value any, fatal bool, errorMessage string) error {
	message := fmt.Sprintf("Invalid value of %s specified (%s); %s!",
		quote(c.store.Label(name)), formatValue(value, false), errorMessage)
	return c.report(kind, []string{name}, fatal, message)
}

func (c *Checker) ignoredMessage(conditions []Condition, name string) string {
	subject := quote(c.store.Label(name)) + " ignored"
	switch len(conditions) {
	case 0:
		return subject + "!"
	case 1:
		return subject + " because " + c.conditionPhrase(conditions[0]) + "!"
	case 2:
		if conditions[0].Passed == conditions[1].Passed {
			first := quote(c.store.Label(conditions[0].Name))
			second := quote(c.store.Label(conditions[1].Name))
			if conditions[0].Passed {
				return subject + " because both " + first + " and " + second + " are specified!"
			}
			return subject + " because neither " + first + " nor " + second + " are specified!"
		}
	}
	phrases := make([]string, len(conditions))
	for i, cond := range conditions {
		phrases[i] = c.conditionPhrase(cond)
	}
	return subject + " because " + strings.Join(phrases, " and ") + "!"
}

func (c *Checker) conditionPhrase(cond Condition) string {
	if cond.Passed {
		return quote(c.store.Label(cond.Name)) + " is specified"
	}
	return quote(c.store.Label(cond.Name)) + " is not specified"
}

func (c *Checker) report(kind string, names []string, fatal bool, message string) error {
	d := Diagnostic{
		Level:      LevelWarn,
		Constraint: kind,
		Params:     append([]string(nil), names...),
		Message:    message,
	}
	if fatal {
		d.Level = LevelFatal
	}
	c.diagnostics = append(c.diagnostics, d)
	c.sink.Report(d)
	c.emitDiagnostic(d)
	if d.Fatal() {
		return &ViolationError{Diagnostic: d}
	}
	return nil
}

func (c *Checker) known(names ...string) error {
	if len(names) == 0 {
		return ErrEmptyConstraint
	}
	for _, name := range names {
		if !c.store.Has(name) {
			return UnknownParameterError{Name: name}
		}
	}
	return nil
}

// ignoreCheck skips checks that involve output parameters under bindings that
// always return every output.
func (c *Checker) ignoreCheck(names ...string) bool {
	if !c.store.BindingStyle().skipsOutputs() {
		return false
	}
	for _, name := range names {
		if info, ok := c.store.Lookup(name); ok && info.Output {
			return true
		}
	}
	return false
}

func (c *Checker) countPassed(names []string) int {
	n := 0
	for _, name := range names {
		if c.store.IsPassed(name) {
			n++
		}
	}
	return n
}

func (c *Checker) describeSet(names []string, conjunction string) string {
	labels := c.quotedLabels(names)
	if len(labels) == 1 {
		return labels[0]
	}
	return "one of " + joinList(labels, conjunction)
}

func (c *Checker) quotedLabels(names []string) []string {
	labels := make([]string, len(names))
	for i, name := range names {
		labels[i] = quote(c.store.Label(name))
	}
	return labels
}

func withCustom(message, custom string) string {
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return message
	}
	return message + "; " + custom
}

// joinList renders items as "a", "a or b" or "a, b, or c".
func joinList(items []string, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conjunction + " " + items[1]
	default:
		last := len(items) - 1
		return strings.Join(items[:last], ", ") + ", " + conjunction + " " + items[last]
	}
}

// setList renders the allowed values of an in-set check. Every member but
// the last is followed by a comma: "a", "a, or b", "a, b, or c".
func setList(items []string) string {
	if len(items) < 2 {
		return joinList(items, "or")
	}
	last := len(items) - 1
	return strings.Join(items[:last], ", ") + ", or " + items[last]
}

func formatValue(value any, quoteStrings bool) string {
	if s, ok := value.(string); ok {
		if quoteStrings {
			return quote(s)
		}
		return s
	}
	return fmt.Sprint(value)
}
