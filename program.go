package params

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Program describes an invocable unit: its parameters, the constraints its
// prologue enforces and the body that runs once they pass.
type Program struct {
	ID          string
	Description string
	Params      []Definition
	Constraints []Constraint
	// Validate runs after Constraints for checks that need code, e.g. several
	// primitives combined with custom logic.
	Validate func(*Checker) error
	Run      func(ctx context.Context, s *Store) error
}

// NewStore builds a store holding the program's defaults.
func (p *Program) NewStore(style BindingStyle) (*Store, error) {
	if p == nil {
		return nil, errors.New("params: program is nil")
	}
	s := NewStore(style)
	if err := s.Install(p.Params...); err != nil {
		return nil, fmt.Errorf("params: program %s: %w", p.ID, err)
	}
	return s, nil
}

// Result reports the outcome of Runner.Invoke.
type Result struct {
	Program     string
	Diagnostics []Diagnostic
	// Violation is the fatal violation that stopped the prologue, if any.
	Violation *ViolationError
	// Ran reports whether the program body was entered.
	Ran bool
}

// Warnings returns the non-fatal diagnostics.
func (r Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if !d.Fatal() {
			out = append(out, d)
		}
	}
	return out
}

// Runner prepares parameter stores from cached settings and invokes programs
// behind their constraint prologue.
type Runner struct {
	settings *Settings
	cfg      config
}

// NewRunner returns a runner backed by settings. A nil settings uses a fresh
// in-memory manager.
func NewRunner(settings *Settings, opts ...Option) *Runner {
	if settings == nil {
		settings = NewSettings()
	}
	return &Runner{settings: settings, cfg: applyOptions(opts)}
}

// Settings returns the snapshot manager behind the runner.
func (r *Runner) Settings() *Settings {
	return r.settings
}

// Prepare returns a live store for p. The first call caches the program's
// defaults; later calls restore them, so values and passed flags from an
// earlier invocation never leak into the next one.
func (r *Runner) Prepare(ctx context.Context, p *Program, style BindingStyle) (*Store, error) {
	if err := validateProgram(p); err != nil {
		return nil, err
	}
	live := NewStore(style)
	err := r.settings.Restore(ctx, p.ID, live)
	if err == nil {
		return live, nil
	}
	if !errors.Is(err, ErrUnknownProgram) {
		return nil, err
	}
	live, err = p.NewStore(style)
	if err != nil {
		return nil, err
	}
	if err := r.settings.Cache(ctx, p.ID, live); err != nil {
		return nil, err
	}
	return live, nil
}

// Invoke runs the prologue of p against live and, when no fatal violation
// occurred, its body. The prologue is: the required-parameter check (when
// enabled), then Constraints in order, then Validate.
//
// A fatal violation is returned as a *ViolationError unless capture mode is
// on, in which case it is reported through Result.Violation with a nil error.
func (r *Runner) Invoke(ctx context.Context, p *Program, live *Store, opts ...Option) (Result, error) {
	if err := validateProgram(p); err != nil {
		return Result{}, err
	}
	if live == nil {
		return Result{Program: p.ID}, fmt.Errorf("params: invoke %s: live store is nil", p.ID)
	}
	cfg := r.cfg.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.program == "" {
		cfg.program = p.ID
	}

	checker := newChecker(ctx, live, cfg)
	result := Result{Program: p.ID}
	err := prologue(checker, p, cfg.requiredCheck)
	result.Diagnostics = checker.Diagnostics()
	if err != nil {
		if violation, ok := AsViolation(err); ok {
			result.Violation = violation
			if cfg.captureViolations {
				return result, nil
			}
		}
		return result, err
	}

	result.Ran = true
	if p.Run == nil {
		return result, nil
	}
	if err := p.Run(ctx, live); err != nil {
		return result, fmt.Errorf("params: run %s: %w", p.ID, err)
	}
	return result, nil
}

// Execute prepares a store, lets bind install caller inputs and invokes p.
func (r *Runner) Execute(ctx context.Context, p *Program, style BindingStyle, bind func(*Store) error, opts ...Option) (Result, *Store, error) {
	live, err := r.Prepare(ctx, p, style)
	if err != nil {
		return Result{}, nil, err
	}
	if bind != nil {
		if err := bind(live); err != nil {
			return Result{Program: p.ID}, live, fmt.Errorf("params: bind %s: %w", p.ID, err)
		}
	}
	result, err := r.Invoke(ctx, p, live, opts...)
	return result, live, err
}

func prologue(c *Checker, p *Program, requiredCheck bool) error {
	if requiredCheck {
		if err := c.CheckRequired(true); err != nil {
			return err
		}
	}
	if err := c.Check(p.Constraints...); err != nil {
		return err
	}
	if p.Validate != nil {
		return p.Validate(c)
	}
	return nil
}

func validateProgram(p *Program) error {
	if p == nil {
		return errors.New("params: program is nil")
	}
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("params: program id must be provided")
	}
	return nil
}
