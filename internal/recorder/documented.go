package recorder

import (
	"context"
	"fmt"
	"strings"
)

// Documented wraps a value (typically a page object) so that each call made
// through it records a step titled "<kind>: <method>" before running.
type Documented[T any] struct {
	Target T
	Kind   string
	rec    *Recorder
}

// Document wraps target. An empty kind defaults to the target's type name.
func Document[T any](rec *Recorder, kind string, target T) Documented[T] {
	if kind == "" {
		kind = typeName(target)
	}
	return Documented[T]{Target: target, Kind: kind, rec: rec}
}

// Title returns the step title used for method.
func (d Documented[T]) Title(method string) string {
	return d.Kind + ": " + method
}

// Call records a step for method and then runs fn on the target.
func (d Documented[T]) Call(ctx context.Context, method string, fn func(T) error) error {
	if _, err := d.rec.RecordStep(ctx, d.Title(method), StepProperties{}); err != nil {
		return err
	}
	return fn(d.Target)
}

// CallValue is Call for methods that return a value.
func CallValue[T, R any](ctx context.Context, d Documented[T], method string, fn func(T) (R, error)) (R, error) {
	if _, err := d.rec.RecordStep(ctx, d.Title(method), StepProperties{}); err != nil {
		var zero R
		return zero, err
	}
	return fn(d.Target)
}

func typeName(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
