package domain

// Result is the outcome of validating untrusted input: either a value or an
// ordered, non-empty list of validation errors.
//
// Go generics cannot express a variadic heterogeneous combinator, so the
// accumulating combinator comes in fixed arities (Accumulate2..Accumulate5)
// plus Sequence for homogeneous lists.
type Result[T any] struct {
	value T
	errs  ValidationErrors
}

// Success wraps a valid value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure wraps one or more errors. It panics when called without errors,
// since a failure without a reason cannot be rendered to a client.
func Failure[T any](errs ...ValidationError) Result[T] {
	if len(errs) == 0 {
		panic("domain: Failure requires at least one error")
	}
	out := make(ValidationErrors, len(errs))
	copy(out, errs)
	return Result[T]{errs: out}
}

func failureFrom[T any](errs ValidationErrors) Result[T] {
	return Result[T]{errs: errs}
}

// IsSuccess reports whether the result carries a value.
func (r Result[T]) IsSuccess() bool {
	return len(r.errs) == 0
}

// Errors returns the failure's errors, or nil on success.
func (r Result[T]) Errors() ValidationErrors {
	return r.errs
}

// Get returns the value and a nil error on success, or the zero value and
// the ValidationErrors on failure.
func (r Result[T]) Get() (T, error) {
	if r.IsSuccess() {
		return r.value, nil
	}
	var zero T
	return zero, r.errs
}

// MustGet returns the value or panics. Intended for tests and constants.
func (r Result[T]) MustGet() T {
	v, err := r.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Map transforms the success payload; failures pass through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.IsSuccess() {
		return failureFrom[U](r.errs)
	}
	return Success(f(r.value))
}

// Chain feeds a success into next. A failure is returned immediately and
// next is never evaluated.
func Chain[T, U any](r Result[T], next func(T) Result[U]) Result[U] {
	if !r.IsSuccess() {
		return failureFrom[U](r.errs)
	}
	return next(r.value)
}

// collect concatenates the errors of every failed operand in operand order.
func collect(operands ...ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, errs := range operands {
		out = append(out, errs...)
	}
	return out
}

// Accumulate2 combines two independent results, collecting every failure.
func Accumulate2[A, B, R any](a Result[A], b Result[B], combine func(A, B) R) Result[R] {
	if errs := collect(a.errs, b.errs); len(errs) > 0 {
		return failureFrom[R](errs)
	}
	return Success(combine(a.value, b.value))
}

// Accumulate3 combines three independent results, collecting every failure.
func Accumulate3[A, B, C, R any](a Result[A], b Result[B], c Result[C], combine func(A, B, C) R) Result[R] {
	if errs := collect(a.errs, b.errs, c.errs); len(errs) > 0 {
		return failureFrom[R](errs)
	}
	return Success(combine(a.value, b.value, c.value))
}

// Accumulate4 combines four independent results, collecting every failure.
func Accumulate4[A, B, C, D, R any](
	a Result[A], b Result[B], c Result[C], d Result[D],
	combine func(A, B, C, D) R,
) Result[R] {
	if errs := collect(a.errs, b.errs, c.errs, d.errs); len(errs) > 0 {
		return failureFrom[R](errs)
	}
	return Success(combine(a.value, b.value, c.value, d.value))
}

// Accumulate5 combines five independent results, collecting every failure.
func Accumulate5[A, B, C, D, E, R any](
	a Result[A], b Result[B], c Result[C], d Result[D], e Result[E],
	combine func(A, B, C, D, E) R,
) Result[R] {
	if errs := collect(a.errs, b.errs, c.errs, d.errs, e.errs); len(errs) > 0 {
		return failureFrom[R](errs)
	}
	return Success(combine(a.value, b.value, c.value, d.value, e.value))
}

// Sequence turns a list of results into a result of a list, collecting
// every failure in list order.
func Sequence[T any](rs []Result[T]) Result[[]T] {
	var errs ValidationErrors
	values := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.IsSuccess() {
			errs = append(errs, r.errs...)
			continue
		}
		values = append(values, r.value)
	}
	if len(errs) > 0 {
		return failureFrom[[]T](errs)
	}
	return Success(values)
}
