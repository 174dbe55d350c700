package shared

import "context"

// TxRunner runs fn inside a single database transaction.
// The context passed to fn carries the transaction; repositories called with
// that context take part in it. Returning an error from fn rolls back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxRunnerFunc adapts a plain function to TxRunner
type TxRunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTx implements TxRunner
func (f TxRunnerFunc) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx runs fn directly. Used by unit tests and in-memory wiring.
var NoTx TxRunner = TxRunnerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
