package mongodb

import "context"

// TransactionManager runs fn directly. Standalone servers have no
// multi-document transactions; the unique indexes from InitSchema reject
// conflicting writes instead.
type TransactionManager struct{}

// InTransaction implements repositories.TransactionManager
func (TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
