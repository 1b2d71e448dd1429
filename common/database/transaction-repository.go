package database

import (
	"context"

	apperrors "github.com/burakmert236/scrimsignups/common/errors"
)

// Transactor runs a built transaction against the table's client. A condition
// failure anywhere in the transaction surfaces as CodeConflict so callers can
// branch on it without inspecting SDK types.
type Transactor interface {
	Execute(ctx context.Context, tb *TransactionBuilder) error
}

type transactor struct {
	db *DynamoDBClient
}

func NewTransactor(db *DynamoDBClient) Transactor {
	return &transactor{db: db}
}

func (t *transactor) Execute(ctx context.Context, tb *TransactionBuilder) error {
	err := tb.Execute(ctx, t.db.Client)
	if err == nil {
		return nil
	}
	if IsConditionFailed(err) {
		return apperrors.Wrap(err, apperrors.CodeConflict, "transaction condition failed")
	}
	return apperrors.Wrap(err, apperrors.CodeTransactionError, "transaction failed")
}
