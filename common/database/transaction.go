package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB caps a single TransactWriteItems call at 100 actions.
const maxTransactionItems = 100

type TransactionBuilder struct {
	items []types.TransactWriteItem
	limit int
}

func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		items: make([]types.TransactWriteItem, 0),
		limit: maxTransactionItems,
	}
}

func (tb *TransactionBuilder) add(item types.TransactWriteItem) error {
	if len(tb.items) >= tb.limit {
		return fmt.Errorf("transaction limit exceeded: %d items", tb.limit)
	}
	tb.items = append(tb.items, item)
	return nil
}

func (tb *TransactionBuilder) AddPut(item types.Put) error {
	return tb.add(types.TransactWriteItem{Put: &item})
}

func (tb *TransactionBuilder) AddUpdate(item types.Update) error {
	return tb.add(types.TransactWriteItem{Update: &item})
}

func (tb *TransactionBuilder) AddDelete(item types.Delete) error {
	return tb.add(types.TransactWriteItem{Delete: &item})
}

func (tb *TransactionBuilder) AddConditionCheck(item types.ConditionCheck) error {
	return tb.add(types.TransactWriteItem{ConditionCheck: &item})
}

func (tb *TransactionBuilder) Execute(ctx context.Context, client DynamoAPI) error {
	if len(tb.items) == 0 {
		return fmt.Errorf("no items in transaction")
	}

	_, err := client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tb.items,
	})
	return err
}

func (tb *TransactionBuilder) Count() int {
	return len(tb.items)
}

// ConditionFailedAt reports whether err is a cancelled transaction whose
// action at index failed its condition expression.
func ConditionFailedAt(err error, index int) bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return false
	}
	if index < 0 || index >= len(cancelled.CancellationReasons) {
		return false
	}
	code := cancelled.CancellationReasons[index].Code
	return code != nil && *code == "ConditionalCheckFailed"
}

// IsConditionFailed covers both the single-item and the transactional form.
func IsConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return false
	}
	for _, reason := range cancelled.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
