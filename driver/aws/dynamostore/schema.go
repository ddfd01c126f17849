package dynamostore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/structkit/driver/aws/internal/dynamox"
)

const (
	// storeAttr is the name of the attribute that stores the store name on
	// each item. Together with [keyAttr], it forms the primary key of the
	// table.
	storeAttr = "S"

	// keyAttr is the name of the attribute that stores the key on each item.
	// DynamoDB orders binary sort keys bytewise.
	keyAttr = "K"

	// valueAttr is the name of the attribute that stores the value on each
	// item.
	valueAttr = "V"
)

// CreateTable creates a DynamoDB table for use with [Store], if it does not
// already exist.
func CreateTable(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
	options ...Option,
) error {
	var s Store
	for _, opt := range options {
		opt(&s)
	}

	return dynamox.CreateTableIfNotExists(
		ctx,
		client,
		table,
		s.onRequest,
		dynamox.KeyAttr{
			Name:    storeAttr,
			Type:    types.ScalarAttributeTypeS,
			KeyType: types.KeyTypeHash,
		},
		dynamox.KeyAttr{
			Name:    keyAttr,
			Type:    types.ScalarAttributeTypeB,
			KeyType: types.KeyTypeRange,
		},
	)
}
