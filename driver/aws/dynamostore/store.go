// Package dynamostore provides an implementation of [store.Store] that
// persists to a DynamoDB table.
package dynamostore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/structkit/driver/aws/internal/awsx"
	"github.com/dogmatiq/structkit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/structkit/internal/syncx"
	"github.com/dogmatiq/structkit/store"
)

// MaxBatchSize is the maximum number of distinct keys that may be modified by
// a single call to [Store.Write].
const MaxBatchSize = 100

// Store is an implementation of [store.Store] that persists key/value pairs to
// a DynamoDB table.
//
// Many stores may share the same table, each identified by a unique name. All
// of a store's pairs are kept in a single partition.
type Store struct {
	client    *dynamodb.Client
	table     string
	name      types.AttributeValueMemberS
	onRequest awsx.RequestHook

	createTableOnce syncx.SucceedOnce
}

// Option is a functional option that changes the behavior of [New].
type Option func(*Store)

// WithRequestHook is an [Option] that configures fn as a pre-request hook.
//
// Before each DynamoDB API request, fn is passed a pointer to the input struct,
// e.g. [dynamodb.GetItemInput], which it may modify in-place. It may be called
// with any DynamoDB request type. The types of requests used may change in any
// version without notice.
//
// Any functions returned by fn will be applied to the request's options before
// the request is sent.
func WithRequestHook(fn func(any) []func(*dynamodb.Options)) Option {
	return func(s *Store) {
		s.onRequest = fn
	}
}

// New returns a [Store] named name that persists key/value pairs to the given
// DynamoDB table.
//
// The table is created on first use if it does not already exist.
func New(
	client *dynamodb.Client,
	table, name string,
	options ...Option,
) *Store {
	if table == "" {
		panic("table name must not be empty")
	}

	s := &Store{
		client: client,
		table:  table,
		name:   types.AttributeValueMemberS{Value: name},
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Get returns the value associated with k.
func (s *Store) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if err := s.createTable(ctx); err != nil {
		return nil, false, store.Fail("get", k, err)
	}

	out, err := awsx.Do(
		ctx,
		s.client.GetItem,
		s.onRequest,
		&dynamodb.GetItemInput{
			TableName:            aws.String(s.table),
			Key:                  s.key(k),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: aws.String("#V"),
			ExpressionAttributeNames: map[string]string{
				"#V": valueAttr,
			},
		},
	)
	if err != nil {
		return nil, false, store.Fail("get", k, err)
	}

	if out.Item == nil {
		return nil, false, nil
	}

	v, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Item, valueAttr)
	if err != nil {
		return nil, false, store.Fail("get", k, err)
	}

	return notNull(v.Value), true, nil
}

// Put associates v with k.
func (s *Store) Put(ctx context.Context, k, v []byte) error {
	if err := s.createTable(ctx); err != nil {
		return store.Fail("put", k, err)
	}

	_, err := awsx.Do(
		ctx,
		s.client.PutItem,
		s.onRequest,
		&dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      s.item(k, v),
		},
	)

	return store.Fail("put", k, err)
}

// Delete removes k.
func (s *Store) Delete(ctx context.Context, k []byte) error {
	if err := s.createTable(ctx); err != nil {
		return store.Fail("delete", k, err)
	}

	_, err := awsx.Do(
		ctx,
		s.client.DeleteItem,
		s.onRequest,
		&dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key:       s.key(k),
		},
	)

	return store.Fail("delete", k, err)
}

// Write applies a batch of operations atomically using a single DynamoDB
// transaction.
//
// It returns an error without applying any operation if the batch modifies
// more than [MaxBatchSize] distinct keys.
func (s *Store) Write(ctx context.Context, ops ...store.Op) error {
	ops = lastOpPerKey(ops)

	switch len(ops) {
	case 0:
		return ctx.Err()
	case 1:
		if ops[0].Kind == store.PutKind {
			return s.Put(ctx, ops[0].Key, ops[0].Value)
		}
		return s.Delete(ctx, ops[0].Key)
	}

	if len(ops) > MaxBatchSize {
		return store.Fail(
			"write",
			nil,
			fmt.Errorf("batch modifies %d keys, the limit is %d", len(ops), MaxBatchSize),
		)
	}

	if err := s.createTable(ctx); err != nil {
		return store.Fail("write", nil, err)
	}

	in := &dynamodb.TransactWriteItemsInput{
		TransactItems: make([]types.TransactWriteItem, 0, len(ops)),
	}

	for _, op := range ops {
		var item types.TransactWriteItem

		switch op.Kind {
		case store.PutKind:
			item.Put = &types.Put{
				TableName: aws.String(s.table),
				Item:      s.item(op.Key, op.Value),
			}
		case store.DeleteKind:
			item.Delete = &types.Delete{
				TableName: aws.String(s.table),
				Key:       s.key(op.Key),
			}
		default:
			return store.Fail("write", op.Key, fmt.Errorf("unsupported operation kind: %s", op.Kind))
		}

		in.TransactItems = append(in.TransactItems, item)
	}

	_, err := awsx.Do(ctx, s.client.TransactWriteItems, s.onRequest, in)
	return store.Fail("write", nil, err)
}

// Scan invokes fn for each key/value pair with a key greater than or equal to
// start, in ascending order of key.
//
// Pairs are fetched one page of query results at a time.
func (s *Store) Scan(ctx context.Context, start []byte, fn store.RangeFunc) error {
	if err := s.createTable(ctx); err != nil {
		return store.Fail("scan", start, err)
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String(`#S = :S`),
		ProjectionExpression:   aws.String("#K, #V"),
		ExpressionAttributeNames: map[string]string{
			"#S": storeAttr,
			"#K": keyAttr,
			"#V": valueAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":S": &s.name,
		},
	}

	// DynamoDB does not permit empty binary key values, and every key is
	// greater than or equal to the empty key anyway.
	if len(start) != 0 {
		in.KeyConditionExpression = aws.String(`#S = :S AND #K >= :K`)
		in.ExpressionAttributeValues[":K"] = &types.AttributeValueMemberB{Value: clone(start)}
	}

	var fnFailed bool

	err := dynamox.Range(
		ctx,
		s.client,
		s.onRequest,
		in,
		func(ctx context.Context, item map[string]types.AttributeValue) (bool, error) {
			k, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, keyAttr)
			if err != nil {
				return false, err
			}

			v, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, valueAttr)
			if err != nil {
				return false, err
			}

			ok, err := fn(ctx, k.Value, notNull(v.Value))
			fnFailed = err != nil
			return ok, err
		},
	)

	if fnFailed {
		return err
	}

	return store.Fail("scan", start, err)
}

// Close is a no-op. The client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

func (s *Store) createTable(ctx context.Context) error {
	return s.createTableOnce.Do(func() error {
		return CreateTable(ctx, s.client, s.table, WithRequestHook(s.onRequest))
	})
}

func (s *Store) key(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		storeAttr: &s.name,
		keyAttr:   &types.AttributeValueMemberB{Value: clone(k)},
	}
}

func (s *Store) item(k, v []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		storeAttr: &s.name,
		keyAttr:   &types.AttributeValueMemberB{Value: clone(k)},
		valueAttr: &types.AttributeValueMemberB{Value: notNull(clone(v))},
	}
}

// lastOpPerKey returns ops with every operation that is superseded by a later
// operation on the same key removed. DynamoDB transactions may not contain more
// than one operation on the same item.
func lastOpPerKey(ops []store.Op) []store.Op {
	if len(ops) < 2 {
		return ops
	}

	seen := make(map[string]struct{}, len(ops))
	result := make([]store.Op, 0, len(ops))

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if _, ok := seen[string(op.Key)]; ok {
			continue
		}

		seen[string(op.Key)] = struct{}{}
		result = append(result, op)
	}

	return result
}

func clone(data []byte) []byte {
	return append([]byte(nil), data...)
}

// notNull returns data, or an empty slice if data is nil.
func notNull(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}
