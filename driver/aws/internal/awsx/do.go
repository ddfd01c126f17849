package awsx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// RequestHook is called with the input of each DynamoDB request before it is
// sent. It may modify the input in place, and returns options to apply to that
// request only.
type RequestHook func(in any) []func(*dynamodb.Options)

// Do sends a DynamoDB request using fn, typically a method on a
// [*dynamodb.Client].
func Do[In, Out any](
	ctx context.Context,
	fn func(context.Context, *In, ...func(*dynamodb.Options)) (Out, error),
	hook RequestHook,
	in *In,
) (Out, error) {
	if err := ctx.Err(); err != nil {
		var zero Out
		return zero, err
	}

	var options []func(*dynamodb.Options)
	if hook != nil {
		options = hook(in)
	}

	return fn(ctx, in, options...)
}
