package store

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrConditionFailed indicates a conditional write failed on an existing item.
	ErrConditionFailed = errors.New("conditional check failed")
	// ErrItemNotFound indicates a conditional write targeted a missing item.
	ErrItemNotFound = errors.New("item not found")
	// ErrAlreadyExists indicates a create collided with an existing key.
	ErrAlreadyExists = errors.New("item already exists")
)

// IsConditionFailed reports whether err is a DynamoDB conditional check failure.
func IsConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

// CancellationReasons returns the per-item reason codes of a canceled
// transaction, in request order ("None" for items that did not fail).
func CancellationReasons(err error) ([]string, bool) {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil, false
	}
	codes := make([]string, len(tce.CancellationReasons))
	for i, r := range tce.CancellationReasons {
		if r.Code != nil {
			codes[i] = *r.Code
		}
	}
	return codes, true
}
