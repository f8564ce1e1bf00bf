package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func N(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func S(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func Bool(v bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: v}
}

// NS builds a number set. DynamoDB rejects empty sets, so ids must be non-empty.
func NS(ids ...int64) types.AttributeValue {
	vals := make([]string, len(ids))
	for i, id := range ids {
		vals[i] = strconv.FormatInt(id, 10)
	}
	return &types.AttributeValueMemberNS{Value: vals}
}

// Int64 reads a numeric attribute, returning 0 when absent or malformed.
func Int64(item map[string]types.AttributeValue, attr string) int64 {
	n, ok := item[attr].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}

// SetFields builds a "SET" update from attribute name to Go value. Keys are
// sorted so the expression is deterministic.
func SetFields(fields map[string]interface{}) (Update, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	u := Update{
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	clauses := make([]string, 0, len(keys))
	for i, k := range keys {
		av, err := attributevalue.Marshal(fields[k])
		if err != nil {
			return Update{}, fmt.Errorf("marshal %s: %w", k, err)
		}
		name, value := fmt.Sprintf("#f%d", i), fmt.Sprintf(":f%d", i)
		u.Names[name] = k
		u.Values[value] = av
		clauses = append(clauses, name+" = "+value)
	}
	if len(clauses) > 0 {
		u.Expression = "SET " + strings.Join(clauses, ", ")
	}
	return u, nil
}
