package dynamo

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a single-attribute string primary key.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// compositeKey builds a PK+SK string key. The verifications table keys on
// (user_id, type).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

// buildUpdateExpr turns a partial-update map into a SET expression. Every
// attribute goes through a name placeholder so reserved words like "type"
// and "status" are safe to update.
func buildUpdateExpr(updates map[string]interface{}) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(updates) == 0 {
		return "", nil, nil, fmt.Errorf("empty update map")
	}
	names := make(map[string]string, len(updates))
	values := make(map[string]types.AttributeValue, len(updates))
	parts := make([]string, 0, len(updates))
	i := 0
	for field, val := range updates {
		av, err := attributevalue.Marshal(val)
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal %s: %w", field, err)
		}
		n := fmt.Sprintf("#u%d", i)
		v := fmt.Sprintf(":u%d", i)
		names[n] = field
		values[v] = av
		parts = append(parts, n+" = "+v)
		i++
	}
	return "SET " + strings.Join(parts, ", "), names, values, nil
}
