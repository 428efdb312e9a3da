package dynamo

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// retailerCursor is the table and GSI1 key of the last retailer on a page.
// Query resumes from it as ExclusiveStartKey.
type retailerCursor struct {
	PK     string `json:"pk"`
	SK     string `json:"sk"`
	GSI1PK string `json:"gpk"`
	GSI1SK string `json:"gsk"`
}

func (c retailerCursor) validate() error {
	prefix := retailerEntityName + "#"
	if c.GSI1PK != retailerEntityName {
		return errors.New("cursor is not for the retailer index")
	}
	if !strings.HasPrefix(c.PK, prefix) || !strings.HasPrefix(c.SK, prefix) || !strings.HasPrefix(c.GSI1SK, prefix) {
		return errors.New("cursor key is not a retailer")
	}
	return nil
}

func retailerItemToCursor(item map[string]types.AttributeValue) (string, error) {
	var c retailerCursor
	if err := attributevalue.UnmarshalMap(item, &c); err != nil {
		return "", fmt.Errorf("failed to read key from item: %w", err)
	}

	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func cursorToStartKey(cursor string) (map[string]types.AttributeValue, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to b64 decode: %w", err)
	}

	var c retailerCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("failed to json decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	key, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("failed to build start key: %w", err)
	}
	return key, nil
}
