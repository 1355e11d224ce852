package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goOTT/verification"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"
)

type verificationItem struct {
	Identifier string `dynamodbav:"identifier"`
	ID         string `dynamodbav:"id"`
	Value      string `dynamodbav:"value"`
	ExpiresAt  int64  `dynamodbav:"expires_at_ms"`
	CreatedAt  int64  `dynamodbav:"created_at_ms"`
	// TTL is the epoch-seconds attribute DynamoDB's TTL reaper watches.
	TTL int64 `dynamodbav:"ttl"`
}

// VerificationRepo stores verification records.
// PK: identifier
type VerificationRepo struct {
	client    API
	tableName string
	retention time.Duration
}

func NewVerificationRepo(client API, tableName string, retention time.Duration) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName, retention: retention}
}

func (r *VerificationRepo) CreateVerification(ctx context.Context, record verification.Record) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	item, err := attributevalue.MarshalMap(verificationItem{
		Identifier: record.Identifier,
		ID:         record.ID,
		Value:      record.Value,
		ExpiresAt:  toMillis(record.ExpiresAt),
		CreatedAt:  toMillis(record.CreatedAt),
		TTL:        record.ExpiresAt.Add(r.retention).Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(identifier)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return verification.ErrDuplicate
		}
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

func (r *VerificationRepo) FindVerification(ctx context.Context, identifier string) (*verification.Record, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("identifier", identifier),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification %w", verification.ErrNotFound)
	}

	var item verificationItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %w", err)
	}
	return &verification.Record{
		ID:         item.ID,
		Identifier: item.Identifier,
		Value:      item.Value,
		ExpiresAt:  fromMillis(item.ExpiresAt),
		CreatedAt:  fromMillis(item.CreatedAt),
	}, nil
}

// DeleteVerification deletes the item only while it still carries record.ID.
func (r *VerificationRepo) DeleteVerification(ctx context.Context, record verification.Record) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("identifier", record.Identifier),
		ConditionExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: record.ID},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return verification.ErrNotFound
		}
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}
