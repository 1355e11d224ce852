package dynamo

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goOTT/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type userItem struct {
	ID            string `dynamodbav:"id"`
	Email         string `dynamodbav:"email"`
	Name          string `dynamodbav:"name,omitempty"`
	EmailVerified bool   `dynamodbav:"email_verified"`
}

// UserRepo provides typed DynamoDB operations for the users table.
// PK: id
type UserRepo struct {
	client    API
	tableName string
}

func NewUserRepo(client API, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) PutUser(ctx context.Context, u session.User) error {
	item, err := attributevalue.MarshalMap(userItem(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUserByID implements goOTT.UserProvider.
func (r *UserRepo) GetUserByID(ctx context.Context, id string) (*session.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("id", id),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", id, session.ErrUserNotFound)
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	u := session.User(item)
	return &u, nil
}
