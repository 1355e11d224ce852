package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type sessionItem struct {
	Token     string `dynamodbav:"token"`
	ID        string `dynamodbav:"session_id"`
	UserID    string `dynamodbav:"user_id"`
	IPAddress string `dynamodbav:"ip_address,omitempty"`
	UserAgent string `dynamodbav:"user_agent,omitempty"`
	CreatedAt int64  `dynamodbav:"created_at_ms"`
	ExpiresAt int64  `dynamodbav:"expires_at_ms"`
	TTL       int64  `dynamodbav:"ttl"`
}

// SessionRepo provides typed DynamoDB operations for the sessions table.
// PK: token
type SessionRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewSessionRepo(client API, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName, now: time.Now}
}

func (r *SessionRepo) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil || s.Token == "" {
		return errors.New("session token required")
	}
	item, err := attributevalue.MarshalMap(sessionItem{
		Token:     s.Token,
		ID:        s.ID,
		UserID:    s.UserID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: toMillis(s.CreatedAt),
		ExpiresAt: toMillis(s.ExpiresAt),
		TTL:       s.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (r *SessionRepo) FindSessionByToken(ctx context.Context, token string) (*session.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session %w", session.ErrNotFound)
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s := &session.Session{
		ID:        item.ID,
		Token:     item.Token,
		UserID:    item.UserID,
		IPAddress: item.IPAddress,
		UserAgent: item.UserAgent,
		CreatedAt: fromMillis(item.CreatedAt),
		ExpiresAt: fromMillis(item.ExpiresAt),
	}
	// TTL deletion lags expiry by up to days
	if !s.Live(r.now()) {
		return nil, fmt.Errorf("session %w", session.ErrNotFound)
	}
	return s, nil
}
