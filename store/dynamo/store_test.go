package dynamo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI evaluates the two condition expressions the stores use.
// Items are keyed by identifier, token or id, in that order.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	puts  []*dynamodb.PutItemInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: map[string]map[string]types.AttributeValue{}}
}

func keyString(key map[string]types.AttributeValue) string {
	for name, v := range key {
		return name + "=" + v.(*types.AttributeValueMemberS).Value
	}
	return ""
}

func itemKey(pk string, item map[string]types.AttributeValue) string {
	return pk + "=" + item[pk].(*types.AttributeValueMemberS).Value
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)

	pk := "id"
	for _, candidate := range []string{"identifier", "token"} {
		if _, ok := in.Item[candidate]; ok {
			pk = candidate
			break
		}
	}
	k := aws.ToString(in.TableName) + "/" + itemKey(pk, in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(identifier)" {
		if _, exists := f.items[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)+"/"+keyString(in.Key)]}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := aws.ToString(in.TableName) + "/" + keyString(in.Key)
	item, ok := f.items[k]
	if aws.ToString(in.ConditionExpression) == "id = :id" {
		want := in.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS).Value
		if !ok || item["id"].(*types.AttributeValueMemberS).Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestVerificationRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	repo := NewVerificationRepo(api, "verifications", 10*time.Minute)

	expires := time.Date(2026, 7, 1, 10, 0, 0, 123*int(time.Millisecond), time.UTC)
	rec := verification.Record{Identifier: "one-time-token:abc", Value: "durable", ExpiresAt: expires, CreatedAt: expires.Add(-3 * time.Minute)}
	require.NoError(t, repo.CreateVerification(ctx, rec))
	assert.ErrorIs(t, repo.CreateVerification(ctx, rec), verification.ErrDuplicate)

	ttl := api.puts[0].Item["ttl"].(*types.AttributeValueMemberN).Value
	assert.Equal(t, "1782900600", ttl)

	found, err := repo.FindVerification(ctx, rec.Identifier)
	require.NoError(t, err)
	assert.NotEmpty(t, found.ID)
	assert.Equal(t, "durable", found.Value)
	assert.True(t, found.ExpiresAt.Equal(expires), "millisecond precision must survive")

	stale := *found
	stale.ID = "someone-else"
	assert.ErrorIs(t, repo.DeleteVerification(ctx, stale), verification.ErrNotFound)
	require.NoError(t, repo.DeleteVerification(ctx, *found))
	assert.ErrorIs(t, repo.DeleteVerification(ctx, *found), verification.ErrNotFound)

	_, err = repo.FindVerification(ctx, rec.Identifier)
	assert.ErrorIs(t, err, verification.ErrNotFound)
}

func TestSessionRepoFindHidesExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(newFakeAPI(), "sessions")
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	s := &session.Session{ID: "s1", Token: "t1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.SaveSession(ctx, s))

	got, err := repo.FindSessionByToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "u1", got.UserID)

	now = now.Add(2 * time.Hour)
	_, err = repo.FindSessionByToken(ctx, "t1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = repo.FindSessionByToken(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Error(t, repo.SaveSession(ctx, &session.Session{ID: "x"}))
}

func TestUserRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newFakeAPI(), "users")

	_, err := repo.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, session.ErrUserNotFound)

	require.NoError(t, repo.PutUser(ctx, session.User{ID: "u1", Email: "ada@example.com", Name: "Ada", EmailVerified: true}))
	got, err := repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, session.User{ID: "u1", Email: "ada@example.com", Name: "Ada", EmailVerified: true}, *got)
}
