package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const tableWaitTimeout = 2 * time.Minute

// Tables names the DynamoDB tables used by the stores.
type Tables struct {
	Verifications string
	Sessions      string
	// Users is optional; leave empty when users live elsewhere.
	Users string
}

// Bootstrap creates the tables if they don't already exist and enables TTL
// on the "ttl" attribute. Safe to call on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables Tables, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for name, pk := range map[string]string{
		tables.Verifications: "identifier",
		tables.Sessions:      "token",
		tables.Users:         "id",
	} {
		if name == "" {
			continue
		}
		if err := createTable(ctx, client, name, pk, logger); err != nil {
			return err
		}
	}
	return nil
}

func createTable(ctx context.Context, client *dynamodb.Client, name, pk string, logger *zap.Logger) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(pk), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			logger.Debug("dynamodb table exists", zap.String("table", name))
			return nil
		}
		return fmt.Errorf("create table %s: %w", name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, tableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", name, err)
	}

	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(name),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("enable ttl on %s: %w", name, err)
	}
	logger.Info("dynamodb table created", zap.String("table", name))
	return nil
}
