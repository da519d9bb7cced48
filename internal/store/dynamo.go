// ABOUTME: DynamoDB implementation of the SessionStore interface using aws-sdk-go-v2
// ABOUTME: Keeps the ris-sessions table layout (session_id hash key, phone_number range key)

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB attribute names
const (
	dynamoHashKey   = "session_id"
	dynamoRangeKey  = "phone_number"
	dynamoCreatedAt = "created_at"
)

// tableActiveTimeout bounds how long Setup waits for a new table
const tableActiveTimeout = 2 * time.Minute

// dynamoAPI is the subset of the DynamoDB client used by DynamoStore
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoStore implements the SessionStore interface using DynamoDB
type DynamoStore struct {
	client dynamoAPI
	table  string
	logger *slog.Logger
}

// DynamoConfig configures a DynamoStore
type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string // optional, e.g. http://localhost:8000 for DynamoDB Local
}

// NewDynamoStore creates a DynamoDB-backed store using the default AWS
// credential chain. When an endpoint override is set and no access key is
// present in the environment, static placeholder credentials are used so
// DynamoDB Local works out of the box.
func NewDynamoStore(ctx context.Context, cfg DynamoConfig) (*DynamoStore, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("missing table name")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newDynamoStore(client, cfg.Table), nil
}

func newDynamoStore(client dynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
		logger: slog.Default().With("component", "store", "table", table),
	}
}

// Setup creates the sessions table if it does not exist and waits for it to
// become active.
func (s *DynamoStore) Setup(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describing table: %w", err)
	}

	s.logger.Warn("creating dynamodb table")
	out, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamoHashKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamoRangeKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamoHashKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(dynamoRangeKey), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			// Another instance created it first
			return s.waitActive(ctx)
		}
		return fmt.Errorf("creating table: %w", err)
	}

	if out.TableDescription != nil && out.TableDescription.TableStatus == types.TableStatusActive {
		return nil
	}
	return s.waitActive(ctx)
}

func (s *DynamoStore) waitActive(ctx context.Context) error {
	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, tableActiveTimeout); err != nil {
		return fmt.Errorf("waiting for table: %w", err)
	}
	return nil
}

// Ping checks that the table is reachable
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	return err
}

// Close is a no-op; the AWS client holds no resources that need releasing
func (s *DynamoStore) Close() error {
	return nil
}

// GetSession retrieves a session by its composite key.
// Returns ErrNotFound if the item doesn't exist.
func (s *DynamoStore) GetSession(ctx context.Context, conversationID, participantID string) (*Session, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            sessionKey(conversationID, participantID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	session := &Session{
		ConversationID: stringAttr(out.Item, dynamoHashKey),
		ParticipantID:  stringAttr(out.Item, dynamoRangeKey),
	}
	if raw := stringAttr(out.Item, dynamoCreatedAt); raw != "" {
		session.CreatedAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
	}
	return session, nil
}

// CreateSession writes a session item; an existing item with the same key is replaced
func (s *DynamoStore) CreateSession(ctx context.Context, session *Session) error {
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	item := sessionKey(session.ConversationID, session.ParticipantID)
	item[dynamoCreatedAt] = &types.AttributeValueMemberS{Value: createdAt.UTC().Format(time.RFC3339)}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting item: %w", err)
	}

	s.logger.Debug("created session", "conversation_id", session.ConversationID, "participant_id", session.ParticipantID)
	return nil
}

func sessionKey(conversationID, participantID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoHashKey:  &types.AttributeValueMemberS{Value: conversationID},
		dynamoRangeKey: &types.AttributeValueMemberS{Value: participantID},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
