package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/subword/blobstore"
)

// PointerName is the base name of blobs stored in DynamoDB instead of
// the wrapped store.
const PointerName = "CURRENT"

// DDBCommitStore wraps a BlobStore and keeps CURRENT pointer blobs in a
// DynamoDB table. Each pointer update is a conditional put of the next
// version, so two publishers racing on one model cannot both win.
//
// Table schema:
//   - Partition key: base_uri (string), the base URI plus the pointer's directory
//   - Sort key: version (number), increasing per pointer
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name subword-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	inner     blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when another writer committed
// the same pointer version first.
var ErrConcurrentModification = blobstore.ErrConcurrentModification

// NewDDBCommitStore creates a commit store. baseURI (for example
// "s3://bucket/prefix") namespaces the pointers in the table.
func NewDDBCommitStore(inner blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		inner:     inner,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func isPointer(name string) bool { return path.Base(name) == PointerName }

func (s *DDBCommitStore) partition(name string) string {
	return s.baseURI + "#" + path.Dir(name)
}

// Open returns the latest committed pointer content for CURRENT blobs.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isPointer(name) {
		return s.inner.Open(ctx, name)
	}
	version, content, err := s.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{data: content}, nil
}

// Put commits CURRENT blobs as the next version and forwards the rest.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if !isPointer(name) {
		return s.inner.Put(ctx, name, data)
	}
	return s.commit(ctx, name, data)
}

// Create forwards to the wrapped store.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Delete removes the latest pointer version, or forwards to the wrapped
// store.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if !isPointer(name) {
		return s.inner.Delete(ctx, name)
	}
	version, _, err := s.latest(ctx, name)
	if err != nil || version == 0 {
		return err
	}
	_, err = s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.partition(name)},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
	})
	return err
}

// List forwards to the wrapped store. Pointers are not listed.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *DDBCommitStore) latest(ctx context.Context, name string) (uint64, []byte, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.partition(name)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("query commits: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, nil, nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil, errors.New("invalid version attribute in DynamoDB")
	}
	content, ok := item["content"].(*types.AttributeValueMemberB)
	if !ok {
		return 0, nil, errors.New("invalid content attribute in DynamoDB")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parse version: %w", err)
	}
	return version, content.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, name string, data []byte) error {
	current, _, err := s.latest(ctx, name)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.partition(name)},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"content":  &types.AttributeValueMemberB{Value: data},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit pointer: %w", err)
	}
	return nil
}

type pointerBlob struct {
	data []byte
}

func (b *pointerBlob) Close() error { return nil }

func (b *pointerBlob) Size() int64 { return int64(len(b.data)) }

func (b *pointerBlob) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
