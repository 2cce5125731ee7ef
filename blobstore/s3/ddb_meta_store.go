package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/rstar/blobstore"
)

// ErrConcurrentModification is returned when another writer committed a
// metadata blob since this store last read or wrote it.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of *dynamodb.Client used by DDBMetaStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DDBMetaStore keeps metadata blobs (block 0 of each namespace) as versioned
// DynamoDB items and delegates every other blob to an inner store.
//
// Every Put of a metadata blob writes version v+1, where v is the version this
// store last observed, with the condition attribute_not_exists(version). A
// second process that wrote in between makes the put fail with
// ErrConcurrentModification.
//
// Table schema:
//   - partition key: blob (string), "<baseURI>#<name>"
//   - sort key: version (number)
//
//	aws dynamodb create-table \
//	  --table-name rstar-meta \
//	  --attribute-definitions AttributeName=blob,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=blob,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBMetaStore struct {
	inner   blobstore.BlobStore
	ddb     DDBClient
	table   string
	baseURI string

	mu       sync.Mutex
	versions map[string]uint64
}

// NewDDBMetaStore wraps inner. baseURI, e.g. "s3://bucket/prefix", separates
// trees sharing one table.
func NewDDBMetaStore(inner blobstore.BlobStore, ddb DDBClient, table, baseURI string) *DDBMetaStore {
	return &DDBMetaStore{
		inner:    inner,
		ddb:      ddb,
		table:    table,
		baseURI:  baseURI,
		versions: make(map[string]uint64),
	}
}

// IsMetaBlob reports whether name is kept in DynamoDB.
func IsMetaBlob(name string) bool {
	return path.Base(name) == "meta"
}

func (s *DDBMetaStore) partition(name string) string {
	return s.baseURI + "#" + name
}

// Open reads the latest version of a metadata blob.
func (s *DDBMetaStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !IsMetaBlob(name) {
		return s.inner.Open(ctx, name)
	}
	version, data, err := s.latest(ctx, name)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	s.observe(name, version)
	return &itemBlob{data: data}, nil
}

// Put commits a new version of a metadata blob.
func (s *DDBMetaStore) Put(ctx context.Context, name string, data []byte) error {
	if !IsMetaBlob(name) {
		return s.inner.Put(ctx, name, data)
	}

	s.mu.Lock()
	known, seen := s.versions[name]
	s.mu.Unlock()
	if !seen {
		v, _, err := s.latest(ctx, name)
		if err != nil {
			return err
		}
		known = v
	}

	next := known + 1
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"blob":    &types.AttributeValueMemberS{Value: s.partition(name)},
			"version": &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"data":    &types.AttributeValueMemberB{Value: data},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("%w: %s version %d", ErrConcurrentModification, name, next)
		}
		return fmt.Errorf("commit %s: %w", name, err)
	}
	s.observe(name, next)
	return nil
}

// Delete removes every version of a metadata blob.
func (s *DDBMetaStore) Delete(ctx context.Context, name string) error {
	if !IsMetaBlob(name) {
		return s.inner.Delete(ctx, name)
	}
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#b = :b"),
		ExpressionAttributeNames: map[string]string{
			"#b": "blob",
			"#v": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: s.partition(name)},
		},
		ProjectionExpression: aws.String("#v"),
	})
	if err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	for _, item := range resp.Items {
		if _, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key: map[string]types.AttributeValue{
				"blob":    &types.AttributeValueMemberS{Value: s.partition(name)},
				"version": item["version"],
			},
		}); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	s.mu.Lock()
	delete(s.versions, name)
	s.mu.Unlock()
	return nil
}

// List lists the inner store. Metadata blobs written through s are included
// when they match prefix.
func (s *DDBMetaStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for name := range s.versions {
		if strings.HasPrefix(name, prefix) && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	s.mu.Unlock()
	return names, nil
}

// Version returns the last version of name observed by s, 0 if none.
func (s *DDBMetaStore) Version(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[name]
}

func (s *DDBMetaStore) observe(name string, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version > s.versions[name] {
		s.versions[name] = version
	}
}

func (s *DDBMetaStore) latest(ctx context.Context, name string) (uint64, []byte, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#b = :b"),
		ExpressionAttributeNames: map[string]string{
			"#b": "blob",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: s.partition(name)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("query %s: %w", name, err)
	}
	if len(resp.Items) == 0 {
		return 0, nil, nil
	}

	item := resp.Items[0]
	vAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil, fmt.Errorf("item %s: missing version attribute", name)
	}
	version, err := strconv.ParseUint(vAttr.Value, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("item %s: parse version: %w", name, err)
	}
	dAttr, ok := item["data"].(*types.AttributeValueMemberB)
	if !ok {
		return 0, nil, fmt.Errorf("item %s: missing data attribute", name)
	}
	return version, dAttr.Value, nil
}

type itemBlob struct {
	data []byte
}

func (b *itemBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.data)) {
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

func (b *itemBlob) Size() int64  { return int64(len(b.data)) }
func (b *itemBlob) Close() error { return nil }
