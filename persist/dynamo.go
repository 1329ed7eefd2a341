package persist

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/socialmedia/internal/shard"
	"github.com/jacentio/socialmedia/platform"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoConfig holds configuration for the DynamoStore.
type DynamoConfig struct {
	// Table is the name of the snapshot table. It needs a string partition key
	// "pk" and a string sort key "sk".
	// Default: "socialmedia_snapshots"
	Table string

	// Name identifies the platform within the table.
	// Default: "default"
	Name string

	// NumShards is the number of partitions a snapshot's entity items are spread over.
	// Loads query every shard in parallel.
	// Default: 1
	// Max: 256
	NumShards int

	// MaxBatchRetries bounds how often unprocessed batch items are resubmitted.
	// Default: 5
	MaxBatchRetries int

	// RetryBackoff is the base delay before resubmitting unprocessed items. It grows
	// linearly with each attempt.
	// Default: 50ms
	RetryBackoff time.Duration
}

// DefaultDynamoConfig returns sensible defaults for small platforms.
func DefaultDynamoConfig() DynamoConfig {
	return DynamoConfig{
		Table:           "socialmedia_snapshots",
		Name:            "default",
		NumShards:       1,
		MaxBatchRetries: 5,
		RetryBackoff:    50 * time.Millisecond,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *DynamoConfig) validate() {
	if c.Table == "" {
		c.Table = "socialmedia_snapshots"
	}
	if c.Name == "" {
		c.Name = "default"
	}
	c.NumShards = shard.Clamp(c.NumShards)
	if c.MaxBatchRetries < 1 {
		c.MaxBatchRetries = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 50 * time.Millisecond
	}
}

const (
	metaSK        = "META"
	accountPrefix = "account#"
	postPrefix    = "post#"

	// batchSize is DynamoDB's BatchWriteItem limit.
	batchSize = 25
)

// MetaPK returns the partition key of a platform's META item.
func MetaPK(name string) string {
	return "platform#" + name
}

// MetaSK returns the sort key shared by all META items.
func MetaSK() string {
	return metaSK
}

// generationScope is the partition key prefix of one saved generation.
func generationScope(name, generation string) string {
	return "platform#" + name + "#" + generation
}

// metaItem points at the committed generation and carries the ID counters.
type metaItem struct {
	PK            string `dynamodbav:"pk"`
	SK            string `dynamodbav:"sk"`
	Generation    string `dynamodbav:"generation"`
	NumShards     int    `dynamodbav:"num_shards"`
	LastPostID    int    `dynamodbav:"last_post_id"`
	LastAccountID int    `dynamodbav:"last_account_id"`
	Accounts      int    `dynamodbav:"accounts"`
	Posts         int    `dynamodbav:"posts"`
	SavedAt       string `dynamodbav:"saved_at"`
}

type accountItem struct {
	PK  string `dynamodbav:"pk"`
	SK  string `dynamodbav:"sk"`
	Seq int    `dynamodbav:"seq"`
	platform.AccountRecord
}

type postItem struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	platform.PostRecord
}

// DynamoStore stores a snapshot as one item per account and post.
//
// Each Save writes a complete new generation under fresh partition keys, then
// switches the META item to it with a conditional write. Readers therefore always
// see a whole generation. The superseded generation is deleted afterwards on a
// best-effort basis.
type DynamoStore struct {
	client DynamoAPI
	config DynamoConfig
	logger *slog.Logger
}

// NewDynamoStore creates a new DynamoStore instance.
func NewDynamoStore(client DynamoAPI, config DynamoConfig) *DynamoStore {
	config.validate()
	return &DynamoStore{
		client: client,
		config: config,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger. A nil logger restores slog.Default().
func (d *DynamoStore) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.logger = logger
}

// Config returns the store's effective configuration.
func (d *DynamoStore) Config() DynamoConfig {
	return d.config
}

// Save writes the snapshot as a new generation and commits it. It returns
// ErrConcurrentSave if another writer committed since this Save read META.
func (d *DynamoStore) Save(ctx context.Context, s *platform.Snapshot) error {
	if s == nil {
		return errors.New("save snapshot: nil snapshot")
	}

	prev, err := d.readMeta(ctx)
	if err != nil {
		return err
	}

	generation := uuid.NewString()
	writes, err := d.entityWrites(s, generation)
	if err != nil {
		return err
	}
	if err := d.batchWrite(ctx, writes); err != nil {
		d.retire(ctx, generation, d.config.NumShards)
		return fmt.Errorf("write generation %s: %w", generation, err)
	}

	next := metaItem{
		PK:            MetaPK(d.config.Name),
		SK:            metaSK,
		Generation:    generation,
		NumShards:     d.config.NumShards,
		LastPostID:    s.LastPostID,
		LastAccountID: s.LastAccountID,
		Accounts:      len(s.Accounts),
		Posts:         len(s.Posts),
		SavedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.commit(ctx, next, prev); err != nil {
		d.retire(ctx, generation, d.config.NumShards)
		return err
	}

	if prev != nil {
		d.retire(ctx, prev.Generation, prev.NumShards)
	}

	d.logger.Info("snapshot saved",
		"platform", d.config.Name,
		"generation", generation,
		"accounts", len(s.Accounts),
		"posts", len(s.Posts),
	)
	return nil
}

// Load reads the committed generation. It returns ErrNoSnapshot if nothing has been
// committed yet.
func (d *DynamoStore) Load(ctx context.Context) (*platform.Snapshot, error) {
	m, err := d.readMeta(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNoSnapshot
	}

	s, err := d.loadGeneration(ctx, m)
	if !errors.Is(err, platform.ErrCorruptSnapshot) {
		return s, err
	}

	// A save may have committed and retired m's items after META was read.
	latest, metaErr := d.readMeta(ctx)
	if metaErr != nil || latest == nil || latest.Generation == m.Generation {
		return nil, err
	}
	d.logger.Debug("generation replaced during load, retrying",
		"platform", d.config.Name,
		"from", m.Generation,
		"to", latest.Generation,
	)
	return d.loadGeneration(ctx, latest)
}

// loadGeneration reads every entity item of the generation m points at.
func (d *DynamoStore) loadGeneration(ctx context.Context, m *metaItem) (*platform.Snapshot, error) {
	raw, err := d.queryScope(ctx, generationScope(d.config.Name, m.Generation), m.NumShards, false)
	if err != nil {
		return nil, fmt.Errorf("load generation %s: %w", m.Generation, err)
	}

	accounts := make([]accountItem, 0, m.Accounts)
	posts := make([]platform.PostRecord, 0, m.Posts)
	for _, item := range raw {
		sk := getString(item, "sk")
		switch {
		case strings.HasPrefix(sk, accountPrefix):
			var acc accountItem
			if err := attributevalue.UnmarshalMap(item, &acc); err != nil {
				return nil, fmt.Errorf("%w: item %s: %v", platform.ErrCorruptSnapshot, sk, err)
			}
			accounts = append(accounts, acc)
		case strings.HasPrefix(sk, postPrefix):
			var post postItem
			if err := attributevalue.UnmarshalMap(item, &post); err != nil {
				return nil, fmt.Errorf("%w: item %s: %v", platform.ErrCorruptSnapshot, sk, err)
			}
			posts = append(posts, post.PostRecord)
		}
	}

	if len(accounts) != m.Accounts || len(posts) != m.Posts {
		return nil, fmt.Errorf("%w: generation %s has %d accounts and %d posts, expected %d and %d",
			platform.ErrCorruptSnapshot, m.Generation, len(accounts), len(posts), m.Accounts, m.Posts)
	}

	slices.SortFunc(accounts, func(a, b accountItem) int { return cmp.Compare(a.Seq, b.Seq) })
	slices.SortFunc(posts, func(a, b platform.PostRecord) int { return cmp.Compare(a.Ref, b.Ref) })

	s := &platform.Snapshot{
		LastPostID:    m.LastPostID,
		LastAccountID: m.LastAccountID,
		Accounts:      make([]platform.AccountRecord, 0, len(accounts)),
		Posts:         posts,
	}
	for _, acc := range accounts {
		s.Accounts = append(s.Accounts, acc.AccountRecord)
	}
	return s, nil
}

// Generation returns the committed generation ID, or "" if nothing has been saved.
func (d *DynamoStore) Generation(ctx context.Context) (string, error) {
	m, err := d.readMeta(ctx)
	if err != nil || m == nil {
		return "", err
	}
	return m.Generation, nil
}

// readMeta returns the META item, or nil if it does not exist.
func (d *DynamoStore) readMeta(ctx context.Context) (*metaItem, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.config.Table),
		Key:            itemKey(MetaPK(d.config.Name), metaSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}
	var m metaItem
	if err := attributevalue.UnmarshalMap(result.Item, &m); err != nil {
		return nil, fmt.Errorf("%w: meta: %v", platform.ErrCorruptSnapshot, err)
	}
	return &m, nil
}

// commit switches META to next, provided it still points at prev.
func (d *DynamoStore) commit(ctx context.Context, next metaItem, prev *metaItem) error {
	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(d.config.Table),
		Item:      item,
	}
	if prev == nil {
		input.ConditionExpression = aws.String("attribute_not_exists(pk)")
	} else {
		input.ConditionExpression = aws.String("generation = :prev")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prev": &types.AttributeValueMemberS{Value: prev.Generation},
		}
	}

	_, err = d.client.PutItem(ctx, input)
	return mapCommitError(err)
}

// mapCommitError maps a failed META condition to ErrConcurrentSave.
func mapCommitError(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConcurrentSave
	}
	return fmt.Errorf("commit meta: %w", err)
}

// entityWrites builds put requests for every account and post in s.
func (d *DynamoStore) entityWrites(s *platform.Snapshot, generation string) ([]types.WriteRequest, error) {
	scope := generationScope(d.config.Name, generation)
	writes := make([]types.WriteRequest, 0, len(s.Accounts)+len(s.Posts))

	for i, acc := range s.Accounts {
		sk := fmt.Sprintf("%s%010d", accountPrefix, acc.ID)
		item, err := attributevalue.MarshalMap(accountItem{
			PK:            shard.ItemPK(scope, sk, d.config.NumShards),
			SK:            sk,
			Seq:           i,
			AccountRecord: acc,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal account %d: %w", acc.ID, err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for _, post := range s.Posts {
		sk := fmt.Sprintf("%s%010d", postPrefix, post.Ref)
		item, err := attributevalue.MarshalMap(postItem{
			PK:         shard.ItemPK(scope, sk, d.config.NumShards),
			SK:         sk,
			PostRecord: post,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal post %d: %w", post.Ref, err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	return writes, nil
}

// retire deletes every item of a generation. Failures only leave orphaned items
// behind, so they are logged and not returned.
func (d *DynamoStore) retire(ctx context.Context, generation string, numShards int) {
	keys, err := d.queryScope(ctx, generationScope(d.config.Name, generation), numShards, true)
	if err != nil {
		d.logger.Warn("failed to list generation for removal",
			"generation", generation,
			"error", err,
		)
		return
	}

	deletes := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		deletes = append(deletes, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}
	if err := d.batchWrite(ctx, deletes); err != nil {
		d.logger.Warn("failed to remove generation",
			"generation", generation,
			"items", len(deletes),
			"error", err,
		)
		return
	}

	d.logger.Debug("generation removed", "generation", generation, "items", len(deletes))
}

// batchWrite submits writes in chunks of batchSize, resubmitting unprocessed items.
func (d *DynamoStore) batchWrite(ctx context.Context, writes []types.WriteRequest) error {
	for start := 0; start < len(writes); start += batchSize {
		end := min(start+batchSize, len(writes))
		pending := map[string][]types.WriteRequest{d.config.Table: writes[start:end]}

		for attempt := 0; countRequests(pending) > 0; attempt++ {
			if attempt > d.config.MaxBatchRetries {
				return fmt.Errorf("%d items unprocessed after %d attempts", countRequests(pending), attempt)
			}
			if attempt > 0 {
				if err := sleep(ctx, time.Duration(attempt)*d.config.RetryBackoff); err != nil {
					return err
				}
			}

			result, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				return fmt.Errorf("batch write: %w", err)
			}
			pending = result.UnprocessedItems
		}
	}
	return nil
}

// queryScope returns every item stored under scope's shards. keysOnly limits the
// result to pk and sk.
func (d *DynamoStore) queryScope(ctx context.Context, scope string, numShards int, keysOnly bool) ([]map[string]types.AttributeValue, error) {
	pks := shard.PKs(scope, numShards)

	// Fast path for single shard (default)
	if len(pks) == 1 {
		return d.queryShard(ctx, pks[0], keysOnly)
	}

	// Multi-shard fan-out
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var all []map[string]types.AttributeValue
	var wg sync.WaitGroup
	errs := make(chan error, len(pks))

	for _, pk := range pks {
		wg.Add(1)
		go func(pk string) {
			defer wg.Done()

			items, err := d.queryShard(ctx, pk, keysOnly)
			if err != nil {
				errs <- fmt.Errorf("query shard %s: %w", pk, err)
				cancel()
				return
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(pk)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return all, nil
}

func (d *DynamoStore) queryShard(ctx context.Context, pk string, keysOnly bool) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.config.Table),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	}
	if keysOnly {
		input.ProjectionExpression = aws.String("pk, sk")
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func getString(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func countRequests(requests map[string][]types.WriteRequest) int {
	n := 0
	for _, reqs := range requests {
		n += len(reqs)
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
