//go:build e2e

// Package e2e contains end-to-end integration tests against real DynamoDB
// tables and, when SOCIALMEDIA_E2E_POSTGRES_DSN is set, a real PostgreSQL.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
)

// Test configuration
const (
	awsProfile = "jacent-alpha-cp"

	// Table names - unique per test run to avoid conflicts
	tablePrefix = "socialmedia-e2e-test"

	postgresDSNEnv = "SOCIALMEDIA_E2E_POSTGRES_DSN"
)

var (
	testID         string
	snapshotsTable string

	ddbClient *dynamodb.Client
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	testID = uuid.New().String()[:8]
	snapshotsTable = fmt.Sprintf("%s-%s-snapshots", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Snapshot table: %s\n", snapshotsTable)

	// Initialize AWS client (uses region from profile config)
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(awsProfile),
	)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	if err := createTable(ctx); err != nil {
		fmt.Printf("Failed to create table: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := deleteTable(ctx); err != nil {
		fmt.Printf("Failed to delete table: %v\n", err)
	}

	os.Exit(code)
}

func createTable(ctx context.Context) error {
	fmt.Println("Creating snapshot table...")

	_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(snapshotsTable),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", snapshotsTable, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(ddbClient)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(snapshotsTable),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", snapshotsTable, err)
	}

	fmt.Println("Table created and active")
	return nil
}

func deleteTable(ctx context.Context) error {
	fmt.Println("Deleting snapshot table...")

	_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(snapshotsTable),
	})
	if err != nil {
		return fmt.Errorf("delete table %s: %w", snapshotsTable, err)
	}

	fmt.Println("Table deleted")
	return nil
}

// --- Helpers ---

func newDynamoStore(name string, shards int) *persist.DynamoStore {
	cfg := persist.DefaultDynamoConfig()
	cfg.Table = snapshotsTable
	cfg.Name = name
	cfg.NumShards = shards
	return persist.NewDynamoStore(ddbClient, cfg)
}

func populated(t *testing.T) *platform.Platform {
	t.Helper()
	p := platform.New(platform.DefaultConfig())

	must := func(_ int, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	must(p.CreateAccount("alice", "first user"))
	must(p.CreateAccount("bob", ""))
	must(p.CreatePost("alice", "hello"))        // 1
	must(p.CommentPost("bob", 1, "hi alice"))   // 2
	must(p.EndorsePost("bob", 1))               // 3
	must(p.CreatePost("bob", "to be redacted")) // 4
	must(p.CommentPost("alice", 4, "reply"))    // 5
	if err := p.DeletePost(4); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	return p
}

func assertSameState(t *testing.T, want, got *platform.Platform) {
	t.Helper()
	wantJSON, err := persist.Marshal(want.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	gotJSON, err := persist.Marshal(got.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("expected state\n%s\ngot\n%s", wantJSON, gotJSON)
	}
}

// --- DynamoDB Tests ---

func TestDynamo_LoadMissing(t *testing.T) {
	st := newDynamoStore("missing-"+uuid.New().String()[:8], 1)

	_, err := st.Load(context.Background())
	if !errors.Is(err, persist.ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestDynamo_RoundTrip(t *testing.T) {
	for _, shards := range []int{1, 8} {
		t.Run(fmt.Sprintf("%d shards", shards), func(t *testing.T) {
			ctx := context.Background()
			st := newDynamoStore("roundtrip-"+uuid.New().String()[:8], shards)
			src := populated(t)

			if err := persist.SavePlatform(ctx, st, src); err != nil {
				t.Fatalf("SavePlatform failed: %v", err)
			}

			dst := platform.New(platform.DefaultConfig())
			if err := persist.LoadPlatform(ctx, st, dst); err != nil {
				t.Fatalf("LoadPlatform failed: %v", err)
			}
			assertSameState(t, src, dst)

			// IDs continue from the saved counters.
			id, err := dst.CreatePost("alice", "after reload")
			if err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}
			if id != 6 {
				t.Errorf("expected next post ID 6, got %d", id)
			}
		})
	}
}

func TestDynamo_OverwriteReplacesGeneration(t *testing.T) {
	ctx := context.Background()
	st := newDynamoStore("overwrite-"+uuid.New().String()[:8], 4)
	p := populated(t)

	if err := persist.SavePlatform(ctx, st, p); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	first, err := st.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}

	if err := p.RemoveAccount("bob"); err != nil {
		t.Fatalf("RemoveAccount failed: %v", err)
	}
	if err := persist.SavePlatform(ctx, st, p); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	second, err := st.Generation(ctx)
	if err != nil {
		t.Fatalf("Generation failed: %v", err)
	}
	if first == second {
		t.Errorf("expected a new generation, still %q", first)
	}

	dst := platform.New(platform.DefaultConfig())
	if err := persist.LoadPlatform(ctx, st, dst); err != nil {
		t.Fatalf("LoadPlatform failed: %v", err)
	}
	assertSameState(t, p, dst)
	if dst.NumberOfAccounts() != 1 {
		t.Errorf("expected 1 account after reload, got %d", dst.NumberOfAccounts())
	}
}

// --- PostgreSQL Tests ---

func TestPostgres_RoundTrip(t *testing.T) {
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New failed: %v", err)
	}
	defer pool.Close()

	st := persist.NewPostgresStore(pool, "e2e-"+testID)
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	defer func() {
		if err := st.Delete(ctx); err != nil {
			t.Logf("cleanup failed: %v", err)
		}
	}()

	src := populated(t)
	if err := persist.SavePlatform(ctx, st, src); err != nil {
		t.Fatalf("SavePlatform failed: %v", err)
	}

	dst := platform.New(platform.DefaultConfig())
	if err := persist.LoadPlatform(ctx, st, dst); err != nil {
		t.Fatalf("LoadPlatform failed: %v", err)
	}
	assertSameState(t, src, dst)
}
