// Command socialmedia runs a single platform operation against persisted state.
//
//	socialmedia create-account alice "likes go"
//	socialmedia post alice hello world
//	socialmedia show-thread 1
//
// State is loaded from the configured backend before the command runs and saved
// back afterwards when the command changed it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jacentio/socialmedia/internal/cli"
	"github.com/jacentio/socialmedia/internal/config"
	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			cli.Usage(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", cli.ErrUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	p := platform.New(cfg.Platform())
	p.SetLogger(logger)

	if err := persist.LoadPlatform(ctx, st, p); err != nil {
		if !errors.Is(err, persist.ErrNoSnapshot) {
			return fmt.Errorf("load state: %w", err)
		}
		logger.Debug("no saved state, starting empty", "backend", cfg.Backend)
	}

	mutated, err := cli.Run(p, args, w)
	if err != nil {
		return err
	}
	if !mutated {
		return nil
	}

	if err := persist.SavePlatform(ctx, st, p); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	logger.Debug("state saved", "backend", cfg.Backend, "command", args[0])
	return nil
}

// openStore builds the configured backend. The returned func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (persist.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendFile:
		return persist.NewFileStore(cfg.StateFile), func() {}, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return persist.NewRedisStore(rdb, cfg.PlatformName, cfg.RedisTTL), func() { rdb.Close() }, nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		st := persist.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Dynamo())
		st.SetLogger(logger)
		return st, func() {}, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		st := persist.NewPostgresStore(pool, cfg.PlatformName)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return st, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
