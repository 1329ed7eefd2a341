// Command replica is a Lambda function subscribed to the snapshot table's
// DynamoDB stream. It keeps an in-memory read replica of one platform in step
// with the latest committed snapshot generation.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/socialmedia/internal/config"
	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
	"github.com/jacentio/socialmedia/stream"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	source := persist.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Dynamo())
	source.SetLogger(logger)

	replica := platform.New(cfg.Platform())
	replica.SetLogger(logger)

	handler := stream.NewHandler(source, replica, persist.MetaPK(cfg.PlatformName), logger)
	logger.Info("replica ready", "platform", cfg.PlatformName, "table", cfg.DynamoTable)

	lambda.Start(handler.HandleSnapshotChange)
}
