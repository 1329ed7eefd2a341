// Package stream provides DynamoDB Streams handlers that keep read replicas of a
// platform up to date.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/socialmedia/persist"
	"github.com/jacentio/socialmedia/platform"
)

// Marker is the decoded META item a DynamoStore commits on every save.
type Marker struct {
	Generation    string `dynamodbav:"generation"`
	NumShards     int    `dynamodbav:"num_shards"`
	LastPostID    int    `dynamodbav:"last_post_id"`
	LastAccountID int    `dynamodbav:"last_account_id"`
	Accounts      int    `dynamodbav:"accounts"`
	Posts         int    `dynamodbav:"posts"`
	SavedAt       string `dynamodbav:"saved_at"`
}

// Handler processes DynamoDB stream events for a snapshot table and reloads the
// replica whenever a new generation is committed.
type Handler struct {
	source     persist.Store
	replica    *platform.Platform
	metaPK     string
	generation string
	logger     *slog.Logger
}

// NewHandler creates a new stream handler. metaPK selects the platform to follow
// (see persist.MetaPK); an empty metaPK follows every META item in the table.
func NewHandler(source persist.Store, replica *platform.Platform, metaPK string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		source:  source,
		replica: replica,
		metaPK:  metaPK,
		logger:  logger,
	}
}

// Replica returns the platform kept in step with the source.
func (h *Handler) Replica() *platform.Platform {
	return h.replica
}

// Generation returns the generation last applied to the replica, or "".
func (h *Handler) Generation() string {
	return h.generation
}

// HandleSnapshotChange processes DynamoDB stream events and refreshes the replica.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleSnapshotChange(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if getStringAttr(record.Change.Keys, "sk") != persist.MetaSK() {
		return nil
	}
	if h.metaPK != "" && getStringAttr(record.Change.Keys, "pk") != h.metaPK {
		return nil
	}

	switch record.EventName {
	case "REMOVE":
		h.replica.Erase()
		h.generation = ""
		h.logger.Info("snapshot removed, replica erased",
			"pk", getStringAttr(record.Change.Keys, "pk"),
		)
		return nil
	case "INSERT", "MODIFY":
	default:
		return nil
	}

	var marker Marker
	if err := attributevalue.UnmarshalMap(ConvertStreamImage(record.Change.NewImage), &marker); err != nil {
		return fmt.Errorf("decode marker: %w", err)
	}

	// Only act when the committed generation actually moved
	oldGeneration := getStringAttr(record.Change.OldImage, "generation")
	if marker.Generation == "" || marker.Generation == oldGeneration || marker.Generation == h.generation {
		return nil
	}

	snap, err := h.source.Load(ctx)
	if errors.Is(err, persist.ErrNoSnapshot) {
		h.logger.Warn("marker present but no snapshot readable",
			"generation", marker.Generation,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	// Counters are not compared against the marker: an erase followed by a save
	// legitimately commits lower counters, and Load always returns the committed state.
	if err := h.replica.Restore(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	h.generation = marker.Generation

	h.logger.Info("replica refreshed",
		"generation", marker.Generation,
		"savedAt", marker.SavedAt,
		"accounts", h.replica.NumberOfAccounts(),
		"originalPosts", h.replica.TotalOriginalPosts(),
	)
	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertStreamImage converts a DynamoDB stream image to SDK attribute values so it
// can be decoded with attributevalue.UnmarshalMap.
func ConvertStreamImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		if av := convertAttr(v); av != nil {
			result[k] = av
		}
	}
	return result
}

func convertAttr(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, item := range v.List() {
			if av := convertAttr(item); av != nil {
				list = append(list, av)
			}
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertStreamImage(v.Map())}
	}
	return nil
}
