package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

const (
	userIndex = "user-index"
	feedIndex = "feed-index"

	// feedPartition is the constant partition every video shares in feed-index.
	feedPartition = "video"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type videoRepository struct {
	client API
	table  string
}

func NewVideoRepository(client API, table string) repository.VideoRepository {
	return &videoRepository{client: client, table: table}
}

func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	video.Feed = feedPartition
	video.SortKey = video.CreatedAt.UnixMilli()

	item, err := attributevalue.MarshalMap(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to store video: %w", err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrVideoNotFound
	}

	var video domain.Video
	if err := attributevalue.UnmarshalMap(out.Item, &video); err != nil {
		return nil, fmt.Errorf("failed to parse video: %w", err)
	}
	return &video, nil
}

// ListByUser reads every page of the user's index partition.
func (r *videoRepository) ListByUser(ctx context.Context, userID int) ([]*domain.Video, error) {
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(userIndex),
		KeyConditionExpression: aws.String("#user_id = :user_id"),
		ExpressionAttributeNames: map[string]string{
			"#user_id": "user_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberN{Value: strconv.Itoa(userID)},
		},
		ScanIndexForward: aws.Bool(false),
	})

	videos := []*domain.Video{}
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query videos: %w", err)
		}
		var page []*domain.Video
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to parse videos: %w", err)
		}
		videos = append(videos, page...)
	}
	return videos, nil
}

func (r *videoRepository) ListLatest(ctx context.Context, limit int) ([]*domain.Video, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(feedIndex),
		KeyConditionExpression: aws.String("#feed = :feed"),
		ExpressionAttributeNames: map[string]string{
			"#feed": "feed",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":feed": &types.AttributeValueMemberS{Value: feedPartition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
}

func (r *videoRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	var total int
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(userIndex),
		KeyConditionExpression: aws.String("#user_id = :user_id"),
		ExpressionAttributeNames: map[string]string{
			"#user_id": "user_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberN{Value: strconv.Itoa(userID)},
		},
		Select: types.SelectCount,
	}
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to count videos: %w", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *videoRepository) IncrementCounter(ctx context.Context, id string, counter repository.VideoCounter) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("ADD #counter :one"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#counter": string(counter),
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, domain.ErrVideoNotFound
		}
		return 0, fmt.Errorf("failed to update video %s: %w", counter, err)
	}

	var updated map[string]int
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return 0, fmt.Errorf("failed to parse counter: %w", err)
	}
	return updated[string(counter)], nil
}

func (r *videoRepository) query(ctx context.Context, input *dynamodb.QueryInput) ([]*domain.Video, error) {
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}

	videos := []*domain.Video{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &videos); err != nil {
		return nil, fmt.Errorf("failed to parse videos: %w", err)
	}
	return videos, nil
}
