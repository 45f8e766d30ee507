package dynamo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

type fakeAPI struct {
	put     []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	updates []*dynamodb.UpdateItemInput

	getOut    *dynamodb.GetItemOutput
	queryOuts []*dynamodb.QueryOutput
	updateOut *dynamodb.UpdateItemOutput
	updateErr error
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.put = append(f.put, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getOut, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	// copy the input since the repository reuses it between pages
	cp := *in
	f.queries = append(f.queries, &cp)
	out := f.queryOuts[0]
	f.queryOuts = f.queryOuts[1:]
	return out, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return f.updateOut, f.updateErr
}

func TestVideoRepository_Create(t *testing.T) {
	api := &fakeAPI{}
	repo := NewVideoRepository(api, "videos")

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	video := &domain.Video{ID: "v1", UserID: 7, URL: "https://cdn/v1.mp4", Duration: 8.5, CreatedAt: created}
	require.NoError(t, repo.Create(context.Background(), video))

	require.Len(t, api.put, 1)
	assert.Equal(t, "videos", aws.ToString(api.put[0].TableName))

	var stored domain.Video
	require.NoError(t, attributevalue.UnmarshalMap(api.put[0].Item, &stored))
	assert.Equal(t, "v1", stored.ID)
	assert.Equal(t, 7, stored.UserID)
	assert.Equal(t, feedPartition, stored.Feed)
	assert.Equal(t, created.UnixMilli(), stored.SortKey)
}

func TestVideoRepository_GetByID_NotFound(t *testing.T) {
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{}}
	repo := NewVideoRepository(api, "videos")

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestVideoRepository_ListLatest(t *testing.T) {
	item, err := attributevalue.MarshalMap(&domain.Video{ID: "v2", UserID: 3})
	require.NoError(t, err)

	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{item}}}}
	repo := NewVideoRepository(api, "videos")

	videos, err := repo.ListLatest(context.Background(), domain.LatestVideosLimit)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "v2", videos[0].ID)

	q := api.queries[0]
	assert.Equal(t, feedIndex, aws.ToString(q.IndexName))
	assert.Equal(t, int32(domain.LatestVideosLimit), aws.ToInt32(q.Limit))
	assert.False(t, aws.ToBool(q.ScanIndexForward))
}

func TestVideoRepository_ListByUser_FollowsPages(t *testing.T) {
	first, err := attributevalue.MarshalMap(&domain.Video{ID: "v3", UserID: 7})
	require.NoError(t, err)
	second, err := attributevalue.MarshalMap(&domain.Video{ID: "v1", UserID: 7})
	require.NoError(t, err)

	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "v3"}}
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{first}, LastEvaluatedKey: lastKey},
		{Items: []map[string]types.AttributeValue{second}},
	}}
	repo := NewVideoRepository(api, "videos")

	videos, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v3", videos[0].ID)
	assert.Equal(t, "v1", videos[1].ID)

	require.Len(t, api.queries, 2)
	assert.Equal(t, userIndex, aws.ToString(api.queries[0].IndexName))
	assert.Nil(t, api.queries[0].ExclusiveStartKey)
	assert.Equal(t, lastKey, api.queries[1].ExclusiveStartKey)
}

func TestVideoRepository_CountByUser_Paginates(t *testing.T) {
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "v9"}}
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{
		{Count: 2, LastEvaluatedKey: lastKey},
		{Count: 1},
	}}
	repo := NewVideoRepository(api, "videos")

	n, err := repo.CountByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, api.queries, 2)
	assert.Equal(t, types.SelectCount, api.queries[0].Select)
	assert.Nil(t, api.queries[0].ExclusiveStartKey)
	assert.Equal(t, lastKey, api.queries[1].ExclusiveStartKey)
}

func TestVideoRepository_IncrementCounter(t *testing.T) {
	api := &fakeAPI{updateOut: &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{"likes": &types.AttributeValueMemberN{Value: "4"}},
	}}
	repo := NewVideoRepository(api, "videos")

	n, err := repo.IncrementCounter(context.Background(), "v1", repository.VideoLikes)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "likes", api.updates[0].ExpressionAttributeNames["#counter"])
}

func TestVideoRepository_IncrementCounter_Missing(t *testing.T) {
	api := &fakeAPI{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("nope")}}
	repo := NewVideoRepository(api, "videos")

	_, err := repo.IncrementCounter(context.Background(), "v1", repository.VideoViews)
	assert.ErrorIs(t, err, domain.ErrVideoNotFound)
}
