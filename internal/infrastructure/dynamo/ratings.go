package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redibo/rental-api/internal/domain"
)

// RatingRepo provides typed DynamoDB operations for the ratings table.
type RatingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRatingRepo(client *dynamodb.Client, tableName string) *RatingRepo {
	return &RatingRepo{client: client, tableName: tableName}
}

func (r *RatingRepo) Put(ctx context.Context, rating *domain.Rating) error {
	item, err := attributevalue.MarshalMap(rating)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RatingRepo) Get(ctx context.Context, ratingID string) (*domain.Rating, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("rating_id", ratingID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("rating not found: %w", domain.ErrNotFound)
	}
	var rating domain.Rating
	if err := attributevalue.UnmarshalMap(out.Item, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}
