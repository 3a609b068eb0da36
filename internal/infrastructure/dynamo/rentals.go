package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redibo/rental-api/internal/domain"
)

// RentalRepo provides typed DynamoDB operations for the rentals table.
type RentalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRentalRepo(client *dynamodb.Client, tableName string) *RentalRepo {
	return &RentalRepo{client: client, tableName: tableName}
}

func (r *RentalRepo) Put(ctx context.Context, rental *domain.Rental) error {
	item, err := attributevalue.MarshalMap(rental)
	if err != nil {
		return fmt.Errorf("marshal rental: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RentalRepo) Get(ctx context.Context, rentalID string) (*domain.Rental, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("rental_id", rentalID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("rental not found: %w", domain.ErrNotFound)
	}
	var rental domain.Rental
	if err := attributevalue.UnmarshalMap(out.Item, &rental); err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *RentalRepo) Update(ctx context.Context, rentalID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("rental_id", rentalID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}
