package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redibo/rental-api/internal/domain"
)

// VehicleRepo provides typed DynamoDB operations for the vehicles table.
type VehicleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVehicleRepo(client *dynamodb.Client, tableName string) *VehicleRepo {
	return &VehicleRepo{client: client, tableName: tableName}
}

func (r *VehicleRepo) Put(ctx context.Context, v *domain.Vehicle) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal vehicle: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VehicleRepo) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("vehicle_id", vehicleID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("vehicle not found: %w", domain.ErrNotFound)
	}
	var v domain.Vehicle
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByHost queries the host_id GSI for all enabled vehicles of a host.
func (r *VehicleRepo) ListByHost(ctx context.Context, hostID string) ([]domain.Vehicle, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("host_id-index"),
		KeyConditionExpression: aws.String("host_id = :hid"),
		FilterExpression:       aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hid": &types.AttributeValueMemberS{Value: hostID},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var vehicles []domain.Vehicle
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *VehicleRepo) Update(ctx context.Context, vehicleID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("vehicle_id", vehicleID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *VehicleRepo) SoftDelete(ctx context.Context, vehicleID string) error {
	return r.Update(ctx, vehicleID, map[string]interface{}{"enable": false})
}

// AppendImage adds an image record to the end of the vehicle's images list.
func (r *VehicleRepo) AppendImage(ctx context.Context, vehicleID string, img domain.VehicleImage) error {
	av, err := attributevalue.Marshal([]domain.VehicleImage{img})
	if err != nil {
		return fmt.Errorf("marshal vehicle image: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("vehicle_id", vehicleID),
		UpdateExpression: aws.String("SET images = list_append(if_not_exists(images, :empty), :img), updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":img":   av,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":now":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	return err
}
