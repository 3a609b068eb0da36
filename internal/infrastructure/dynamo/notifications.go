package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redibo/rental-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) Update(ctx context.Context, notificationID string, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// QueryByUser returns all non-deleted notifications for a user matching the
// filter, newest first, via the user_id-created_at GSI. Offset/limit slicing is
// the caller's concern — DynamoDB has no offset, so the service paginates the
// materialised result.
func (r *NotificationRepo) QueryByUser(ctx context.Context, userID string, f domain.NotificationFilter) ([]domain.Notification, error) {
	keyCond := "user_id = :uid"
	names := map[string]string{}
	values := map[string]types.AttributeValue{
		":uid":   &types.AttributeValueMemberS{Value: userID},
		":false": &types.AttributeValueMemberBOOL{Value: false},
	}

	switch {
	case f.From != nil && f.To != nil:
		keyCond += " AND created_at BETWEEN :from AND :to"
		values[":from"] = &types.AttributeValueMemberS{Value: f.From.UTC().Format(time.RFC3339Nano)}
		values[":to"] = &types.AttributeValueMemberS{Value: f.To.UTC().Format(time.RFC3339Nano)}
	case f.From != nil:
		keyCond += " AND created_at >= :from"
		values[":from"] = &types.AttributeValueMemberS{Value: f.From.UTC().Format(time.RFC3339Nano)}
	case f.To != nil:
		keyCond += " AND created_at <= :to"
		values[":to"] = &types.AttributeValueMemberS{Value: f.To.UTC().Format(time.RFC3339Nano)}
	}

	filterExpr := "#deleted = :false"
	names["#deleted"] = "deleted"
	i := 0
	addFilter := func(attr string, av types.AttributeValue) {
		nameKey := fmt.Sprintf("#a%d", i)
		valueKey := ":f" + strconv.Itoa(i)
		names[nameKey] = attr
		values[valueKey] = av
		filterExpr += fmt.Sprintf(" AND %s = %s", nameKey, valueKey)
		i++
	}
	if f.Type != "" {
		addFilter("type", &types.AttributeValueMemberS{Value: f.Type})
	}
	if f.Priority != "" {
		addFilter("priority", &types.AttributeValueMemberS{Value: string(f.Priority)})
	}
	if f.EntityKind != "" {
		addFilter("entity_kind", &types.AttributeValueMemberS{Value: f.EntityKind})
	}
	if f.Read != nil {
		addFilter("read", &types.AttributeValueMemberBOOL{Value: *f.Read})
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-created_at-index"),
		KeyConditionExpression:    aws.String(keyCond),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // newest first
	}

	var notifications []domain.Notification
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if out.LastEvaluatedKey == nil {
			return notifications, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// CountUnread counts the non-deleted unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#read = :false AND #deleted = :false"),
		ExpressionAttributeNames: map[string]string{
			"#read":    "read",
			"#deleted": "deleted",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":   &types.AttributeValueMemberS{Value: userID},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
		Select: types.SelectCount,
	}

	total := 0
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
