package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-commerce-api/internal/domain"
)

const recipientIndex = "user_id-created_at-index"

// batchWriteMax is the DynamoDB BatchWriteItem request limit.
const batchWriteMax = 25

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

// ListByRecipient returns every notification for userID ordered by creation
// time via the user_id-created_at GSI. The partition is a single user's
// inbox, so it is read in full; callers slice their own page window out of
// it, which also gives them the total count for free.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, userID string, descending bool) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(recipientIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(!descending),
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

func (r *NotificationRepo) SetRead(ctx context.Context, notificationID string) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		fieldIsRead:    true,
		fieldUpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
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

// MarkAllRead flips every unread record for userID and returns how many it
// flipped. Each update is conditioned on is_read still being false, so the
// count stays correct when reads race with this call, and re-invoking after
// everything is read returns 0.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	ids, err := r.listIDs(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, nid := range ids {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 strKey("notification_id", nid),
			UpdateExpression:    aws.String("SET is_read = :t, updated_at = :now"),
			ConditionExpression: aws.String("is_read = :f"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t":   &types.AttributeValueMemberBOOL{Value: true},
				":f":   &types.AttributeValueMemberBOOL{Value: false},
				":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			},
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				continue // lost the race, someone already read it
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// DeleteAllByRecipient removes every notification for userID and returns the
// number removed. Deletes go through BatchWriteItem in chunks of 25.
func (r *NotificationRepo) DeleteAllByRecipient(ctx context.Context, userID string) (int, error) {
	ids, err := r.listIDs(ctx, userID, false)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	for _, chunk := range chunkStrings(ids, batchWriteMax) {
		requests := make([]types.WriteRequest, 0, len(chunk))
		for _, nid := range chunk {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: strKey("notification_id", nid)},
			})
		}
		unprocessed := map[string][]types.WriteRequest{r.tableName: requests}
		for len(unprocessed[r.tableName]) > 0 {
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: unprocessed,
			})
			if err != nil {
				return 0, err
			}
			unprocessed = out.UnprocessedItems
		}
	}
	return len(ids), nil
}

// DeleteOwned removes the given notification ids, but only those belonging
// to userID. Ids that do not exist or belong to another recipient fail the
// condition check and are silently skipped.
func (r *NotificationRepo) DeleteOwned(ctx context.Context, userID string, ids []string) (int, error) {
	count := 0
	for _, nid := range ids {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 strKey("notification_id", nid),
			ConditionExpression: aws.String("user_id = :uid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: userID},
			},
		})
		if err != nil {
			if isConditionalCheckFailed(err) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// listIDs returns notification ids for userID, optionally only unread ones.
func (r *NotificationRepo) listIDs(ctx context.Context, userID string, unreadOnly bool) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(recipientIndex),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ProjectionExpression: aws.String("notification_id"),
	}
	if unreadOnly {
		input.FilterExpression = aws.String("is_read = :f")
		input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	var ids []string
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["notification_id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return ids, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
