package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-commerce-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, "username-index", "username", username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, "email-index", "email", email)
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

func (r *UserRepo) SoftDelete(ctx context.Context, userID string) error {
	return r.Update(ctx, userID, map[string]interface{}{fieldEnable: false})
}

// ListIDsByPushToken scans for every user currently holding exactly this
// token string. Tokens get reassigned across reinstalls, so more than one
// user record can reference the same stale token.
func (r *UserRepo) ListIDsByPushToken(ctx context.Context, token string) ([]string, error) {
	return r.scanIDs(ctx, aws.String(fieldPushToken+" = :tok"), nil, map[string]types.AttributeValue{
		":tok": &types.AttributeValueMemberS{Value: token},
	})
}

// ScanRecipientIDs resolves a recipient-selection filter (a set of equality
// conditions over user attributes) into user ids. A nil or empty filter
// selects all recipients. Disabled and push-opted-out users are always
// excluded.
func (r *UserRepo) ScanRecipientIDs(ctx context.Context, filter map[string]interface{}) ([]string, error) {
	expr := "#en = :t AND (attribute_not_exists(push_opt_out) OR push_opt_out = :f)"
	names := map[string]string{"#en": fieldEnable}
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberBOOL{Value: true},
		":f": &types.AttributeValueMemberBOOL{Value: false},
	}
	i := 0
	for attr, v := range filter {
		nameKey := fmt.Sprintf("#c%d", i)
		valueKey := fmt.Sprintf(":c%d", i)
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal filter condition %s: %w", attr, err)
		}
		names[nameKey] = attr
		values[valueKey] = av
		expr += fmt.Sprintf(" AND %s = %s", nameKey, valueKey)
		i++
	}
	return r.scanIDs(ctx, aws.String(expr), names, values)
}

func (r *UserRepo) scanIDs(ctx context.Context, filterExpr *string, names map[string]string, values map[string]types.AttributeValue) ([]string, error) {
	var ids []string
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          filterExpr,
		ExpressionAttributeValues: values,
		ProjectionExpression:      aws.String("user_id"),
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["user_id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return ids, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
