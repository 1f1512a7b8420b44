package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oli-store-api/internal/domain"
)

// OtpRepo provides typed DynamoDB operations for the otps table.
// PK: identity, SK: otp_id (ULID). Because ULIDs sort by creation time,
// querying with ScanIndexForward=false walks records newest-first, which is
// how the latest-unverified and latest-verified lookups are answered.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Create(ctx context.Context, o *domain.OTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// LatestUnverified returns the most recently issued unverified record for the
// identity, or ErrNotFound.
func (r *OtpRepo) LatestUnverified(ctx context.Context, identity string) (*domain.OTP, error) {
	return r.latest(ctx, identity, false)
}

// LatestVerified returns the most recently issued verified record for the
// identity, or ErrNotFound.
func (r *OtpRepo) LatestVerified(ctx context.Context, identity string) (*domain.OTP, error) {
	return r.latest(ctx, identity, true)
}

func (r *OtpRepo) latest(ctx context.Context, identity string, verified bool) (*domain.OTP, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#id = :id"),
		FilterExpression:       aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{
			"#id": "identity",
			"#v":  fieldVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: identity},
			":v":  &types.AttributeValueMemberBOOL{Value: verified},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var o domain.OTP
	if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteUnverified removes every unverified record for the identity and
// returns the number deleted. Verified records are never touched here, so a
// live verified grant survives subsequent issuance.
func (r *OtpRepo) DeleteUnverified(ctx context.Context, identity string) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#id = :id"),
		FilterExpression:       aws.String("#v = :f"),
		ProjectionExpression:   aws.String("#id, otp_id"),
		ExpressionAttributeNames: map[string]string{
			"#id": "identity",
			"#v":  fieldVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: identity},
			":f":  &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, item := range out.Items {
		sk, ok := item["otp_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey("identity", identity, "otp_id", sk.Value),
		})
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// MarkVerified flips the verified flag on one record. The update is
// conditional on the record still being unverified, so two racing verify
// calls serialize in the store: exactly one wins, the loser gets ErrConflict.
func (r *OtpRepo) MarkVerified(ctx context.Context, identity, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("identity", identity, "otp_id", otpID),
		UpdateExpression:    aws.String("SET #v = :t"),
		ConditionExpression: aws.String("#v = :f"),
		ExpressionAttributeNames: map[string]string{
			"#v": fieldVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("otp already verified: %w", domain.ErrConflict)
	}
	return err
}
