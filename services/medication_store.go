package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Sort key layout. RFC3339Nano trims trailing zeros, which breaks
// lexicographic ordering, so a fixed-width layout is used instead.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// MedicationStore is the document-store contract for medication records.
// List returns the full snapshot for a scope, newest-first.
type MedicationStore interface {
	List(ctx context.Context, scope string) ([]models.Medication, error)
	Put(ctx context.Context, scope string, med models.Medication) error
	SetTaken(ctx context.Context, scope string, createdAt time.Time, taken bool) error
	Delete(ctx context.Context, scope string, createdAt time.Time) error
}

type DynamoMedicationStore struct {
	db    *dynamodb.Client
	table string
}

func NewDynamoMedicationStore(db *dynamodb.Client, table string) *DynamoMedicationStore {
	return &DynamoMedicationStore{db: db, table: table}
}

// EnsureTable creates the table if it does not exist yet. Useful against
// dynamodb-local; on AWS the table is usually provisioned ahead of time.
func (s *DynamoMedicationStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("Scope"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("CreatedAt"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("Scope"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("CreatedAt"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var exists *types.ResourceInUseException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *DynamoMedicationStore) Put(ctx context.Context, scope string, med models.Medication) error {
	_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"Scope":     &types.AttributeValueMemberS{Value: scope},
			"CreatedAt": &types.AttributeValueMemberS{Value: med.CreatedAt.UTC().Format(createdAtLayout)},
			"ID":        &types.AttributeValueMemberS{Value: med.ID},
			"Name":      &types.AttributeValueMemberS{Value: med.Name},
			"Dose":      &types.AttributeValueMemberS{Value: med.Dose},
			"Time":      &types.AttributeValueMemberS{Value: med.Time},
			"IsTaken":   &types.AttributeValueMemberBOOL{Value: med.IsTaken},
		},
	})
	return err
}

func (s *DynamoMedicationStore) List(ctx context.Context, scope string) ([]models.Medication, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#scope = :scope"),
		ExpressionAttributeNames: map[string]string{
			"#scope": "Scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":scope": &types.AttributeValueMemberS{Value: scope},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, err
	}

	meds := make([]models.Medication, 0, len(result.Items))
	for _, item := range result.Items {
		createdAt, _ := time.Parse(createdAtLayout, stringAttr(item["CreatedAt"]))
		meds = append(meds, models.Medication{
			ID:        stringAttr(item["ID"]),
			Name:      stringAttr(item["Name"]),
			Dose:      stringAttr(item["Dose"]),
			Time:      stringAttr(item["Time"]),
			IsTaken:   boolAttr(item["IsTaken"]),
			CreatedAt: createdAt,
		})
	}
	return meds, nil
}

func (s *DynamoMedicationStore) SetTaken(ctx context.Context, scope string, createdAt time.Time, taken bool) error {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"Scope":     &types.AttributeValueMemberS{Value: scope},
			"CreatedAt": &types.AttributeValueMemberS{Value: createdAt.UTC().Format(createdAtLayout)},
		},
		UpdateExpression: aws.String("SET IsTaken = :taken"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":taken": &types.AttributeValueMemberBOOL{Value: taken},
		},
	})
	return err
}

func (s *DynamoMedicationStore) Delete(ctx context.Context, scope string, createdAt time.Time) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"Scope":     &types.AttributeValueMemberS{Value: scope},
			"CreatedAt": &types.AttributeValueMemberS{Value: createdAt.UTC().Format(createdAtLayout)},
		},
	})
	return err
}

func stringAttr(av types.AttributeValue) string {
	if v, ok := av.(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func boolAttr(av types.AttributeValue) bool {
	if v, ok := av.(*types.AttributeValueMemberBOOL); ok {
		return v.Value
	}
	return false
}
