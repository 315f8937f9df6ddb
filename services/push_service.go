package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
)

// DeviceStore persists registered push targets. Save overwrites on the
// (userID, tokenHash) key, so re-registering the same device is an upsert.
type DeviceStore interface {
	Save(ctx context.Context, dev models.UserDevice) error
	ListEnabled(ctx context.Context, userID string) ([]models.UserDevice, error)
}

type DynamoDeviceStore struct {
	db    *dynamodb.Client
	table string
}

func NewDynamoDeviceStore(db *dynamodb.Client, table string) *DynamoDeviceStore {
	return &DynamoDeviceStore{db: db, table: table}
}

func (s *DynamoDeviceStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []dynamotypes.AttributeDefinition{
			{AttributeName: aws.String("UserID"), AttributeType: dynamotypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("TokenHash"), AttributeType: dynamotypes.ScalarAttributeTypeS},
		},
		KeySchema: []dynamotypes.KeySchemaElement{
			{AttributeName: aws.String("UserID"), KeyType: dynamotypes.KeyTypeHash},
			{AttributeName: aws.String("TokenHash"), KeyType: dynamotypes.KeyTypeRange},
		},
		BillingMode: dynamotypes.BillingModePayPerRequest,
	})
	if err != nil {
		var exists *dynamotypes.ResourceInUseException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *DynamoDeviceStore) Save(ctx context.Context, dev models.UserDevice) error {
	_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]dynamotypes.AttributeValue{
			"UserID":      &dynamotypes.AttributeValueMemberS{Value: dev.UserID},
			"TokenHash":   &dynamotypes.AttributeValueMemberS{Value: dev.TokenHash},
			"Platform":    &dynamotypes.AttributeValueMemberS{Value: dev.Platform},
			"EndpointARN": &dynamotypes.AttributeValueMemberS{Value: dev.EndpointARN},
			"Enabled":     &dynamotypes.AttributeValueMemberBOOL{Value: dev.Enabled},
			"UpdatedAt":   &dynamotypes.AttributeValueMemberS{Value: dev.UpdatedAt.UTC().Format(time.RFC3339)},
		},
	})
	return err
}

func (s *DynamoDeviceStore) ListEnabled(ctx context.Context, userID string) ([]models.UserDevice, error) {
	result, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("UserID = :uid"),
		ExpressionAttributeValues: map[string]dynamotypes.AttributeValue{
			":uid": &dynamotypes.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}

	devices := make([]models.UserDevice, 0, len(result.Items))
	for _, item := range result.Items {
		dev := models.UserDevice{
			UserID:      stringAttr(item["UserID"]),
			TokenHash:   stringAttr(item["TokenHash"]),
			Platform:    stringAttr(item["Platform"]),
			EndpointARN: stringAttr(item["EndpointARN"]),
			Enabled:     boolAttr(item["Enabled"]),
		}
		if !dev.Enabled {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

type PushService struct {
	sns            *awssns.Client
	store          DeviceStore
	fcmPlatformArn string
}

func NewPushService(sns *awssns.Client, store DeviceStore, fcmPlatformArn string) *PushService {
	return &PushService{sns: sns, store: store, fcmPlatformArn: fcmPlatformArn}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform"` // "android" | "ios"
	Token    string `json:"token"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		if p.fcmPlatformArn == "" {
			return "", errors.New("SNS_FCM_ARN not set")
		}
		return p.fcmPlatformArn, nil
	default:
		return "", errors.New("unknown platform")
	}
}

func (p *PushService) RegisterDevice(ctx context.Context, userID, platform, token string) (*models.UserDevice, error) {
	appArn, err := p.platformArn(platform)
	if err != nil {
		return nil, err
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, err
	}

	dev := models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(platform),
		TokenHash:   tokenHash(token),
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := p.store.Save(ctx, dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

func (p *PushService) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) {
	devices, err := p.store.ListEnabled(ctx, userID)
	if err != nil || len(devices) == 0 {
		return
	}

	msg := map[string]any{
		"default": body,
		"GCM": map[string]any{
			"notification": map[string]string{
				"title": title,
				"body":  body,
			},
			"data": data,
		},
	}

	raw, _ := json.Marshal(msg)
	for _, d := range devices {
		_, _ = p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
	}
}
