package main

import (
	"context"
	"log"

	"backend/config"
	"backend/controllers"
	"backend/routes"
	"backend/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	db := dynamodb.NewFromConfig(awsCfg)

	medStore := services.NewDynamoMedicationStore(db, cfg.MedicationsTable)
	if err := medStore.EnsureTable(ctx); err != nil {
		log.Printf("Medications table check failed: %v", err)
	}

	hub := services.NewRealtimeHub()

	var push *services.PushService
	if cfg.SNSFCMArn != "" {
		devStore := services.NewDynamoDeviceStore(db, cfg.DevicesTable)
		if err := devStore.EnsureTable(ctx); err != nil {
			log.Printf("Devices table check failed: %v", err)
		}
		push = services.NewPushService(awssns.NewFromConfig(awsCfg), devStore, cfg.SNSFCMArn)
	}

	notices := services.NewNoticeBus(hub, push)
	meds := services.NewMedicationService(medStore, hub, notices, cfg.AppTag)
	fitness := services.NewFitnessService(cfg.GoogleClientID, cfg.OAuthRedirectURL, cfg.FitnessBaseURL)
	assistant := services.NewAssistantService(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, services.NewTranscriptStore())

	router := routes.SetupRouter(routes.Deps{
		JWTSecret: cfg.JWTSecret,
		Auth:      controllers.NewAuthController(cfg.JWTSecret),
		Meds:      controllers.NewMedicationController(meds),
		Fitness:   controllers.NewFitnessController(fitness),
		Assistant: controllers.NewAssistantController(assistant, fitness),
		Devices:   controllers.NewDeviceController(push),
		Realtime:  controllers.NewRealtimeController(hub, meds),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}

	// dynamodb-local needs an endpoint override and accepts dummy creds
	if cfg.DynamoEndpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: cfg.DynamoEndpoint}, nil
		})
		opts = append(opts,
			awsconfig.WithEndpointResolverWithOptions(resolver),
			awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
				Value: aws.Credentials{
					AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy",
				},
			}),
		)
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
