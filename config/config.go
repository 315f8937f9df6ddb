package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment. It is
// populated once in main and handed to constructors explicitly.
type Config struct {
	Port      string
	JWTSecret string
	AppTag    string

	AWSRegion        string
	DynamoEndpoint   string // non-empty for dynamodb-local
	MedicationsTable string
	DevicesTable     string
	SNSFCMArn        string

	GoogleClientID   string
	OAuthRedirectURL string
	FitnessBaseURL   string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
}

func Load() (*Config, error) {
	// .env is a dev convenience; in deployed environments the vars are real.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		AppTag:    getenv("APP_TAG", "healthmate"),

		AWSRegion:        getenv("AWS_REGION", "ap-south-1"),
		DynamoEndpoint:   os.Getenv("DYNAMO_ENDPOINT"),
		MedicationsTable: getenv("MEDICATIONS_TABLE", "Medications"),
		DevicesTable:     getenv("DEVICES_TABLE", "Devices"),
		SNSFCMArn:        os.Getenv("SNS_FCM_ARN"),

		GoogleClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
		OAuthRedirectURL: getenv("OAUTH_REDIRECT_URL", "http://localhost:8080/connected"),
		FitnessBaseURL:   getenv("FITNESS_BASE_URL", "https://www.googleapis.com"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
