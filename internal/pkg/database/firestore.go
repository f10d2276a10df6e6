package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/models"
	"google.golang.org/api/option"
)

// FirestoreClient wraps a Cloud Firestore client
type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient creates a Firestore client for the configured project.
// Without a credentials file the default application credentials are used,
// and FIRESTORE_EMULATOR_HOST redirects the client to an emulator.
func NewFirestoreClient(ctx context.Context, config models.FirestoreConfig) (*FirestoreClient, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, config.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("Firestore client initialized",
		logger.String("project_id", config.ProjectID),
		logger.Bool("credentials_file", config.CredentialsFile != ""))

	return &FirestoreClient{client: client}, nil
}

// GetClient returns the underlying Firestore client
func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}

// Close closes the Firestore client
func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}
