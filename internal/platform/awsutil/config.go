// Package awsutil loads AWS SDK configuration and builds the S3 and DynamoDB
// clients used by the document stores.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"propverify/internal/platform/config"
)

// Clients bundles the SDK clients built from one aws.Config.
type Clients struct {
	S3       *s3.Client
	DynamoDB *dynamodb.Client
}

// Load resolves credentials and region from the default chain. A non-empty
// endpoint (e.g. http://localstack:4566) is applied per client in NewClients.
func Load(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsConfig, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsConfig, nil
}

// NewClients builds S3 and DynamoDB clients. With a custom endpoint S3 uses
// path-style addressing, which LocalStack and MinIO expect.
func NewClients(awsConfig aws.Config, endpoint string) Clients {
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	ddbClient := dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return Clients{S3: s3Client, DynamoDB: ddbClient}
}
