package main

import (
	"context"
	"fmt"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/api"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/dynamo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

func loadAWSConfig(ctx context.Context, env api.Environment) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if env == api.LOCAL {
		opts = append(opts,
			config.WithRegion("localhost"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to get aws config: %w", err)
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions)

	return cfg, nil
}

func createDB(awsCfg aws.Config, cfg Config, env api.Environment) *dynamo.DB {
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if env == api.LOCAL {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	return dynamo.NewDB(client, cfg.TableName)
}
