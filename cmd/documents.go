package main

import (
	"errors"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/api"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/documents"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LOCAL uploads outlive their session by a little so a submitted retailer's
// documents can still be looked at.
const localDocumentTTL = 24 * time.Hour

func createDocumentStore(awsCfg aws.Config, cfg Config, env api.Environment) (documents.Store, error) {
	if env == api.LOCAL {
		return documents.NewMemoryStore(localDocumentTTL), nil
	}

	if cfg.DocumentsBucket == "" {
		return nil, errors.New("DOCUMENTS_BUCKET must be set")
	}

	return documents.NewS3Store(s3.NewFromConfig(awsCfg), cfg.DocumentsBucket, cfg.DocumentsPrefix), nil
}
