package interfaces

import (
	"context"
	"gatebot/internal/models"
)

type MediaFetcherInterface interface {
	Probe(ctx context.Context, url string) (models.MediaInfo, error)
	Fetch(ctx context.Context, url string, capBytes int64) (models.Artifact, error)
}
