package http

import (
	"context"
	"os"

	"radiomics/internal/services"
	api "radiomics/pkg/contracts/api/v1"
)

// TransformServiceInterface defines the transform operations used by handlers
type TransformServiceInterface interface {
	Transform(ctx context.Context, up services.Upload) (*services.TransformResult, error)
	Vocabulary() api.VocabularyResponse
}

// DownloadStore opens stored transform outputs by id.
type DownloadStore interface {
	Open(id string) (*os.File, os.FileInfo, error)
}

// HealthServiceInterface defines the health operations used by handlers
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
