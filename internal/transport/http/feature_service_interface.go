package http

import (
	"context"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/services"
)

// FeatureServiceInterface defines the feature operations exposed over HTTP
type FeatureServiceInterface interface {
	ListOrganizations(ctx context.Context) ([]string, error)
	CreateOrganization(ctx context.Context, req services.CreateOrganizationRequest) (*config.Organization, error)
	GetSchema(ctx context.Context, orgID string) (*services.SchemaResponse, error)
	Engineer(ctx context.Context, orgID string, req services.FeatureRequest) (*services.FeatureResponse, error)
}
