package services

import (
	"errors"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
)

// Feature service errors
var (
	// ErrOrganizationNotFound is the config manager's sentinel, re-exported
	// for handlers.
	ErrOrganizationNotFound = config.ErrOrganizationNotFound

	ErrOrganizationExists = errors.New("organization already exists")
	ErrPipelineTimeout    = errors.New("feature engineering timed out")
)
