// Package services implements the business logic behind the HTTP API. It sits
// between the handlers and the feature pipeline so the handlers only decode,
// validate and render.
//
// # Available Services
//
//	- FeatureService: lists organizations, describes their schemas and runs
//	  the feature pipeline on submitted rows
//	- HealthService: reports liveness, version and runtime statistics
//
// # Error Handling
//
// Services return the typed pipeline errors from internal/errors unchanged,
// plus the sentinels in this package. Handlers map both to problem details:
//
//	- ErrOrganizationNotFound for unknown or malformed organization IDs
//	- configuration errors for schemas that fail validation
//	- data format and insufficient data errors for unusable input rows
//
// # Testing
//
// Dependencies are narrow interfaces so tests can substitute testify mocks:
//
//	store := new(MockOrganizationStore)
//	store.On("LoadOrDefault", "plant_a").Return(org, nil)
//	svc := NewFeatureService(store, config.PipelineConfig{}, nil, logger)
package services
