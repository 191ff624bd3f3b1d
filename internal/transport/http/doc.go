// Package http implements the HTTP handlers of the feature service. Handlers
// stay thin: they decode and validate the request, call the service layer and
// render the result.
//
// # Routes
//
//	GET  /healthz                                   liveness and runtime stats
//	GET  /readyz                                    directory readiness
//	GET  /api/v1/version                            build information
//	GET  /api/v1/industries                         industry templates
//	GET  /api/v1/organizations                      stored organizations
//	POST /api/v1/organizations                      create from a template
//	GET  /api/v1/organizations/{org}/schema         configuration and feature names
//	POST /api/v1/organizations/{org}/features       run the pipeline on JSON rows
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/features/data-format",
//	    "title": "Invalid Data Format",
//	    "status": 422,
//	    "detail": "row 3: cannot parse timestamp \"yesterday\"",
//	    "instance": "/api/v1/organizations/plant_a/features",
//	    "column": "timestamp",
//	    "trace_id": "5f0c..."
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// FeatureServiceInterface.
package http
