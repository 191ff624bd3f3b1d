// Package app wires the feature service together: configuration, logging,
// OpenTelemetry, the organization store, services, middleware and the HTTP
// server.
//
// # Initialization Flow
//
//	1. Resolve and create the configured directories
//	2. Initialize OpenTelemetry providers
//	3. Create the organization store and services
//	4. Build the chi router and middleware chain
//	5. Configure the HTTP server
//
// # Usage
//
//	cfg, err := config.Load("")
//	app, err := app.NewApplication(cfg, logger)
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then drains in-flight requests
// within the configured shutdown timeout. The package never calls os.Exit.
package app
