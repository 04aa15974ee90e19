// Package app wires configuration, logging, telemetry, services and the HTTP
// router into a runnable server.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, RADIOMICS_* environment)
//  2. Initialize logging and OpenTelemetry
//  3. Create the download store, reshaper and services
//  4. Build the chi router and its middleware chain
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// The download janitor runs for the lifetime of Serve and stops before the
// server shuts down. Initialization errors are returned; the package never
// calls os.Exit.
package app
