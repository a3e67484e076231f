// Package server hosts the Fiber preview service. It serves the static output
// tier under the configured URL prefix and leaves /-/ to the diagnostics routes
// registered by the routes package. Every response carries an X-Request-ID.
// Keep exports narrow and accept explicit dependencies so the build command and
// tests can construct the app without a running pipeline.
package server
