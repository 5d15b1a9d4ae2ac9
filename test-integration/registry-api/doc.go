// Package integration provides integration tests for the component registry server.
// They start the full application on a loopback port against a catalog on
// disk and exercise every route over HTTP.
package integration
