// Package observability builds the service logger and the request logging middleware.
package observability
