// Package routes maps HTTP paths onto the controllers.
//
//   - api.go: /v1 endpoints and health probes
//   - web.go: service index and endpoint listing
//
// Usage:
//
//	routes.SetupAllRoutes(router, dedupeController, adminController)
package routes
