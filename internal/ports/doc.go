// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Transport]: Delivers one serialized batch to the ingestion endpoint
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [Logger]: Structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (net/http, zerolog, etc.).
package ports
