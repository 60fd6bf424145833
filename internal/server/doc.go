// Package server provides the MCP server context and the operational HTTP
// endpoints of the trestle-mcp application.
//
// # Key Components
//
// ServerContext bundles the shared dependencies of the server: the resolved
// configuration, the session manager owning the bearer-token lifecycle, and
// the authenticated backend client. It also wires both into the
// instrumentation package, translating session lifecycle events and backend
// request outcomes into metrics.
//
// HealthChecker serves Kubernetes-style probes (/healthz, /readyz,
// /healthz/detailed). A missing backend session is reported on the detailed
// endpoint but never fails readiness: the server stays usable and tools
// report the remedial action instead.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, isolating
// operational metrics from MCP traffic.
package server
