// Package server exposes the HTTP surface of the agent services: the shared
// token and health endpoints, the specialist answer endpoint and the
// orchestrator consultation endpoint. All JSON field names are part of the
// public contract.
package server
