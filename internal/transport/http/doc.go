// Package http contains the HTTP handlers for the scanner API: gain queries,
// merge operations, report downloads, health checks and the websocket
// upgrade. Handlers speak JSON on success and RFC 7807 problem documents on
// failure.
package http
