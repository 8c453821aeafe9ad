// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Conjunction arming from the prediction service, trajectory transition, websocket snapshot stream
// 0.2.0 - Selection trails, camera fly-to, view modes, Prometheus metrics
// 0.1.0 - Initial release: element-set catalog, SGP4 propagation, terminal orbit view, headless modes
