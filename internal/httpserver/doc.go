// Package httpserver runs the preview server used by the serve command: the
// output directory as static files plus health, report and metrics
// endpoints.
package httpserver
