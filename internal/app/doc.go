// Package app wires the DealPulse web service together: configuration,
// logging, the workbook store, the deal query and upload services, the
// websocket hub and the chi router, plus graceful startup and shutdown.
package app
