// Package logger provides structured logging for the API client and its
// collaborators using zerolog.
//
// It supports JSON and console output, per-logger level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "consultctl").WithComponent("httpclient")
//	log.Info("request sent", logger.Fields(logger.FieldMethod, "GET"))
package logger
