// Package logging wraps uber/zap with this service's conventions.
//
// Production mode emits JSON on stdout for machine parsing; development
// mode emits a colored console encoding. The package also defines the
// standard field helpers (Session, Workspace, Snapshot) so log lines
// stay queryable by id across every layer.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("session connected", logging.Session(sessID))
package logging
