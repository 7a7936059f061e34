// Package logger re-exports the shared goLogger module so internal packages
// keep a stable import path.
package logger

import (
	pkglogger "github.com/Bparsons0904/goLogger"
)

type (
	Logger = pkglogger.Logger
	Config = pkglogger.Config
)

var (
	New           = pkglogger.New
	NewWithConfig = pkglogger.NewWithConfig
)
