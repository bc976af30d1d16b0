package logginglevel

import "go.uber.org/zap"

//nolint:gochecknoglobals // shared between the root command's --debug flag and the logger construction
var Level = zap.NewAtomicLevelAt(zap.InfoLevel)
