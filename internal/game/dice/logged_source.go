package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
	label  string
}

// NewLoggedSource creates a Source that draws from src and logs each value to logger
// tagged with label.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger, label string) *LoggedSource {
	if src == nil || logger == nil {
		panic("dice.NewLoggedSource: src and logger must be non-nil")
	}
	return &LoggedSource{src: src, logger: logger, label: label}
}

// Intn draws from the wrapped source and logs the result.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw",
		zap.String("source", l.label),
		zap.Int("n", n),
		zap.Int("value", v),
	)
	return v
}

// Float64 draws from the wrapped source and logs the result.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("random draw",
		zap.String("source", l.label),
		zap.Float64("value", v),
	)
	return v
}
