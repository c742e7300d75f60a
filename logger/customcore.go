package logger

import (
	"go.uber.org/zap/zapcore"
)

// customCore moves the application and version fields to the end of every entry so the
// event specific fields are read first.
type customCore struct {
	zapcore.Core
}

// trailingKeys are written last, in this order.
var trailingKeys = []string{"application", "version"}

// With adds structured context to the Core.
func (c *customCore) With(fields []zapcore.Field) zapcore.Core {
	return &customCore{c.Core.With(reorderFields(fields))}
}

// Check determines whether the supplied Entry should be logged. The wrapper must add
// itself so that Write goes through the reordering.
func (c *customCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, c)
	}
	return checkedEntry
}

// Write serializes the Entry and any Fields supplied at the log site and writes them to their destination.
func (c *customCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, reorderFields(fields))
}

// Sync flushes buffered logs (if any).
func (c *customCore) Sync() error {
	return c.Core.Sync()
}

func reorderFields(fields []zapcore.Field) []zapcore.Field {
	reordered := make([]zapcore.Field, 0, len(fields))
	trailing := make([]zapcore.Field, 0, len(trailingKeys))
	for _, field := range fields {
		if isTrailingKey(field.Key) {
			trailing = append(trailing, field)
			continue
		}
		reordered = append(reordered, field)
	}
	for _, key := range trailingKeys {
		for _, field := range trailing {
			if field.Key == key {
				reordered = append(reordered, field)
			}
		}
	}
	return reordered
}

func isTrailingKey(key string) bool {
	for _, k := range trailingKeys {
		if k == key {
			return true
		}
	}
	return false
}
