// Package logzap adapts a zap logger to the cachalot Logger port.
package logzap

import (
	"go.uber.org/zap"

	"github.com/Tinkoff/cachalot"
)

type Logger struct{ L *zap.Logger }

var _ cachalot.Logger = Logger{}

func (z Logger) Debug(msg string, f cachalot.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f cachalot.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f cachalot.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f cachalot.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f cachalot.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}
