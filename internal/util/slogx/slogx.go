package slogx

import (
	"context"
	"log/slog"
)

func Err(err error) slog.Attr {
	return slog.String("err", err.Error())
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func Discard() slog.Handler {
	return discardHandler{}
}

func DiscardLogger() *slog.Logger {
	return slog.New(Discard())
}
