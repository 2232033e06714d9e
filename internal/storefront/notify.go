package storefront

import (
	"errors"

	"go.uber.org/zap"
)

type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Title   string
	Message string
	Variant Variant
}

type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	if n.Variant == VariantError {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Info("notification", fields...)
}

func notifySuccess(n Notifier, title, message string) {
	n.Notify(Notification{Title: title, Message: message, Variant: VariantSuccess})
}

func notifyError(n Notifier, title string, err error) {
	n.Notify(Notification{Title: title, Message: errorMessage(err), Variant: VariantError})
}

// errorMessage prefers the server supplied message when there is one.
func errorMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
