package reminders

import (
	"fmt"
	"log/slog"
)

// asynqLogger routes asynq's internal logging through slog, tagged so it
// can be told apart from reminder handler output.
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.With("component", "asynq")}
}

func (a *asynqLogger) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *asynqLogger) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a *asynqLogger) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *asynqLogger) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }

// Fatal is only called by asynq on unrecoverable startup errors.
func (a *asynqLogger) Fatal(args ...interface{}) {
	msg := fmt.Sprint(args...)
	a.logger.Error(msg)
	panic(msg)
}
