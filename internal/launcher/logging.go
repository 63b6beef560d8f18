package launcher

import (
	"github.com/sirupsen/logrus"
)

// logrusLogger 使用 logrus 实现 Logger 接口。
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger 把 logrus 日志器适配成 Logger，传 nil 时用全局实例。
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{l: l}
}

// Infof 输出普通信息。
func (a logrusLogger) Infof(format string, args ...any) {
	a.l.Infof(format, args...)
}

// Warnf 输出警告信息。
func (a logrusLogger) Warnf(format string, args ...any) {
	a.l.Warnf(format, args...)
}

// Errorf 输出错误信息。
func (a logrusLogger) Errorf(format string, args ...any) {
	a.l.Errorf(format, args...)
}

// defaultLogger 在未传入 Logger 时返回默认实现。
func defaultLogger(l Logger) Logger {
	if l != nil {
		return l
	}
	return NewLogrusLogger(nil)
}
