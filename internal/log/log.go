package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var std = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "action",
		},
	})
	return l
}

// Options configures the process-wide logger.
type Options struct {
	Level string
	// File, when set, receives a copy of every entry and is rotated by size.
	File string
}

func Init(opts Options) {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	std.SetOutput(out)
	if lvl, err := logrus.ParseLevel(opts.Level); err == nil {
		std.SetLevel(lvl)
	}
}

// SetOutput redirects the logger and returns a func restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	prev := std.Out
	std.SetOutput(w)
	return func() { std.SetOutput(prev) }
}

// Logger exposes the underlying logger for code running outside a request.
func Logger() *logrus.Logger { return std }

func entry(c *fiber.Ctx, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(std)
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	if c != nil {
		e = e.WithFields(logrus.Fields{
			"ip":     c.IP(),
			"method": c.Method(),
			"path":   c.Path(),
			"status": c.Response().StatusCode(),
		})
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e = e.WithField("req_id", rid)
		}
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			e = e.WithField("user_id", uid)
		}
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).WithField("kind", "info").Info(action)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).WithField("kind", "audit").Info(action)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).WithField("kind", "security").Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry(c, fields).WithField("kind", "error")
	if err != nil {
		e = e.WithField("err", err.Error())
	}
	e.Error(action)
}
