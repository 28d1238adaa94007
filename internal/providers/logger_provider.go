package providers

import (
	"fmt"
	"gatebot/internal/structures"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeGet
	TypePost
	TypeBot
	TypeScheduler
	TypeStore
)

var logFileNames = map[TypeEnum]string{
	TypeApp:       "app.log",
	TypeGet:       "get.log",
	TypePost:      "post.log",
	TypeBot:       "bot.log",
	TypeScheduler: "scheduler.log",
	TypeStore:     "store.log",
}

type Logger interface {
	Errorf(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

type LogProvider struct {
	loggers map[TypeEnum]zerolog.Logger
	files   []*os.File
}

func GetLogTypeByRequestType(method string) TypeEnum {
	if method == http.MethodPost {
		return TypePost
	}
	return TypeGet
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	lp := &LogProvider{loggers: make(map[TypeEnum]zerolog.Logger, len(logFileNames))}
	for t, name := range logFileNames {
		path := filepath.Join(conf.Logger.Dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, os.FileMode(conf.Logger.Mode))
		if err != nil {
			lp.Close()
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		lp.files = append(lp.files, f)

		var w io.Writer = f
		if conf.Debug {
			w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stdout})
		}
		lp.loggers[t] = zerolog.New(w).Level(level).With().Timestamp().Str("channel", name).Logger()
	}
	return lp, nil
}

func (l *LogProvider) get(t TypeEnum) *zerolog.Logger {
	lg, ok := l.loggers[t]
	if !ok {
		lg = l.loggers[TypeApp]
	}
	return &lg
}

func (l *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.get(t).Error().Msgf(format, args...)
}

func (l *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.get(t).Warn().Msgf(format, args...)
}

func (l *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.get(t).Debug().Msgf(format, args...)
}

func (l *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l.get(t).Info().Msgf(format, args...)
}

func (l *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l.get(t).Fatal().Msgf(format, args...)
}

func (l *LogProvider) Close() {
	for _, f := range l.files {
		_ = f.Sync()
		_ = f.Close()
	}
	l.files = nil
}
