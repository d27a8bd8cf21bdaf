package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorReset   = "\x1b[0m"

	customLevelKey = "customlevel"
)

// contextKeys are rendered as a bracketed prefix, in this order, instead of key=value pairs.
var contextKeys = []struct {
	key   string
	short string
}{
	{"component", "C"},
	{"session", "S"},
	{"operation", "O"},
	{"container", "T"},
}

var _bufferPool = buffer.NewPool()

// colorConsoleEncoder renders one human readable line per entry:
//
//	<time> [C:runner][O:logs] [LEVEL] caller: message key=value ...
//
// Fields attached with Logger.With are kept in the embedded MapObjectEncoder.
type colorConsoleEncoder struct {
	*zapcore.MapObjectEncoder
	cfg          zapcore.EncoderConfig
	colors       bool
	loggerOpts   Options
	levelStrings map[Level]string
}

func NewColorConsoleEncoder(cfg zapcore.EncoderConfig, opts Options) zapcore.Encoder {
	return newConsoleEncoder(cfg, opts, true)
}

func NewPlainTextConsoleEncoder(cfg zapcore.EncoderConfig, opts Options) zapcore.Encoder {
	return newConsoleEncoder(cfg, opts, false)
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, opts Options, colors bool) *colorConsoleEncoder {
	if cfg.LineEnding == "" {
		cfg.LineEnding = zapcore.DefaultLineEnding
	}
	return &colorConsoleEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		cfg:              cfg,
		colors:           colors,
		loggerOpts:       opts,
		levelStrings:     cacheLevelStrings(colors),
	}
}

func cacheLevelStrings(color bool) map[Level]string {
	m := make(map[Level]string)
	for _, l := range []Level{DebugLevel, InfoLevel, SuccessLevel, WarnLevel, ErrorLevel, FailLevel, PanicLevel, FatalLevel} {
		str := fmt.Sprintf("[%s]", l.CapitalString())
		if color {
			str = levelToColor(l, str)
		}
		m[l] = str
	}
	return m
}

func (enc *colorConsoleEncoder) Clone() zapcore.Encoder {
	clone := newConsoleEncoder(enc.cfg, enc.loggerOpts, enc.colors)
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (enc *colorConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}

	line := _bufferPool.Get()

	if enc.cfg.TimeKey != "" {
		line.AppendString(ent.Time.Format(enc.loggerOpts.TimestampFormat))
		line.AppendString(" ")
	}

	var prefix strings.Builder
	for _, ck := range contextKeys {
		if v, ok := all.Fields[ck.key]; ok {
			if s := fmt.Sprint(v); s != "" {
				fmt.Fprintf(&prefix, "[%s:%s]", ck.short, s)
			}
			delete(all.Fields, ck.key)
		}
	}
	if prefix.Len() > 0 {
		line.AppendString(prefix.String())
		line.AppendString(" ")
	}

	levelStr := ""
	if v, ok := all.Fields[customLevelKey].(string); ok {
		if l, err := ParseLevel(v); err == nil {
			levelStr = enc.levelStrings[l]
		}
	}
	delete(all.Fields, customLevelKey)
	if levelStr == "" {
		levelStr = fmt.Sprintf("[%s]", strings.ToUpper(ent.Level.String()))
		if enc.colors {
			levelStr = levelToColorZap(ent.Level, levelStr)
		}
	}
	line.AppendString(levelStr)
	line.AppendString(" ")

	if ent.Caller.Defined && enc.cfg.CallerKey != "" {
		line.AppendString(ent.Caller.TrimmedPath())
		line.AppendString(": ")
	}

	line.AppendString(ent.Message)

	keys := make([]string, 0, len(all.Fields))
	for k := range all.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line.AppendString(" ")
		line.AppendString(k)
		line.AppendString("=")
		switch v := all.Fields[k].(type) {
		case string:
			if v == "" || strings.ContainsAny(v, " \t\n\"") {
				fmt.Fprintf(line, "%q", v)
			} else {
				line.AppendString(v)
			}
		default:
			fmt.Fprintf(line, "%v", v)
		}
	}

	if ent.Stack != "" && enc.cfg.StacktraceKey != "" {
		line.AppendString("\n")
		line.AppendString(ent.Stack)
	}
	line.AppendString(enc.cfg.LineEnding)
	return line, nil
}

func levelToColor(level Level, message string) string {
	switch level {
	case DebugLevel:
		return colorMagenta + message + colorReset
	case SuccessLevel:
		return colorGreen + message + colorReset
	case WarnLevel:
		return colorYellow + message + colorReset
	case ErrorLevel, FailLevel, FatalLevel:
		return colorRed + message + colorReset
	case PanicLevel:
		return colorCyan + message + colorReset
	default:
		return message
	}
}

func levelToColorZap(level zapcore.Level, message string) string {
	switch level {
	case zapcore.DebugLevel:
		return colorMagenta + message + colorReset
	case zapcore.WarnLevel:
		return colorYellow + message + colorReset
	case zapcore.ErrorLevel, zapcore.FatalLevel:
		return colorRed + message + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return colorCyan + message + colorReset
	default:
		return message
	}
}
