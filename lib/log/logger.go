package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// LogHandler renders records as a coloured single line:
// time, level, [module], message and the remaining attributes as key=value.
type LogHandler struct {
	subHandler  slog.Handler
	buffer      *bytes.Buffer
	bufferMutex *sync.Mutex
	out         io.Writer
}

const (
	reset = "\033[0m"

	darkGray    = 90
	lightGray   = 37
	cyan        = 36
	lightYellow = 93
	lightRed    = 91
)

func colorize(colorCode int, v string) string {
	return fmt.Sprintf("\033[%sm%s%s", strconv.Itoa(colorCode), v, reset)
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.subHandler.Enabled(ctx, level)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{subHandler: h.subHandler.WithAttrs(attrs), buffer: h.buffer, bufferMutex: h.bufferMutex, out: h.out}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{subHandler: h.subHandler.WithGroup(name), buffer: h.buffer, bufferMutex: h.bufferMutex, out: h.out}
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + " "

	switch r.Level {
	case slog.LevelDebug:
		level = colorize(darkGray, level)
	case slog.LevelInfo:
		level = colorize(cyan, level)
	case slog.LevelWarn:
		level = colorize(lightYellow, level)
	case slog.LevelError:
		level = colorize(lightRed, level)
	}

	attrs, err := h.parseAttributes(ctx, r)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(colorize(lightGray, r.Time.Format("15:04:05.000 ")))
	b.WriteString(level)
	if attrs["module"] != nil {
		b.WriteString(colorize(lightGray, fmt.Sprintf("[%s] ", attrs["module"])))
	}
	b.WriteString(r.Message)

	// the JSON handler adds these itself, they are printed above
	delete(attrs, slog.TimeKey)
	delete(attrs, slog.LevelKey)
	delete(attrs, slog.MessageKey)
	delete(attrs, "module")

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(colorize(darkGray, k+"="))
		b.WriteString(fmt.Sprint(attrs[k]))
	}
	b.WriteString("\n")

	_, err = io.WriteString(h.out, b.String())
	return err
}

func (h *LogHandler) parseAttributes(ctx context.Context, r slog.Record) (map[string]any, error) {
	h.bufferMutex.Lock()
	defer func() {
		h.buffer.Reset()
		h.bufferMutex.Unlock()
	}()
	if err := h.subHandler.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("error when calling inner handler's Handle: %w", err)
	}

	var attrs map[string]any
	err := json.Unmarshal(h.buffer.Bytes(), &attrs)
	if err != nil {
		return nil, fmt.Errorf("error when unmarshaling inner handler's Handle result: %w", err)
	}
	return attrs, nil
}

func NewHandler(out io.Writer, opts *slog.HandlerOptions) *LogHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	b := &bytes.Buffer{}
	return &LogHandler{
		buffer: b,
		subHandler: slog.NewJSONHandler(b, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: opts.ReplaceAttr,
		}),
		bufferMutex: &sync.Mutex{},
		out:         out,
	}
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(s))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Setup installs the coloured handler as the default slog logger.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// Module returns a logger whose records are tagged with the given module
func Module(name string) *slog.Logger {
	return slog.Default().With("module", name)
}
