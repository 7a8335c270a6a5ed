package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/log"
	"github.com/fosdem/quadplayer/lib/utils"
	yaml "github.com/goccy/go-yaml"
)

type Config struct {
	Video       VideoCfg
	Decoder     *DecoderCfg
	Frames      encdec.FrameCfg
	Window      WindowCfg
	ClearColour string `yaml:"clear_colour"`
	LogLevel    string `yaml:"log_level"`
	Api         *ApiCfg
}

func (c *Config) setDefaults() {
	if c.Decoder == nil {
		c.Decoder = &DecoderCfg{
			DecoderCfgStub: DecoderCfgStub{Type: "gstreamer"},
			Cfg:            &GStreamerDecoderCfg{},
		}
	}
	if c.Window.Title == "" {
		c.Window.Title = "quadplayer"
	}
	if c.Window.Width == 0 && c.Window.Height == 0 {
		c.Window.Width = 1280
		c.Window.Height = 720
	}
	if c.ClearColour == "" {
		c.ClearColour = "#000000ff"
	}
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", filename, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("somehow, %s is malformed: %w", filename, err)
	}
	UnmarshalBase = filepath.Dir(absFilename)

	m := yaml.NewDecoder(f)
	cfg := &Config{}
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults()
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, err
}

func (c *Config) Validate() error {
	err := c.Video.Validate()
	if err != nil {
		return fmt.Errorf("video is invalid: %w", err)
	}
	if c.Decoder == nil {
		return fmt.Errorf("decoder must be specified")
	}
	err = c.Decoder.Validate()
	if err != nil {
		return fmt.Errorf("decoder %s is invalid: %w", c.Decoder.Type, err)
	}
	err = c.Frames.Validate()
	if err != nil {
		return fmt.Errorf("invalid frame config: %w", err)
	}
	err = c.Window.Validate()
	if err != nil {
		return fmt.Errorf("window is invalid: %w", err)
	}
	if !utils.ColourValidate(c.ClearColour) {
		return fmt.Errorf("%s is not a valid RGBA hex colour", c.ClearColour)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Api != nil {
		err = c.Api.Validate()
		if err != nil {
			return fmt.Errorf("api is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Video:\n")
	b.WriteString(fmt.Sprintf("  %s", c.Video.Path))
	if c.Video.ReloadOnChange {
		b.WriteString(" (reloaded on change)")
	}
	b.WriteString("\n")

	b.WriteString("\nDecoder:\n")
	b.WriteString(fmt.Sprintf("  %s\n", c.Decoder.Type))

	b.WriteString("\nFrames:\n")
	b.WriteString(fmt.Sprintf("  %dx%d, %d allocated\n", c.Frames.Width, c.Frames.Height, c.Frames.NumAllocatedFrames))

	b.WriteString("\nWindow:\n")
	b.WriteString(fmt.Sprintf("  %q %dx%d vsync=%t\n", c.Window.Title, c.Window.Width, c.Window.Height, c.Window.VSyncEnabled()))

	if c.Api != nil {
		b.WriteString("\nApi:\n")
		b.WriteString(fmt.Sprintf("  %s\n", c.Api.Bind))
	}

	return b.String()
}

type Valid interface {
	Validate() error
}

type VideoCfg struct {
	Path           CfgPath
	ReloadOnChange bool `yaml:"reload_on_change"`
}

type DecoderCfgStub struct {
	Type string
}

type DecoderCfg struct {
	DecoderCfgStub
	Cfg Valid
}

type GStreamerDecoderCfg struct {
}

type FFmpegDecoderCfg struct {
	Binary string
}

type LibavDecoderCfg struct {
	DecoderCodec string `yaml:"decoder_codec"`
	InputFormat  string `yaml:"input_format"`
}

type WindowCfg struct {
	Title  string
	Width  int
	Height int
	VSync  *bool `yaml:"vsync"`
}

func (w *WindowCfg) VSyncEnabled() bool {
	return w.VSync == nil || *w.VSync
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}

func (d *DecoderCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &d.DecoderCfgStub)
	if err != nil {
		return err
	}

	switch d.Type {
	case "gstreamer":
		cfg := GStreamerDecoderCfg{}
		d.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "ffmpeg":
		cfg := FFmpegDecoderCfg{}
		d.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "libav":
		cfg := LibavDecoderCfg{}
		d.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	default:
		return fmt.Errorf("unknown decoder type: %s", d.Type)
	}
}

func (v *VideoCfg) Validate() error {
	if v.Path == "" {
		return fmt.Errorf("path must be specified")
	}
	return nil
}

func (d *DecoderCfg) Validate() error {
	if d.Cfg == nil {
		return fmt.Errorf("no options for decoder type %q", d.Type)
	}
	return d.Cfg.Validate()
}

func (g *GStreamerDecoderCfg) Validate() error {
	return nil
}

func (f *FFmpegDecoderCfg) Validate() error {
	if strings.ContainsAny(f.Binary, " \t\n") {
		return fmt.Errorf("binary must be a single executable, not a command line")
	}
	return nil
}

func (l *LibavDecoderCfg) Validate() error {
	return nil
}

func (w *WindowCfg) Validate() error {
	if w.Width < 1 || w.Height < 1 {
		return fmt.Errorf("window size must be at least 1x1")
	}
	return nil
}

func (a *ApiCfg) Validate() error {
	if a.Bind == "" {
		return fmt.Errorf("bind address must be specified")
	}
	return nil
}
