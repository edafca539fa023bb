// Package config loads the application settings from a YAML file. Fields
// left out of the file keep their defaults, so partial files are safe.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/quiz"
	"github.com/ayusman/fingerspell/internal/smoothing"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// maxFileSize bounds the config file read.
const maxFileSize = 1 << 20

// Config is the full settings tree.
type Config struct {
	Quiz      QuizConfig      `yaml:"quiz"`
	Letters   LettersConfig   `yaml:"letters"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Animation AnimationConfig `yaml:"animation"`
	Capture   CaptureConfig   `yaml:"capture"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
}

type QuizConfig struct {
	WindowCapacity int     `yaml:"window_capacity"`
	PassThreshold  float64 `yaml:"pass_threshold"`
}

type LettersConfig struct {
	Touching float64 `yaml:"touching"`
	Close    float64 `yaml:"close"`
}

type SmoothingConfig struct {
	Factor       float64 `yaml:"factor"`
	HistoryDepth int     `yaml:"history_depth"`
}

type AnimationConfig struct {
	Style            animation.Style `yaml:"style"`
	SequentialIdle   float64         `yaml:"sequential_idle"`
	InterpolatedIdle float64         `yaml:"interpolated_idle"`
	Speed            float64         `yaml:"speed"`
	Handedness       string          `yaml:"handedness"`
	Clips            string          `yaml:"clips"` // manifest path; empty uses the embedded set
	TickInterval     time.Duration   `yaml:"tick_interval"`
}

type CaptureConfig struct {
	CameraID        int           `yaml:"camera_id"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	IdleFPS         int           `yaml:"idle_fps"`
	ActiveFPS       int           `yaml:"active_fps"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MotionThreshold float64       `yaml:"motion_threshold"`
}

type PipelineConfig struct {
	// MaxInFlight is the number of detections allowed to run at once;
	// frames arriving while all slots are taken are dropped.
	MaxInFlight   int     `yaml:"max_in_flight"`
	MinConfidence float64 `yaml:"min_confidence"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns every setting at its default.
func Default() Config {
	q := quiz.DefaultConfig()
	th := letter.DefaultThresholds()
	sm := smoothing.DefaultConfig()
	an := animation.DefaultConfig()
	cp := capture.DefaultConfig()
	return Config{
		Quiz:    QuizConfig{WindowCapacity: q.WindowCapacity, PassThreshold: q.PassThreshold},
		Letters: LettersConfig{Touching: th.Touching, Close: th.Close},
		Smoothing: SmoothingConfig{
			Factor:       sm.Factor,
			HistoryDepth: sm.HistoryDepth,
		},
		Animation: AnimationConfig{
			Style:            an.Style,
			SequentialIdle:   an.SequentialIdle,
			InterpolatedIdle: an.InterpolatedIdle,
			Speed:            an.Speed,
			Handedness:       animation.Right,
			TickInterval:     an.TickInterval,
		},
		Capture: CaptureConfig{
			CameraID:        cp.DeviceID,
			Width:           cp.Width,
			Height:          cp.Height,
			IdleFPS:         cp.IdleFPS,
			ActiveFPS:       cp.ActiveFPS,
			IdleTimeout:     cp.IdleTimeout,
			MotionThreshold: cp.MotionThreshold,
		},
		Pipeline: PipelineConfig{MaxInFlight: 3, MinConfidence: detector.DefaultConfig().MinConfidence},
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Store:    StoreConfig{Path: defaultStorePath()},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fingerspell.db"
	}
	return filepath.Join(dir, "fingerspell", "fingerspell.db")
}

// Load overlays the YAML file at path onto the defaults and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return cfg, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML data onto the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	switch {
	case c.Quiz.WindowCapacity < 1:
		return invalid("quiz.window_capacity must be at least 1, got %d", c.Quiz.WindowCapacity)
	case c.Quiz.PassThreshold < 0 || c.Quiz.PassThreshold > 1:
		return invalid("quiz.pass_threshold must be within [0, 1], got %v", c.Quiz.PassThreshold)
	case c.Letters.Touching <= 0:
		return invalid("letters.touching must be positive, got %v", c.Letters.Touching)
	case c.Letters.Close < c.Letters.Touching:
		return invalid("letters.close (%v) must not be below letters.touching (%v)", c.Letters.Close, c.Letters.Touching)
	case c.Smoothing.Factor < 0 || c.Smoothing.Factor >= 1:
		return invalid("smoothing.factor must be within [0, 1), got %v", c.Smoothing.Factor)
	case c.Smoothing.HistoryDepth < 1:
		return invalid("smoothing.history_depth must be at least 1, got %d", c.Smoothing.HistoryDepth)
	case c.Animation.Style != animation.Sequential && c.Animation.Style != animation.Interpolated:
		return invalid("animation.style must be %q or %q, got %q", animation.Sequential, animation.Interpolated, c.Animation.Style)
	case c.Animation.SequentialIdle < 0 || c.Animation.InterpolatedIdle < 0:
		return invalid("animation idle periods must not be negative")
	case c.Animation.Speed <= 0:
		return invalid("animation.speed must be positive, got %v", c.Animation.Speed)
	case c.Animation.TickInterval <= 0:
		return invalid("animation.tick_interval must be positive, got %v", c.Animation.TickInterval)
	case !strings.EqualFold(c.Animation.Handedness, animation.Left) && !strings.EqualFold(c.Animation.Handedness, animation.Right):
		return invalid("animation.handedness must be %q or %q, got %q", animation.Left, animation.Right, c.Animation.Handedness)
	case c.Capture.IdleFPS <= 0 || c.Capture.ActiveFPS <= 0:
		return invalid("capture rates must be positive")
	case c.Capture.MotionThreshold <= 0 || c.Capture.MotionThreshold > 100:
		return invalid("capture.motion_threshold must be within (0, 100], got %v", c.Capture.MotionThreshold)
	case c.Pipeline.MaxInFlight < 1:
		return invalid("pipeline.max_in_flight must be at least 1, got %d", c.Pipeline.MaxInFlight)
	case c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1:
		return invalid("pipeline.min_confidence must be within [0, 1], got %v", c.Pipeline.MinConfidence)
	case c.Server.Addr == "":
		return invalid("server.addr is required")
	case c.Store.Path == "":
		return invalid("store.path is required")
	}
	return nil
}

// QuizSession returns the quiz session parameters.
func (c Config) QuizSession() quiz.Config {
	return quiz.Config{WindowCapacity: c.Quiz.WindowCapacity, PassThreshold: c.Quiz.PassThreshold}
}

// Thresholds returns the two-hand classifier ratios.
func (c Config) Thresholds() letter.Thresholds {
	return letter.Thresholds{Touching: c.Letters.Touching, Close: c.Letters.Close}
}

// Smoother returns the smoothing parameters.
func (c Config) Smoother() smoothing.Config {
	return smoothing.Config{Factor: c.Smoothing.Factor, HistoryDepth: c.Smoothing.HistoryDepth}
}

// Scheduler returns the animation scheduler parameters.
func (c Config) Scheduler() animation.Config {
	an := animation.DefaultConfig()
	an.Style = c.Animation.Style
	an.SequentialIdle = c.Animation.SequentialIdle
	an.InterpolatedIdle = c.Animation.InterpolatedIdle
	an.Speed = c.Animation.Speed
	an.TickInterval = c.Animation.TickInterval
	return an
}

// Camera returns the capture parameters.
func (c Config) Camera() capture.Config {
	return capture.Config{
		DeviceID:        c.Capture.CameraID,
		Width:           c.Capture.Width,
		Height:          c.Capture.Height,
		IdleFPS:         c.Capture.IdleFPS,
		ActiveFPS:       c.Capture.ActiveFPS,
		IdleTimeout:     c.Capture.IdleTimeout,
		MotionThreshold: c.Capture.MotionThreshold,
	}
}

// Detector returns the hand detector parameters.
func (c Config) Detector() detector.Config {
	d := detector.DefaultConfig()
	d.MinConfidence = c.Pipeline.MinConfidence
	return d
}
