package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/fingerspell/internal/animation"
	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/letter"
	"github.com/ayusman/fingerspell/internal/quiz"
	"github.com/ayusman/fingerspell/internal/smoothing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, quiz.Config{WindowCapacity: 20, PassThreshold: 0.5}, cfg.QuizSession())
	assert.Equal(t, letter.Thresholds{Touching: 0.35, Close: 0.5}, cfg.Thresholds())
	assert.Equal(t, smoothing.Config{Factor: 0.4, HistoryDepth: 8}, cfg.Smoother())
	assert.Equal(t, 3, cfg.Pipeline.MaxInFlight)
	assert.Equal(t, animation.Right, cfg.Animation.Handedness)

	if diff := cmp.Diff(animation.DefaultConfig(), cfg.Scheduler()); diff != "" {
		t.Errorf("Scheduler() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(capture.DefaultConfig(), cfg.Camera()); diff != "" {
		t.Errorf("Camera() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.5, cfg.Detector().MinConfidence)
}

func TestParse_Overlay(t *testing.T) {
	cfg, err := Parse([]byte(`
quiz:
  pass_threshold: 0.7
animation:
  style: interpolated
  speed: 1.5
  handedness: left
  tick_interval: 20ms
capture:
  idle_timeout: 3s
server:
  addr: ":9090"
`))
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Quiz.PassThreshold)
	assert.Equal(t, 20, cfg.Quiz.WindowCapacity, "unset fields keep defaults")
	assert.Equal(t, animation.Interpolated, cfg.Scheduler().Style)
	assert.Equal(t, 0.45, cfg.Scheduler().Idle())
	assert.Equal(t, 1.5, cfg.Scheduler().Speed)
	assert.Equal(t, 20*time.Millisecond, cfg.Scheduler().TickInterval)
	assert.Equal(t, 3*time.Second, cfg.Camera().IdleTimeout)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 0.35, cfg.Letters.Touching)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"window", "quiz: {window_capacity: 0}", "window_capacity"},
		{"threshold", "quiz: {pass_threshold: 1.5}", "pass_threshold"},
		{"close below touching", "letters: {touching: 0.6, close: 0.5}", "letters.close"},
		{"factor", "smoothing: {factor: 1}", "smoothing.factor"},
		{"depth", "smoothing: {history_depth: 0}", "history_depth"},
		{"style", "animation: {style: bouncy}", "animation.style"},
		{"idle", "animation: {interpolated_idle: -1}", "idle"},
		{"speed", "animation: {speed: 0}", "animation.speed"},
		{"handedness", "animation: {handedness: both}", "handedness"},
		{"fps", "capture: {active_fps: 0}", "capture rates"},
		{"motion", "capture: {motion_threshold: 120}", "motion_threshold"},
		{"in flight", "pipeline: {max_in_flight: 0}", "max_in_flight"},
		{"addr", "server: {addr: ''}", "server.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Parse([]byte("quiz: [not, a, map]"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fingerspell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("smoothing:\n  factor: 0.2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Smoother().Factor)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	big := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(big, []byte("#"+strings.Repeat("x", maxFileSize)), 0o644))
	_, err = Load(big)
	assert.ErrorContains(t, err, "too large")
}
