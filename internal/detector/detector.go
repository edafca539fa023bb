package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the detected hand skeletons
	// with positions in normalized, bottom-left-origin coordinates.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandSkeleton, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        MaxHands,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// DetectOutcome runs d on frame and packages the result as an Outcome sized
// to the frame. Hands beyond MaxHands are dropped.
func DetectOutcome(d Detector, frame *gocv.Mat) (Outcome, error) {
	out := Outcome{}
	if frame != nil && !frame.Empty() {
		out.Size.Width = float64(frame.Cols())
		out.Size.Height = float64(frame.Rows())
	}

	hands, err := d.Detect(frame)
	if err != nil {
		return out, err
	}
	if len(hands) > MaxHands {
		hands = hands[:MaxHands]
	}
	out.Hands = hands
	return out, nil
}
