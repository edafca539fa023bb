package app

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/monitoring"
)

// result is a detection delivered to the event loop. epoch is the quiz
// epoch when the frame was captured; results from an older epoch are
// discarded.
type result struct {
	outcome detector.Outcome
	epoch   uint64
}

// gradeUpdate is published after every graded frame that did not pass.
type gradeUpdate struct {
	Letter string  `json:"letter"`
	Grade  float64 `json:"grade"`
	Window int     `json:"window"`
	Hands  int     `json:"hands"`
	Seq    uint64  `json:"seq"`
}

// capture samples the camera at the gate's rate and starts a detection
// for every sampled frame while a slot is free.
//
// Pipeline:
//  1. Sample at the idle rate until motion is seen, then at the active rate
//  2. Fall back to the idle rate once the idle timeout passes without motion
//  3. Encode the frame for the preview stream
//  4. Detect hands off-loop, at most MaxInFlight at a time; extra frames drop
//  5. Hand the outcome to the event loop tagged with its sequence number
func (a *App) capture(ctx context.Context) error {
	gate := capture.NewGate(a.config.Camera(), a.clock)
	motion := capture.NewMotionDetector(a.config.Capture.MotionThreshold)
	defer motion.Close()

	a.camera.SetFPS(gate.FPS())
	ticker := a.clock.NewTicker(gate.Interval())
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			monitoring.Logf("Error reading frame: %v", err)
			continue
		}

		moved, _ := motion.Detect(frame)
		if fps, changed := gate.Observe(moved); changed {
			a.camera.SetFPS(fps)
			ticker.Reset(gate.Interval())
			if gate.Active() {
				monitoring.Logf("Switched to active mode (%d fps)", fps)
			} else {
				monitoring.Logf("Switched to idle mode (%d fps)", fps)
			}
		}

		a.publishFrame(frame)

		if !a.enabled.Load() {
			frame.Close()
			continue
		}

		seq := a.seq.Add(1)
		if !a.sem.TryAcquire(1) {
			a.dropped.Add(1)
			frame.Close()
			continue
		}
		epoch := a.epoch.Load()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.sem.Release(1)
			defer frame.Close()
			a.detect(ctx, frame, seq, epoch)
		}()
	}
}

// detect runs the hand detector on frame and forwards the outcome. A failed
// detection is forwarded as an outcome with no hands.
func (a *App) detect(ctx context.Context, frame *gocv.Mat, seq, epoch uint64) {
	o, err := detector.DetectOutcome(a.detector, frame)
	if err != nil {
		monitoring.Logf("Error detecting hands: %v", err)
		o.Hands = nil
	}
	o.Seq = seq

	select {
	case a.results <- result{outcome: o, epoch: epoch}:
	case <-ctx.Done():
	}
}

// loop owns the quiz session and the smoother.
func (a *App) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.cmds:
			fn()
		case r := <-a.results:
			a.apply(r)
		}
	}
}

// apply smooths and grades one detection. Stale and out-of-order results
// are discarded.
func (a *App) apply(r result) {
	if r.epoch != a.epoch.Load() || r.outcome.Seq <= a.lastSeq {
		return
	}
	a.lastSeq = r.outcome.Seq

	smoothed := a.smoother.Push(r.outcome)
	a.latest = smoothed
	if _, advanced := a.session.Receive(smoothed); advanced {
		return
	}
	if !a.session.Accepting() {
		return
	}

	st := a.session.Status()
	if st.Current == "" {
		return
	}
	a.events.Broadcast(GradeEvent, gradeUpdate{
		Letter: st.Current,
		Grade:  st.Grade,
		Window: st.Window,
		Hands:  len(smoothed.Hands),
		Seq:    r.outcome.Seq,
	})
}

// publishFrame stores frame as the latest JPEG for the preview stream.
func (a *App) publishFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		monitoring.Logf("Error encoding frame: %v", err)
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.frameMu.Lock()
	a.frame = data
	a.frameSeq++
	a.frameMu.Unlock()
}

// LatestFrame returns the most recent JPEG-encoded camera frame and a
// counter that changes whenever a new frame is stored.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.frame, a.frameSeq
}
