package animation

// Renderer is the scene the scheduler drives. It shows one visible hand
// model and, during interpolated transitions, one invisible ghost used to
// sample the next clip's first frame. Calls come from the scheduler's
// goroutine only.
type Renderer interface {
	// Play starts clip index on the visible model at offset seconds,
	// cross-fading over blendIn seconds. It replaces whatever was playing.
	Play(index int, clip Clip, offset, blendIn float64)
	Pause()
	Resume()
	StopAll()

	// Playing returns the clip on the visible model, or -1 before the first
	// Play, and whether it is running (started and not paused).
	Playing() (index int, running bool)

	SetSpeed(speed float64)

	SpawnGhost(index int, clip Clip)
	GhostStarted() bool
	RemoveGhost()

	// Morph moves the visible model's pose to target over duration seconds.
	Morph(target Pose, duration float64)
}
