package animation

// Broadcaster publishes named events to connected front-ends.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// RenderEvent is the event name carrying renderer commands.
const RenderEvent = "render"

// Command is one renderer instruction sent to the browser front-end.
type Command struct {
	Op       string                `json:"op"`
	Index    int                   `json:"index"`
	Clip     string                `json:"clip,omitempty"` // "directory/file"
	Offset   float64               `json:"offset,omitempty"`
	BlendIn  float64               `json:"blendIn,omitempty"`
	Speed    float64               `json:"speed,omitempty"`
	Duration float64               `json:"duration,omitempty"`
	Target   map[string][4]float64 `json:"target,omitempty"`
}

// CommandRenderer implements Renderer by broadcasting commands. The scene
// itself lives in the front-end; CommandRenderer mirrors just enough state
// to answer Playing and GhostStarted.
type CommandRenderer struct {
	out     Broadcaster
	index   int
	running bool
	ghost   int
}

// NewCommandRenderer creates a renderer that publishes to out.
func NewCommandRenderer(out Broadcaster) *CommandRenderer {
	return &CommandRenderer{out: out, index: -1, ghost: -1}
}

func (r *CommandRenderer) send(c Command) {
	r.out.Broadcast(RenderEvent, c)
}

func clipRef(c Clip) string {
	return c.Directory + "/" + c.File
}

func (r *CommandRenderer) Play(index int, clip Clip, offset, blendIn float64) {
	r.index = index
	r.running = true
	r.send(Command{Op: "play", Index: index, Clip: clipRef(clip), Offset: offset, BlendIn: blendIn})
}

func (r *CommandRenderer) Pause() {
	r.running = false
	r.send(Command{Op: "pause", Index: r.index})
}

func (r *CommandRenderer) Resume() {
	if r.index < 0 {
		return
	}
	r.running = true
	r.send(Command{Op: "resume", Index: r.index})
}

func (r *CommandRenderer) StopAll() {
	r.running = false
	r.index = -1
	r.ghost = -1
	r.send(Command{Op: "stop", Index: -1})
}

func (r *CommandRenderer) Playing() (int, bool) {
	return r.index, r.running
}

func (r *CommandRenderer) SetSpeed(speed float64) {
	r.send(Command{Op: "speed", Index: r.index, Speed: speed})
}

// SpawnGhost asks the front-end to load the next clip invisibly. The ghost
// counts as started from the next tick on.
func (r *CommandRenderer) SpawnGhost(index int, clip Clip) {
	r.ghost = index
	r.send(Command{Op: "ghost", Index: index, Clip: clipRef(clip)})
}

func (r *CommandRenderer) GhostStarted() bool {
	return r.ghost >= 0
}

func (r *CommandRenderer) RemoveGhost() {
	if r.ghost < 0 {
		return
	}
	r.send(Command{Op: "unghost", Index: r.ghost})
	r.ghost = -1
}

func (r *CommandRenderer) Morph(target Pose, duration float64) {
	r.send(Command{Op: "morph", Index: r.index, Duration: duration, Target: target.Array()})
}
