// Package renderingtest provides a recording rendering.GPU for tests that
// cannot open a GL context.
package renderingtest

import (
	"fmt"
	"sync"

	"github.com/fosdem/quadplayer/lib/encdec"
	"github.com/fosdem/quadplayer/lib/rendering"
	"github.com/fosdem/quadplayer/lib/utils"
)

type resource struct {
	kind string
	id   uint32
}

func (r resource) String() string {
	return fmt.Sprintf("%s:%d", r.kind, r.id)
}

// FakeGPU records every call and tracks object lifetimes so tests can
// assert on leaks, double frees and use after free.
type FakeGPU struct {
	mu sync.Mutex

	// FailCompile makes compilation of the given stages fail
	FailCompile map[rendering.ShaderStage]bool
	FailLink    bool

	nextID  uint32
	live    map[resource]bool
	deletes map[resource]int

	shaderStages map[uint32]rendering.ShaderStage
	compiled     map[uint32]bool
	attached     map[uint32][]uint32

	// latched frame id per texture
	textureFrame map[uint32]uint64

	boundTexture uint32
	program      uint32

	Uploads     []uint64
	Draws       int
	DrawnFrames []uint64
	Clears      int
	Viewports   [][4]int32
	ClearColour utils.Colour
	Violations  []string
}

var _ rendering.GPU = (*FakeGPU)(nil)

func NewFakeGPU() *FakeGPU {
	return &FakeGPU{
		FailCompile:  make(map[rendering.ShaderStage]bool),
		live:         make(map[resource]bool),
		deletes:      make(map[resource]int),
		shaderStages: make(map[uint32]rendering.ShaderStage),
		compiled:     make(map[uint32]bool),
		attached:     make(map[uint32][]uint32),
		textureFrame: make(map[uint32]uint64),
	}
}

func (f *FakeGPU) create(kind string) uint32 {
	f.nextID++
	f.live[resource{kind, f.nextID}] = true
	return f.nextID
}

func (f *FakeGPU) use(kind string, id uint32, op string) {
	if id == 0 {
		return
	}
	if !f.live[resource{kind, id}] {
		f.Violations = append(f.Violations, fmt.Sprintf("%s on dead %s", op, resource{kind, id}))
	}
}

func (f *FakeGPU) destroy(kind string, id uint32) {
	r := resource{kind, id}
	f.deletes[r]++
	if !f.live[r] {
		f.Violations = append(f.Violations, fmt.Sprintf("delete of dead %s", r))
		return
	}
	delete(f.live, r)
}

func (f *FakeGPU) CreateShader(stage rendering.ShaderStage) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.create("shader")
	f.shaderStages[id] = stage
	return id
}

func (f *FakeGPU) ShaderSource(shader uint32, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("shader", shader, "source")
}

func (f *FakeGPU) CompileShader(shader uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("shader", shader, "compile")
	f.compiled[shader] = !f.FailCompile[f.shaderStages[shader]]
}

func (f *FakeGPU) ShaderCompileStatus(shader uint32) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.compiled[shader] {
		return true, ""
	}
	return false, fmt.Sprintf("0:1(1): error: syntax error in %s shader", f.shaderStages[shader])
}

func (f *FakeGPU) DeleteShader(shader uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroy("shader", shader)
}

func (f *FakeGPU) CreateProgram() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.create("program")
}

func (f *FakeGPU) AttachShader(program uint32, shader uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", program, "attach")
	f.use("shader", shader, "attach")
	f.attached[program] = append(f.attached[program], shader)
}

func (f *FakeGPU) LinkProgram(program uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", program, "link")
}

func (f *FakeGPU) ProgramLinkStatus(program uint32) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailLink {
		return false, "error: fragment shader input not written by vertex shader"
	}
	for _, s := range f.attached[program] {
		if !f.compiled[s] {
			return false, "error: linking with uncompiled shader"
		}
	}
	return true, ""
}

func (f *FakeGPU) UseProgram(program uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", program, "use")
	f.program = program
}

func (f *FakeGPU) DeleteProgram(program uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroy("program", program)
}

func (f *FakeGPU) AttribLocation(program uint32, name string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", program, "attrib location")
	switch name {
	case "position":
		return 0
	case "coordinate":
		return 1
	default:
		return -1
	}
}

func (f *FakeGPU) UniformLocation(program uint32, name string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", program, "uniform location")
	return 2
}

func (f *FakeGPU) Uniform1i(location int32, value int32) {}

func (f *FakeGPU) GenVertexArray() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.create("vao")
}

func (f *FakeGPU) BindVertexArray(vao uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("vao", vao, "bind")
}

func (f *FakeGPU) DeleteVertexArray(vao uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroy("vao", vao)
}

func (f *FakeGPU) GenBuffer(data []float32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.create("buffer")
}

func (f *FakeGPU) DeleteBuffer(buffer uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroy("buffer", buffer)
}

func (f *FakeGPU) VertexAttrib(location uint32, buffer uint32, size int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("buffer", buffer, "vertex attrib")
}

func (f *FakeGPU) GenTexture(info *encdec.FrameInfo) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.create("texture")
}

func (f *FakeGPU) UploadFrame(texture uint32, frame *encdec.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("texture", texture, "upload")
	f.Uploads = append(f.Uploads, frame.ID)
	f.textureFrame[texture] = frame.ID
}

func (f *FakeGPU) ActiveTexture(unit uint32) {}

func (f *FakeGPU) BindTexture(texture uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("texture", texture, "bind")
	f.boundTexture = texture
}

func (f *FakeGPU) DeleteTexture(texture uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroy("texture", texture)
}

func (f *FakeGPU) Viewport(x, y, width, height int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Viewports = append(f.Viewports, [4]int32{x, y, width, height})
}

func (f *FakeGPU) ClearColor(c utils.Colour) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearColour = c
}

func (f *FakeGPU) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clears++
}

func (f *FakeGPU) DrawTriangleStrip(first int32, count int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.use("program", f.program, "draw")
	if count != 4 {
		f.Violations = append(f.Violations, fmt.Sprintf("draw of %d vertices", count))
	}
	f.Draws++
	f.DrawnFrames = append(f.DrawnFrames, f.textureFrame[f.boundTexture])
}

// Snapshot helpers, safe to call while other goroutines use the fake.

func (f *FakeGPU) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Uploads)
}

func (f *FakeGPU) DrawCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Draws
}

func (f *FakeGPU) UploadedIDs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.Uploads...)
}

func (f *FakeGPU) ViolationList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Violations...)
}

// Live returns the number of live objects of the given kind
// ("shader", "program", "buffer", "vao", "texture").
func (f *FakeGPU) Live(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for r := range f.live {
		if r.kind == kind {
			n++
		}
	}
	return n
}

// Deletes returns how often objects of the given kind were deleted
func (f *FakeGPU) Deletes(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for r, c := range f.deletes {
		if r.kind == kind {
			n += c
		}
	}
	return n
}
