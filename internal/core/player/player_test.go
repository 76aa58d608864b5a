package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/vrkit/internal/core/input"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/spatial"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func diffVec(t *testing.T, want, got physics.Vec3, what string) {
	t.Helper()
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("%s (-want +got):\n%s", what, diff)
	}
}

type fixture struct {
	origin, vr, flat *scene.Node
	vrHead, flatHead *scene.Node
	listener         *scene.Node
	hands            []*interaction.Hand
	player           *Player
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{origin: scene.NewNode("origin")}
	f.vr = scene.NewChild(f.origin, "vr", physics.Zero)
	f.flat = scene.NewChild(f.origin, "2d", physics.Zero)
	f.vrHead = scene.NewChild(f.vr, "hmd", physics.Vec3{0.5, 1.7, 0.25})
	f.flatHead = scene.NewChild(f.flat, "camera", physics.Vec3{0, 1.2, 0})
	f.listener = scene.NewNode("listener")

	grid := spatial.NewGrid[interaction.Interactable](0)
	for _, spec := range []struct {
		parent *scene.Node
		name   string
	}{{f.vr, "left"}, {f.vr, "right"}, {f.flat, "mouse"}} {
		h, err := interaction.NewHand(scene.NewChild(spec.parent, spec.name, physics.Zero), grid, interaction.DefaultConfig())
		require.NoError(t, err)
		f.hands = append(f.hands, h)
	}

	p, err := New(Rig{
		Origin:        f.origin,
		HMDs:          []*scene.Node{f.vrHead, f.flatHead},
		Hands:         f.hands,
		VR:            f.vr,
		Fallback:      f.flat,
		AudioListener: f.listener,
	}, nil)
	require.NoError(t, err)
	f.player = p
	return f
}

func TestNewRequiresOrigin(t *testing.T) {
	_, err := New(Rig{}, nil)
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestActivateRigCountsActiveHands(t *testing.T) {
	f := newFixture(t)
	p := f.player

	p.ActivateRig(true)
	assert.Equal(t, 2, p.HandCount())
	assert.Same(t, f.hands[1], p.Hand(1))
	assert.Nil(t, p.Hand(2))
	assert.Same(t, f.vrHead, p.HMD())
	assert.Same(t, f.vrHead, f.listener.Parent())
	assert.Equal(t, physics.Zero, f.listener.LocalPosition())

	p.ActivateRig(false)
	assert.Equal(t, 1, p.HandCount())
	assert.Same(t, f.hands[2], p.Hand(0))
	assert.Same(t, f.flatHead, p.HMD())
	assert.Same(t, f.flatHead, f.listener.Parent())
}

func TestHMDNilWhenNoneActive(t *testing.T) {
	f := newFixture(t)
	f.vr.SetActive(false)
	f.flat.SetActive(false)
	assert.Nil(t, f.player.HMD())
	assert.Zero(t, f.player.EyeHeight())
	assert.Equal(t, f.origin.Position(), f.player.FeetPositionGuess())
	diffVec(t, physics.Forward, f.player.BodyDirectionGuess(), "body direction")
}

func TestBodyGuesses(t *testing.T) {
	f := newFixture(t)
	f.origin.SetPosition(physics.Vec3{0, 0.5, 0})
	f.player.ActivateRig(true)

	assert.InDelta(t, 1.7, f.player.EyeHeight(), 1e-9)
	diffVec(t, physics.Vec3{0.5, 0.5, 0.25}, f.player.FeetPositionGuess(), "feet")

	// looking down at 45 degrees, still facing forward
	f.vrHead.SetRotation(mgl64.QuatRotate(math.Pi/4, physics.Right))
	dir := f.player.BodyDirectionGuess()
	diffVec(t, physics.Vec3{0, 0, math.Sqrt2 / 2}, dir, "body direction")

	// upside down: forward flips
	f.vrHead.SetRotation(mgl64.QuatRotate(math.Pi, physics.Forward).Mul(mgl64.QuatRotate(-math.Pi/4, physics.Right)))
	assert.Less(t, f.player.BodyDirectionGuess()[2], 0.0)
}

func TestLeftRightHands(t *testing.T) {
	f := newFixture(t)
	f.player.ActivateRig(true)
	// without controllers both hands keep their starting type
	assert.Nil(t, f.player.LeftHand())
	assert.Nil(t, f.player.RightHand())

	cfg := interaction.DefaultConfig()
	cfg.StartingType = interaction.HandLeft
	grid := spatial.NewGrid[interaction.Interactable](0)
	left, err := interaction.NewHand(scene.NewChild(f.vr, "l2", physics.Zero), grid, cfg)
	require.NoError(t, err)
	p, err := New(Rig{Origin: f.origin, Hands: []*interaction.Hand{left}}, nil)
	require.NoError(t, err)
	assert.Same(t, left, p.LeftHand())
}

type cameraRig struct {
	node *scene.Node
	kb   *input.Keyboard
	ptr  *input.Pointer
	cam  *FallbackCamera
}

func newCameraRig() *cameraRig {
	r := &cameraRig{node: scene.NewNode("camera"), kb: input.NewKeyboard(), ptr: input.NewPointer()}
	r.cam = NewFallbackCamera(r.node, r.kb, r.ptr, 720, 360)
	return r
}

func TestFallbackCameraTranslate(t *testing.T) {
	r := newCameraRig()
	r.kb.Update(input.KeyW, input.KeyD)
	r.cam.Update(0.5)
	diffVec(t, physics.Vec3{2, 0, 2}, r.node.Position(), "wasd")

	r.kb.Update(input.KeyE, input.KeyLeftShift)
	r.cam.Update(0.25)
	diffVec(t, physics.Vec3{2, 4, 2}, r.node.Position(), "shift up")

	r.kb.Update(input.KeyUp, input.KeyDown)
	r.cam.Update(1)
	diffVec(t, physics.Vec3{2, 4, 2}, r.node.Position(), "opposite keys cancel")
}

func TestFallbackCameraMovesAlongHeading(t *testing.T) {
	r := newCameraRig()
	r.node.SetRotation(mgl64.QuatRotate(math.Pi/2, physics.Up))
	r.cam = NewFallbackCamera(r.node, r.kb, r.ptr, 720, 360)
	r.kb.Update(input.KeyW)
	r.cam.Update(0.25)
	diffVec(t, physics.Vec3{1, 0, 0}, r.node.Position(), "forward after yaw")
}

func TestFallbackCameraDragRotates(t *testing.T) {
	r := newCameraRig()
	r.ptr.Update(input.PointerState{X: 100, Y: 100, Buttons: [3]bool{input.MouseRight: true}})
	r.cam.Update(0)

	// a quarter screen width right is 90 degrees of yaw
	r.ptr.Update(input.PointerState{X: 280, Y: 100, Buttons: [3]bool{input.MouseRight: true}})
	r.cam.Update(0.05)
	partial := r.node.Forward()
	assert.Greater(t, partial[0], 0.0)
	assert.Less(t, partial[0], 1.0, "eased, not snapped")

	for range 200 {
		r.cam.Update(0.05)
	}
	diffVec(t, physics.Vec3{1, 0, 0}, r.node.Forward(), "converged")

	// released: further mouse motion is ignored
	r.ptr.Update(input.PointerState{X: 0, Y: 0})
	for range 10 {
		r.cam.Update(0.05)
	}
	diffVec(t, physics.Vec3{1, 0, 0}, r.node.Forward(), "released")
}

func TestFallbackCameraAltLeftDragPitches(t *testing.T) {
	r := newCameraRig()
	r.kb.Update(input.KeyLeftAlt)
	r.ptr.Update(input.PointerState{X: 100, Y: 100, Buttons: [3]bool{input.MouseLeft: true}})
	r.cam.Update(0)
	// mouse up by a sixth of the screen height is 60 degrees up
	r.ptr.Update(input.PointerState{X: 100, Y: 160, Buttons: [3]bool{input.MouseLeft: true}})
	r.cam.Update(1)
	assert.InDelta(t, math.Sin(math.Pi/3), r.node.Forward()[1], 1e-9)
}

func TestScreenPointToRay(t *testing.T) {
	r := newCameraRig()
	r.node.SetPosition(physics.Vec3{0, 1, 0})
	ray := r.cam.ScreenPointToRay(360, 180)
	assert.Equal(t, physics.Vec3{0, 1, 0}, ray.Origin)
	diffVec(t, physics.Forward, ray.Direction, "centre pixel")

	top := r.cam.ScreenPointToRay(360, 360)
	assert.InDelta(t, math.Tan(math.Pi/6), top.Direction[1]/top.Direction[2], 1e-9, "half the vertical fov")
}
