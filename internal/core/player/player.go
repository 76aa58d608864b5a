// Package player holds the per-session rig: the tracking origin, the
// head-mounted display, the hands and the desktop fallback.
package player

import (
	"errors"
	"fmt"

	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
	"github.com/zeusync/vrkit/internal/core/systems/physics"
)

var ErrNoOrigin = errors.New("tracking origin is nil")

// Rig lists the nodes a player is assembled from. Only Origin is required.
type Rig struct {
	// Origin is the tracking space; its up axis is the floor normal.
	Origin *scene.Node
	// HMDs are head candidates in priority order, one per rig.
	HMDs  []*scene.Node
	Hands []*interaction.Hand

	VR       *scene.Node
	Fallback *scene.Node
	// AudioListener follows whichever head is active.
	AudioListener *scene.Node
}

// Player is the explicit session context hosts pass around instead of a
// global instance.
type Player struct {
	rig    Rig
	logger log.Log
}

func New(rig Rig, logger log.Log) (*Player, error) {
	if !rig.Origin.Valid() {
		return nil, fmt.Errorf("player: %w", ErrNoOrigin)
	}
	return &Player{rig: rig, logger: log.OrNop(logger).Named("player")}, nil
}

func (p *Player) Origin() *scene.Node { return p.rig.Origin }

// HandCount is the number of active hands.
func (p *Player) HandCount() int {
	n := 0
	for _, h := range p.rig.Hands {
		if handActive(h) {
			n++
		}
	}
	return n
}

// Hand returns the i-th active hand, or nil.
func (p *Player) Hand(i int) *interaction.Hand {
	for _, h := range p.rig.Hands {
		if !handActive(h) {
			continue
		}
		if i == 0 {
			return h
		}
		i--
	}
	return nil
}

// LeftHand is the first active hand that guesses itself left.
func (p *Player) LeftHand() *interaction.Hand { return p.handOfType(interaction.HandLeft) }

func (p *Player) RightHand() *interaction.Hand { return p.handOfType(interaction.HandRight) }

func (p *Player) handOfType(t interaction.HandType) *interaction.Hand {
	for _, h := range p.rig.Hands {
		if handActive(h) && h.GuessHandType() == t {
			return h
		}
	}
	return nil
}

func handActive(h *interaction.Hand) bool {
	return h != nil && h.Node().Valid() && h.Node().ActiveInHierarchy()
}

// HMD is the first active head candidate, or nil.
func (p *Player) HMD() *scene.Node {
	for _, n := range p.rig.HMDs {
		if n.Valid() && n.ActiveInHierarchy() {
			return n
		}
	}
	return nil
}

// EyeHeight is the head height above the origin along its up axis.
func (p *Player) EyeHeight() float64 {
	hmd := p.HMD()
	if hmd == nil {
		return 0
	}
	origin := p.rig.Origin
	return physics.Project(hmd.Position().Sub(origin.Position()), origin.Up()).Len()
}

// FeetPositionGuess drops the head onto the origin plane.
func (p *Player) FeetPositionGuess() physics.Vec3 {
	origin := p.rig.Origin
	hmd := p.HMD()
	if hmd == nil {
		return origin.Position()
	}
	return origin.Position().Add(physics.ProjectOnPlane(hmd.Position().Sub(origin.Position()), origin.Up()))
}

// BodyDirectionGuess is the head forward flattened onto the origin plane.
// A head that is upside down is looking backwards over itself.
func (p *Player) BodyDirectionGuess() physics.Vec3 {
	origin := p.rig.Origin
	hmd := p.HMD()
	if hmd == nil {
		return origin.Forward()
	}
	dir := physics.ProjectOnPlane(hmd.Forward(), origin.Up())
	if hmd.Up().Dot(origin.Up()) < 0 {
		dir = dir.Mul(-1)
	}
	return dir
}

// ActivateRig switches between the VR and desktop rigs and moves the audio
// listener onto the newly active head.
func (p *Player) ActivateRig(vr bool) {
	if p.rig.VR.Valid() {
		p.rig.VR.SetActive(vr)
	}
	if p.rig.Fallback.Valid() {
		p.rig.Fallback.SetActive(!vr)
	}

	if l := p.rig.AudioListener; l.Valid() {
		if hmd := p.HMD(); hmd != nil {
			l.SetParent(hmd)
			l.ResetLocal()
		}
	}
	p.logger.Info("rig activated", log.Bool("vr", vr), log.Int("hands", p.HandCount()))
}
