package widgets

import (
	"github.com/zeusync/vrkit/internal/core/events/bus"
	"github.com/zeusync/vrkit/internal/core/interaction"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/scene"
)

// Factory creates a fresh object to hand out.
type Factory func() interaction.Interactable

var (
	_ interaction.HoverBeginner = (*ItemSpawner)(nil)
	_ interaction.HoverEnder    = (*ItemSpawner)(nil)
	_ interaction.HoverUpdater  = (*ItemSpawner)(nil)
)

// ItemSpawner puts a new object in the hovering hand, at most once per hover.
type ItemSpawner struct {
	node    *scene.Node
	factory Factory

	// RequireTriggerPress waits for the standard button instead of spawning
	// on hover begin.
	RequireTriggerPress bool
	Attach              interaction.AttachOptions

	Bus    bus.EventBus
	logger log.Log

	spawned bool
	count   int
}

func NewItemSpawner(node *scene.Node, factory Factory, logger log.Log) *ItemSpawner {
	return &ItemSpawner{
		node:    node,
		factory: factory,
		Attach:  interaction.AttachOptions{Snap: true},
		logger:  log.OrNop(logger).Named("spawner").With(log.String("spawner", node.Name())),
	}
}

func (s *ItemSpawner) Node() *scene.Node { return s.node }

// Spawned is the number of objects handed out.
func (s *ItemSpawner) Spawned() int { return s.count }

func (s *ItemSpawner) OnHandHoverBegin(h *interaction.Hand) {
	s.logger.Debug("hover begin", log.String("hand", h.Name()))
	if !s.RequireTriggerPress {
		s.spawnAndAttach(h)
	}
}

func (s *ItemSpawner) OnHandHoverEnd(h *interaction.Hand) {
	s.logger.Debug("hover end", log.String("hand", h.Name()))
	s.spawned = false
}

func (s *ItemSpawner) HandHoverUpdate(h *interaction.Hand) {
	if s.RequireTriggerPress && h.StandardButtonDown() {
		s.spawnAndAttach(h)
	}
}

func (s *ItemSpawner) spawnAndAttach(h *interaction.Hand) {
	if s.spawned || s.factory == nil {
		return
	}
	obj := s.factory()
	if obj == nil {
		s.logger.Warn("factory returned nothing")
		return
	}
	s.spawned = true
	s.count++
	if s.Bus != nil {
		if err := s.Bus.Publish(bus.NewEvent(bus.KindSpawn, h.Name(), obj.Node().Name(), 0)); err != nil {
			s.logger.Warn("spawn event handler failed", log.Error(err))
		}
	}
	h.Attach(obj, s.Attach)
}
