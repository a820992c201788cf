package system

import (
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"golang.org/x/image/math/f64"
)

const (
	collisionTypeActor cp.CollisionType = iota + 1
	collisionTypeTrigger
)

// triggerOverrides replaces the mesh bounds of models whose walkable area
// differs from their visual, keyed by lower-cased model name.
var triggerOverrides = map[string]common.Bounds{
	"_h1.pol": {Center: f64.Vec3{0, -0.2, 0}, Size: f64.Vec3{3, 0.5, 3}},
	"_c.pol":  {Center: f64.Vec3{0, -0.2, -0.5}, Size: f64.Vec3{3.5, 0.5, 6}},
}

// TriggerBoundsFor returns the object-space trigger bounds for a model.
func TriggerBoundsFor(name string, mesh common.Bounds) common.Bounds {
	if b, ok := triggerOverrides[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b
	}
	return mesh
}

// ActivateTriggerVolume computes the world-space trigger bounds of e from its
// model, transform and name.
func ActivateTriggerVolume(w *ecs.World, e ecs.Entity) (common.Bounds, error) {
	obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	if !ok {
		return common.Bounds{}, fmt.Errorf("trigger volume: scene object: %w", ErrMissingComponent)
	}
	model, ok := ecs.Get(w, e, component.ModelComponent.Kind())
	if !ok {
		return common.Bounds{}, fmt.Errorf("trigger volume %q: model: %w", obj.ID, ErrMissingComponent)
	}
	tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return common.Bounds{}, fmt.Errorf("trigger volume %q: transform: %w", obj.ID, ErrMissingComponent)
	}

	local := TriggerBoundsFor(obj.Name, model.Bounds)
	return rotateYaw(local, tf.Yaw).Translate(tf.Position), nil
}

// rotateYaw returns the axis-aligned box enclosing b rotated about the Y axis.
func rotateYaw(b common.Bounds, yaw float64) common.Bounds {
	if yaw == 0 {
		return b
	}
	sin, cos := math.Sincos(yaw)
	cx := b.Center[0]*cos + b.Center[2]*sin
	cz := -b.Center[0]*sin + b.Center[2]*cos
	sx := math.Abs(cos)*b.Size[0] + math.Abs(sin)*b.Size[2]
	sz := math.Abs(sin)*b.Size[0] + math.Abs(cos)*b.Size[2]
	return common.Bounds{
		Center: f64.Vec3{cx, b.Center[1], cz},
		Size:   f64.Vec3{sx, b.Size[1], sz},
	}
}

func layerFilter(layer int) cp.ShapeFilter {
	bit := uint(1) << (uint(layer) % 32)
	return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: bit, Mask: bit}
}

// TriggerVolume is a horizontal sensor region. Actors on the same layer raise
// an enter event once per continuous overlap.
type TriggerVolume struct {
	Owner  ecs.Entity
	Bounds common.Bounds
	Layer  int

	sys       *TriggerSystem
	shape     *cp.Shape
	subs      []*Subscription
	occupants map[ecs.Entity]struct{}
	released  bool
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	volume *TriggerVolume
	fn     func(actor ecs.Entity)
	closed bool
}

// Close stops delivery. Closing twice is a no-op.
func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	if s.volume == nil {
		return
	}
	subs := s.volume.subs[:0]
	for _, other := range s.volume.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	s.volume.subs = subs
}

func (s *Subscription) Closed() bool {
	return s == nil || s.closed
}

// GroundHeight is the height actors stand at on the platform.
func (v *TriggerVolume) GroundHeight() float64 {
	return v.Bounds.Top()
}

func (v *TriggerVolume) Subscribe(fn func(actor ecs.Entity)) *Subscription {
	sub := &Subscription{volume: v, fn: fn}
	if v == nil || v.released || fn == nil {
		sub.closed = true
		return sub
	}
	v.subs = append(v.subs, sub)
	return sub
}

// Occupied reports whether any tracked actor overlaps the volume.
func (v *TriggerVolume) Occupied() bool {
	return v != nil && len(v.occupants) > 0
}

func (v *TriggerVolume) Released() bool {
	return v == nil || v.released
}

// Release closes every remaining subscription and removes the sensor.
func (v *TriggerVolume) Release() {
	if v == nil || v.released {
		return
	}
	for _, sub := range append([]*Subscription(nil), v.subs...) {
		sub.Close()
	}
	v.released = true
	v.occupants = nil
	if v.sys != nil {
		v.sys.remove(v)
	}
}

type actorBody struct {
	body  *cp.Body
	shape *cp.Shape
}

type triggerHit struct {
	volume *TriggerVolume
	actor  ecs.Entity
	enter  bool
}

// TriggerSystem tracks the player actors against trigger volumes in a
// Chipmunk space. The space is horizontal: cp X is world X, cp Y is world Z.
type TriggerSystem struct {
	space   *cp.Space
	dt      float64
	volumes map[*cp.Shape]*TriggerVolume
	actors  map[ecs.Entity]*actorBody
	shapes  map[*cp.Shape]ecs.Entity
	hits    []triggerHit
}

func NewTriggerSystem(tick float64) *TriggerSystem {
	if tick <= 0 {
		tick = 1.0 / 60.0
	}
	ts := &TriggerSystem{
		space:   cp.NewSpace(),
		dt:      tick,
		volumes: make(map[*cp.Shape]*TriggerVolume),
		actors:  make(map[ecs.Entity]*actorBody),
		shapes:  make(map[*cp.Shape]ecs.Entity),
	}
	ts.space.SetGravity(cp.Vector{})
	ts.ensureHandlers()
	return ts
}

func (ts *TriggerSystem) ensureHandlers() {
	handler := ts.space.NewCollisionHandler(collisionTypeActor, collisionTypeTrigger)
	handler.UserData = ts
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		if sys, ok := userData.(*TriggerSystem); ok && sys != nil {
			sys.queue(arb, true)
		}
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		if sys, ok := userData.(*TriggerSystem); ok && sys != nil {
			sys.queue(arb, false)
		}
	}
}

func (ts *TriggerSystem) queue(arb *cp.Arbiter, enter bool) {
	a, b := arb.Shapes()
	actor, ok := ts.shapes[a]
	vol := ts.volumes[b]
	if !ok {
		actor, ok = ts.shapes[b]
		vol = ts.volumes[a]
	}
	if !ok || vol == nil {
		return
	}
	ts.hits = append(ts.hits, triggerHit{volume: vol, actor: actor, enter: enter})
}

// CreateVolume adds a sensor for bounds on layer.
func (ts *TriggerSystem) CreateVolume(owner ecs.Entity, bounds common.Bounds, layer int) *TriggerVolume {
	minP, maxP := bounds.Min(), bounds.Max()
	shape := cp.NewBox2(ts.space.StaticBody, cp.BB{L: minP[0], B: minP[2], R: maxP[0], T: maxP[2]}, 0)
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypeTrigger)
	shape.SetFilter(layerFilter(layer))
	ts.space.AddShape(shape)

	vol := &TriggerVolume{
		Owner:     owner,
		Bounds:    bounds,
		Layer:     layer,
		sys:       ts,
		shape:     shape,
		occupants: make(map[ecs.Entity]struct{}),
	}
	ts.volumes[shape] = vol
	return vol
}

func (ts *TriggerSystem) remove(v *TriggerVolume) {
	if v.shape == nil {
		return
	}
	if ts.space.ContainsShape(v.shape) {
		ts.space.RemoveShape(v.shape)
	}
	delete(ts.volumes, v.shape)
	v.shape = nil
}

// Volumes returns the live volumes.
func (ts *TriggerSystem) Volumes() []*TriggerVolume {
	out := make([]*TriggerVolume, 0, len(ts.volumes))
	for _, v := range ts.volumes {
		out = append(out, v)
	}
	return out
}

func (ts *TriggerSystem) Update(w *ecs.World) {
	if ts == nil || w == nil {
		return
	}
	ts.syncActors(w)
	ts.space.Step(ts.dt)
	ts.deliver(w)
}

func (ts *TriggerSystem) syncActors(w *ecs.World) {
	seen := make(map[ecs.Entity]struct{}, len(ts.actors))
	for _, e := range ecs.Query(w, component.PlayerTagComponent.Kind()) {
		tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		body, ok := ecs.Get(w, e, component.ActorBodyComponent.Kind())
		if !ok {
			continue
		}
		seen[e] = struct{}{}

		ab := ts.actors[e]
		if ab == nil {
			ab = ts.addActor(e, body.Radius)
		}
		ab.shape.SetFilter(layerFilter(body.LayerIndex))
		ab.body.SetPosition(cp.Vector{X: tf.Position[0], Y: tf.Position[2]})
		ab.body.SetVelocity(0, 0)
	}

	for e, ab := range ts.actors {
		if _, ok := seen[e]; ok {
			continue
		}
		ts.space.RemoveShape(ab.shape)
		ts.space.RemoveBody(ab.body)
		delete(ts.shapes, ab.shape)
		delete(ts.actors, e)
	}
}

func (ts *TriggerSystem) addActor(e ecs.Entity, radius float64) *actorBody {
	if radius <= 0 {
		radius = 0.25
	}
	body := ts.space.AddBody(cp.NewBody(1, cp.INFINITY))
	shape := ts.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetCollisionType(collisionTypeActor)
	ab := &actorBody{body: body, shape: shape}
	ts.actors[e] = ab
	ts.shapes[shape] = e
	return ab
}

// deliver hands the events collected during Step to subscribers. Subscribers
// may release volumes; hits for released volumes are dropped, and separations
// raised by a release wait for the next delivery.
func (ts *TriggerSystem) deliver(w *ecs.World) {
	hits := ts.hits
	ts.hits = nil
	for _, hit := range hits {
		vol := hit.volume
		if vol.released {
			continue
		}
		if !hit.enter {
			delete(vol.occupants, hit.actor)
			continue
		}
		if _, inside := vol.occupants[hit.actor]; inside {
			continue
		}
		vol.occupants[hit.actor] = struct{}{}
		w.Events().Push(ecs.Event{Type: ecs.EventTriggerEntered, Data: hit.actor})
		for _, sub := range append([]*Subscription(nil), vol.subs...) {
			if sub.closed || vol.released {
				continue
			}
			sub.fn(hit.actor)
		}
	}
}
