package main

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/config"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/ecs/system"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
	"github.com/milk9111/pedalswitch/storage/sqlite"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	// pixels per world unit
	drawScale = 48.0
)

type Game struct {
	frames int
	debug  bool

	world   *ecs.World
	runtime *system.Runtime
	pauseUI *ebitenui.UI
	store   storage.Store
	watcher *scenes.Watcher
}

func NewGame(cfg config.Config) (*Game, error) {
	var store storage.Store
	if cfg.SavePath == "" {
		store = storage.NewMemoryStore()
	} else {
		s, err := sqlite.Open(cfg.SavePath)
		if err != nil {
			return nil, err
		}
		store = s
	}

	loader := scenes.Loader{Dir: cfg.SceneDir}
	world := ecs.NewWorld()
	rt := system.NewRuntime(world, system.Options{
		Scene:       cfg.Scene,
		Tick:        cfg.TickDuration(),
		InitialMode: component.ModeGameplay,
		Store:       store,
		Scenes:      loader,
		Scripts:     loader,
		Debug:       cfg.Debug,
	})

	g := &Game{
		debug:   cfg.Debug,
		world:   world,
		runtime: rt,
		store:   store,
	}
	g.pauseUI = NewPauseUI(g)

	if cfg.Watch {
		w, err := scenes.NewWatcher(cfg.SceneDir, filepath.Join(cfg.SceneDir, "scripts"))
		if err != nil {
			log.Printf("scene watch disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) Close() error {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if g.store != nil {
		return g.store.Close()
	}
	return nil
}

func (g *Game) Update() error {
	g.frames++

	g.readInput()
	if g.mode() == component.ModeUI {
		g.pauseUI.Update()
	}
	g.pollWatcher()
	g.runtime.Update(g.world)

	for _, ev := range g.world.Events().Drain() {
		if g.debug {
			log.Printf("event: %s %v", ev.Type, ev.Data)
		}
	}
	return nil
}

func (g *Game) mode() component.GameMode {
	return system.WorldModes{W: g.world}.CurrentMode()
}

func (g *Game) readInput() {
	mode := g.mode()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		switch mode {
		case component.ModeGameplay:
			g.runtime.Context.RequestMode(component.ModeUI)
		case component.ModeUI:
			g.runtime.Context.RequestMode(component.ModeGameplay)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && mode != component.ModeCutscene {
		system.RequestSceneChange(g.world, "")
	}

	moveX, moveZ := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		moveX -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		moveX += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		moveZ += 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		moveZ -= 1
	}

	ecs.ForEach(g.world, component.InputComponent.Kind(), func(_ ecs.Entity, input *component.Input) {
		input.MoveX = moveX
		input.MoveZ = moveZ
	})
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if scenes.IsScript(path) {
				if g.runtime.Scripts != nil {
					g.runtime.Scripts.Invalidate(name)
				}
				log.Printf("watch: script %s changed", name)
				continue
			}
			if name == g.runtime.Context.Scene {
				log.Printf("watch: scene %s changed, reloading", name)
				system.RequestSceneChange(g.world, "")
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("watch: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x16, 0x18, 0x1d, 0xff})

	camX, camZ := 0.0, 0.0
	if p, ok := ecs.First(g.world, component.PlayerTagComponent.Kind()); ok {
		if tf, ok := ecs.Get(g.world, p, component.TransformComponent.Kind()); ok {
			camX, camZ = tf.Position[0], tf.Position[2]
		}
	}
	toScreen := func(x, z float64) (float32, float32) {
		return float32((x-camX)*drawScale + baseWidth/2), float32(baseHeight/2 - (z-camZ)*drawScale)
	}

	objects := ecs.Query(g.world, component.SceneObjectComponent.Kind())
	sort.Slice(objects, func(i, j int) bool { return uint64(objects[i]) < uint64(objects[j]) })
	for _, e := range objects {
		obj, _ := ecs.Get(g.world, e, component.SceneObjectComponent.Kind())
		tf, ok := ecs.Get(g.world, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		model, ok := ecs.Get(g.world, e, component.ModelComponent.Kind())
		if !ok {
			continue
		}
		b := model.Bounds.Translate(tf.Position)
		minP, maxP := b.Min(), b.Max()
		x0, y0 := toScreen(minP[0], maxP[2])
		x1, y1 := toScreen(maxP[0], minP[2])
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, objectColor(obj, tf.Position[1]), false)
		if g.debug {
			ebitenutil.DebugPrintAt(screen, obj.ID, int(x0), int(y0)-14)
		}
	}

	for _, vol := range g.runtime.Triggers.Volumes() {
		minP, maxP := vol.Bounds.Min(), vol.Bounds.Max()
		x0, y0 := toScreen(minP[0], maxP[2])
		x1, y1 := toScreen(maxP[0], minP[2])
		clr := color.RGBA{R: 80, G: 200, B: 255, A: 160}
		if vol.Occupied() {
			clr = color.RGBA{R: 255, G: 220, B: 80, A: 220}
		}
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, clr, false)
	}

	ecs.ForEach2(g.world, component.PlayerTagComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, _ *component.PlayerTag, tf *component.Transform) {
		radius := 0.3
		if body, ok := ecs.Get(g.world, e, component.ActorBodyComponent.Kind()); ok && body.Radius > 0 {
			radius = body.Radius
		}
		cx, cy := toScreen(tf.Position[0], tf.Position[2])
		vector.FillCircle(screen, cx, cy, float32(radius*drawScale), color.RGBA{R: 240, G: 240, B: 240, A: 255}, true)
	})

	ebitenutil.DebugPrint(screen, g.hud())

	if g.mode() == component.ModeUI {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) hud() string {
	mode := g.mode()
	var b strings.Builder
	fmt.Fprintf(&b, "scene: %s    mode: %s    FPS: %.1f\n", g.runtime.Context.Scene, mode, ebiten.ActualFPS())
	b.WriteString("WASD move  R reload  Esc pause\n")
	if g.runtime.Scripts != nil {
		flags := g.runtime.Scripts.Flags()
		names := make([]string, 0, len(flags))
		for name := range flags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "%s = %d\n", name, flags[name])
		}
	}
	return b.String()
}

func objectColor(obj *component.SceneObject, y float64) color.Color {
	switch {
	case !obj.Activated:
		return color.RGBA{R: 60, G: 60, B: 70, A: 255}
	case obj.Type == system.PedalSwitchType && obj.SwitchState == 1:
		return color.RGBA{R: 90, G: 160, B: 90, A: 255}
	case obj.Type == system.PedalSwitchType:
		return color.RGBA{R: 170, G: 120, B: 60, A: 255}
	case obj.Type == system.GateType:
		shade := uint8(120 + common.Clamp01(y/2)*120)
		return color.RGBA{R: shade, G: 80, B: 80, A: 255}
	default:
		return color.RGBA{R: 200, G: 200, B: 120, A: 255}
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
