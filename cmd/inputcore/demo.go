package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/config"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/entity"
	"github.com/dshills/inputcore/internal/event"
	"github.com/dshills/inputcore/internal/focus"
	"github.com/dshills/inputcore/internal/gesture"
	"github.com/dshills/inputcore/internal/logging"
	"github.com/dshills/inputcore/internal/mathx"
	"github.com/dshills/inputcore/internal/processor"
	"github.com/dshills/inputcore/internal/registry"
)

const (
	frameInterval = 16 * time.Millisecond
	eventLogSize  = 12
)

// The demo scene: one clickable target and one draggable target, both on
// the z = -1 plane the cursor is projected onto.
const (
	targetClick = entity.ID(1)
	targetDrag  = entity.ID(2)
)

type box struct {
	x0, y0, x1, y1 int
	label          string
	target         entity.ID
}

// sceneTransforms places every demo entity at the world origin.
type sceneTransforms struct{}

func (sceneTransforms) WorldFromEntity(entity.ID) (*mat.Dense, bool) {
	return mathx.Identity4(), true
}

type demo struct {
	screen tcell.Screen
	reg    *registry.Registry
	proc   *processor.Processor
	bus    *event.Bus
	log    *logging.Logger

	boxes []box

	// Terminal-space cursor, updated from mouse events and sampled once
	// per frame.
	cursorX, cursorY int

	lines []string

	reconfig chan config.Config
	quit     chan struct{}
	quitOnce sync.Once
}

func newDemo(cfg config.Config) (*demo, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	log := logging.Default().WithComponent("demo")

	reg := registry.New(registry.WithLogger(logging.Default().WithComponent("registry")))
	reg.Connect(device.Mouse, mouseProfile(cfg))
	reg.Connect(device.Keyboard, device.Profile{Name: "keyboard"})

	bus := event.NewBus()
	mode, err := cfg.Mode()
	if err != nil {
		screen.Fini()
		return nil, err
	}
	proc := processor.New(reg, bus,
		processor.WithMode(mode),
		processor.WithSource(cfg.Processor.Source),
		processor.WithTransformProvider(sceneTransforms{}),
	)
	proc.AddRecognizer(gesture.OneFingerDrag{})
	if err := cfg.Apply(proc); err != nil {
		screen.Fini()
		return nil, err
	}

	d := &demo{
		screen: screen,
		reg:    reg,
		proc:   proc,
		bus:    bus,
		log:    log,
		boxes: []box{
			{4, 3, 26, 7, "click me", targetClick},
			{32, 3, 54, 7, "drag me", targetDrag},
		},
		reconfig: make(chan config.Config, 1),
		quit:     make(chan struct{}),
	}

	// The bus delivers synchronously from the frame loop, so appending to
	// the line buffer needs no lock.
	if _, err := bus.Subscribe("input.**", d.record); err != nil {
		screen.Fini()
		return nil, err
	}
	return d, nil
}

// mouseProfile resolves the mouse preset, falling back to a plain
// three-button mouse.
func mouseProfile(cfg config.Config) device.Profile {
	if preset, ok := cfg.Profiles["mouse"]; ok {
		return preset.Profile("mouse")
	}
	return device.Profile{Name: "mouse", NumButtons: 3, HasScroll: true, PositionDof: device.DofReal}
}

// Quit asks the demo loop to exit. Safe to call from any goroutine.
func (d *demo) Quit() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// Reconfigure queues a live configuration update for the frame loop.
func (d *demo) Reconfigure(cfg config.Config) {
	select {
	case d.reconfig <- cfg:
	default:
	}
}

func (d *demo) Close() {
	d.screen.Fini()
}

// Run drives the demo: terminal events feed the registry, a fixed ticker
// advances frames and runs the processor.
func (d *demo) Run() error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-d.quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-d.quit:
			return nil
		case cfg := <-d.reconfig:
			d.apply(cfg)
		case ev := <-events:
			d.handleEvent(ev)
		case now := <-ticker.C:
			d.frame(now.Sub(last))
			last = now
		}
	}
}

// apply installs the live-reloadable parts of a configuration.
func (d *demo) apply(cfg config.Config) {
	logging.Default().SetLevel(cfg.Level())
	if err := cfg.Apply(d.proc); err != nil {
		d.log.Warn("reconfigure: %v", err)
		return
	}
	d.record(event.NewEnvelope("input.demo.reconfigured", nil, "demo"))
}

func (d *demo) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			d.Quit()
			return
		}
		d.reg.KeyPressed(device.Keyboard, keyName(ev))

	case *tcell.EventMouse:
		d.cursorX, d.cursorY = ev.Position()
		buttons := ev.Buttons()
		d.reg.UpdateButton(device.Mouse, device.ButtonLeftMouse, buttons&tcell.Button1 != 0, false)
		d.reg.UpdateButton(device.Mouse, device.ButtonRightMouse, buttons&tcell.Button2 != 0, false)
		d.reg.UpdateButton(device.Mouse, device.ButtonMiddleMouse, buttons&tcell.Button3 != 0, false)
		if buttons&tcell.WheelUp != 0 {
			d.reg.UpdateScroll(device.Mouse, 1)
		}
		if buttons&tcell.WheelDown != 0 {
			d.reg.UpdateScroll(device.Mouse, -1)
		}
		d.reg.UpdatePosition(device.Mouse, d.worldAt(d.cursorX, d.cursorY))

	case *tcell.EventResize:
		d.screen.Sync()
	}
}

func keyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		return string(ev.Rune())
	}
	return ev.Name()
}

// frame commits the pending device state and runs one interaction frame
// against the cursor's current focus.
func (d *demo) frame(dt time.Duration) {
	if dt <= 0 {
		dt = frameInterval
	}
	d.reg.AdvanceFrame(dt)
	d.proc.UpdateDevice(dt, d.mouseFocus())
	d.render()
}

// mouseFocus projects the cursor onto the scene plane and hit-tests the
// targets.
func (d *demo) mouseFocus() focus.Focus {
	world := d.worldAt(d.cursorX, d.cursorY)
	f := focus.Focus{
		Device:              device.Mouse,
		CollisionRay:        mathx.Ray{Direction: r3.Unit(world)},
		CursorPosition:      world,
		NoHitCursorPosition: world,
	}
	for _, b := range d.boxes {
		if d.cursorX >= b.x0 && d.cursorX <= b.x1 && d.cursorY >= b.y0 && d.cursorY <= b.y1 {
			f.Target = b.target
			f.Interactive = true
			f.Draggable = b.target == targetDrag
			break
		}
	}
	return f
}

// worldAt maps a terminal cell to a point on the z = -1 plane, with x and y
// normalized to [-1, 1].
func (d *demo) worldAt(x, y int) r3.Vec {
	w, h := d.screen.Size()
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return r3.Vec{
		X: float64(x)/float64(w-1)*2 - 1,
		Y: 1 - float64(y)/float64(h-1)*2,
		Z: -1,
	}
}

// record appends one published event to the on-screen log.
func (d *demo) record(env event.Envelope) {
	line := string(env.Topic)
	switch p := env.Payload.(type) {
	case processor.ButtonEvent:
		line = fmt.Sprintf("%s target=%d dur=%s", env.Topic, p.Target, p.Duration.Round(time.Millisecond))
	case processor.FocusEvent:
		line = fmt.Sprintf("%s target=%d", env.Topic, p.Target)
	case processor.TouchEvent:
		line = fmt.Sprintf("%s touch=%d target=%d", env.Topic, p.Touch, p.Target)
	case processor.GestureEvent:
		line = fmt.Sprintf("%s gesture=%s", env.Topic, p.Gesture)
	}
	d.lines = append(d.lines, line)
	if len(d.lines) > eventLogSize {
		d.lines = d.lines[len(d.lines)-eventLogSize:]
	}
}

func (d *demo) render() {
	s := d.screen
	s.Clear()

	f := d.proc.Focus(device.Mouse).Current
	for _, b := range d.boxes {
		style := tcell.StyleDefault.Foreground(tcell.ColorGray)
		if f.Target == b.target {
			style = tcell.StyleDefault.Foreground(tcell.ColorGreen)
		}
		drawBox(s, b, style)
	}

	drawText(s, 4, 1, tcell.StyleDefault, "inputcore demo  (esc quits)")

	status := fmt.Sprintf("buttons=%v scroll=%+d keys=%v",
		d.reg.GetButtonState(device.Mouse, device.ButtonLeftMouse),
		d.reg.GetScrollDelta(device.Mouse),
		d.reg.GetPressedKeys(device.Keyboard))
	drawText(s, 4, 9, tcell.StyleDefault, status)

	for i, line := range d.lines {
		drawText(s, 4, 11+i, tcell.StyleDefault.Foreground(tcell.ColorYellow), line)
	}

	s.SetContent(d.cursorX, d.cursorY, '+', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
	s.Show()
}

func drawBox(s tcell.Screen, b box, style tcell.Style) {
	for x := b.x0; x <= b.x1; x++ {
		s.SetContent(x, b.y0, tcell.RuneHLine, nil, style)
		s.SetContent(x, b.y1, tcell.RuneHLine, nil, style)
	}
	for y := b.y0; y <= b.y1; y++ {
		s.SetContent(b.x0, y, tcell.RuneVLine, nil, style)
		s.SetContent(b.x1, y, tcell.RuneVLine, nil, style)
	}
	s.SetContent(b.x0, b.y0, tcell.RuneULCorner, nil, style)
	s.SetContent(b.x1, b.y0, tcell.RuneURCorner, nil, style)
	s.SetContent(b.x0, b.y1, tcell.RuneLLCorner, nil, style)
	s.SetContent(b.x1, b.y1, tcell.RuneLRCorner, nil, style)
	drawText(s, b.x0+2, (b.y0+b.y1)/2, style, b.label)
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
