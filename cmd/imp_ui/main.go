package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/impsynth-go"
	intaudio "github.com/cbegin/impsynth-go/internal/audio"
	intseq "github.com/cbegin/impsynth-go/internal/sequencer"
	"github.com/cbegin/impsynth-go/internal/synth"
)

const (
	windowW = 960
	windowH = 600

	scopeLen   = 2048
	ringBufLen = 131072
	historyLen = 480
)

var (
	bgColor       = color.RGBA{24, 24, 32, 255}
	scopeBgColor  = color.RGBA{14, 16, 22, 255}
	gridColor     = color.RGBA{40, 44, 58, 100}
	waveColor     = color.RGBA{80, 200, 255, 220}
	voiceBarColor = color.RGBA{120, 220, 140, 230}
	voiceBgColor  = color.RGBA{40, 44, 58, 255}
)

// analyzer keeps the most recent rendered audio as a mono ring buffer.
type analyzer struct {
	mu          sync.Mutex
	ring        []float32
	writePos    int
	totalTapped int64
}

func newAnalyzer() *analyzer {
	return &analyzer{ring: make([]float32, ringBufLen)}
}

// Tap is installed with WithSampleTap and runs on the audio goroutine.
func (a *analyzer) Tap(frames []int16) {
	a.mu.Lock()
	for i := 0; i+1 < len(frames); i += 2 {
		a.ring[a.writePos] = float32(int(frames[i])+int(frames[i+1])) / (2 * 32767)
		a.writePos = (a.writePos + 1) % ringBufLen
		a.totalTapped++
	}
	a.mu.Unlock()
}

func (a *analyzer) Reset() {
	a.mu.Lock()
	a.totalTapped = 0
	a.mu.Unlock()
}

// Snapshot returns n samples ending at playbackPos, or at the newest
// sample when playbackPos is negative.
func (a *analyzer) Snapshot(n int, playbackPos int64) []float32 {
	n = min(n, ringBufLen)
	out := make([]float32, n)
	a.mu.Lock()
	delay := 0
	if playbackPos >= 0 {
		delay = int(a.totalTapped - playbackPos)
	}
	delay = max(0, min(delay, ringBufLen-n))
	start := (a.writePos - delay - n + ringBufLen*2) % ringBufLen
	for i := range out {
		out[i] = a.ring[(start+i)%ringBufLen]
	}
	a.mu.Unlock()
	return out
}

type game struct {
	player   *impsynth.Player
	events   <-chan impsynth.PlaybackEvent
	analyzer *analyzer
	scopeImg *ebiten.Image
	wavePeak float64

	// history holds the total sounding voice count, one entry per tick.
	history    [historyLen]int
	historyPos int

	seed    uint64
	volume  float64
	paused  bool
	ended   bool
	clips   int
	status  string
	failure error
}

func newGame(cfg impsynth.Config, backend intaudio.Backend, logger *slog.Logger) (*game, error) {
	a := newAnalyzer()
	pl, err := impsynth.NewPlayer(cfg,
		impsynth.WithBackend(backend),
		impsynth.WithLogger(logger),
		impsynth.WithSampleTap(a.Tap),
	)
	if err != nil {
		return nil, err
	}
	g := &game{
		player:   pl,
		events:   pl.Watch(),
		analyzer: a,
		seed:     cfg.Seed,
		volume:   1,
	}
	if err := g.restart(cfg.Seed); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) restart(seed uint64) error {
	g.analyzer.Reset()
	if err := g.player.PlaySeed(seed); err != nil {
		return err
	}
	g.seed = seed
	g.paused, g.ended, g.failure, g.clips = false, false, nil, 0
	g.history, g.historyPos = [historyLen]int{}, 0
	g.status = "Playing"
	return nil
}

func (g *game) Update() error {
	g.pollEvents()
	g.recordVoices()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := g.restart(rand.Uint64()); err != nil {
			g.failure = err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.setVolume(g.volume + 0.1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.setVolume(g.volume - 0.1)
	}
	return nil
}

func (g *game) recordVoices() {
	total := 0
	for _, n := range g.player.VoiceActivity() {
		total += n
	}
	g.history[g.historyPos] = total
	g.historyPos = (g.historyPos + 1) % historyLen
}

func (g *game) togglePause() {
	if g.ended {
		return
	}
	if g.paused {
		g.player.Resume()
		g.status = "Playing"
	} else {
		g.player.Pause()
		g.status = "Paused"
	}
	g.paused = !g.paused
}

func (g *game) setVolume(v float64) {
	g.player.SetMasterVolume(v)
	g.volume = g.player.MasterVolume()
}

func (g *game) pollEvents() {
	for {
		select {
		case ev := <-g.events:
			switch ev.Kind {
			case impsynth.EventPlaybackEnded:
				g.ended = true
				g.status = "Time stopped"
			case impsynth.EventClipped:
				g.clips += ev.Clips
			case impsynth.EventFailed:
				g.ended = true
				g.failure = ev.Err
			}
		default:
			return
		}
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	pad := 16
	barsH := 140
	scope := image.Rect(pad, pad, w-pad, h-pad-barsH-pad-20)
	bars := image.Rect(pad, scope.Max.Y+pad, w-pad, scope.Max.Y+pad+barsH)

	g.drawScope(screen, scope)
	g.drawVoices(screen, bars)
	g.drawStatus(screen, pad, h-pad-14)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	width, height := rect.Dx(), rect.Dy()
	if width <= 0 || height <= 0 {
		return
	}
	if g.scopeImg == nil || g.scopeImg.Bounds().Dx() != width || g.scopeImg.Bounds().Dy() != height {
		g.scopeImg = ebiten.NewImage(width, height)
	}
	g.scopeImg.Fill(scopeBgColor)

	snap := g.analyzer.Snapshot(scopeLen, g.player.PlaybackPosition())
	waveH := int(float64(height) * 0.65)
	g.drawWaveform(g.scopeImg, snap, width, waveH)
	ebitenutil.DrawRect(g.scopeImg, 0, float64(waveH), float64(width), 1, color.RGBA{50, 54, 68, 180})
	g.drawHistory(g.scopeImg, width, height-waveH-1, waveH+1)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	screen.DrawImage(g.scopeImg, op)
}

func (g *game) drawWaveform(dst *ebiten.Image, samples []float32, width int, height int) {
	if len(samples) < 2 || width < 2 || height < 4 {
		return
	}
	midY := height / 2
	ebitenutil.DrawRect(dst, 0, float64(midY), float64(width), 1, gridColor)

	// Auto-gain: fast attack, slow release.
	peak := float32(0)
	for _, s := range samples {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	target := max(float64(peak), 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	g.wavePeak = max(g.wavePeak, 0.01)
	gain := float64(midY-2) / g.wavePeak

	trigger := findZeroCrossing(samples, len(samples)/4)
	visible := max(len(samples)-trigger, 2)
	prevX, prevY := 0, midY-int(float64(samples[trigger])*gain)
	for px := 1; px < width; px++ {
		si := min(trigger+px*visible/width, len(samples)-1)
		y := midY - int(float64(samples[si])*gain)
		ebitenutil.DrawLine(dst, float64(prevX), float64(prevY), float64(px), float64(y), waveColor)
		prevX, prevY = px, y
	}
}

// findZeroCrossing finds a rising zero crossing to hold the trace still.
func findZeroCrossing(samples []float32, searchLen int) int {
	searchLen = min(searchLen, len(samples)-2)
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

// drawHistory plots the recent total voice count, newest on the right,
// scaled to the busiest moment on screen.
func (g *game) drawHistory(dst *ebiten.Image, width, height, yOffset int) {
	if width < 2 || height < 4 {
		return
	}
	peak := 1
	for _, n := range g.history {
		peak = max(peak, n)
	}
	y := func(n int) float64 {
		return float64(yOffset+height-2) - float64(n)*float64(height-4)/float64(peak)
	}
	step := float64(width) / float64(historyLen-1)
	prev := g.history[g.historyPos%historyLen]
	for i := 1; i < historyLen; i++ {
		n := g.history[(g.historyPos+i)%historyLen]
		x := float64(i) * step
		ebitenutil.DrawLine(dst, x-step, y(prev), x, y(n), voiceBarColor)
		prev = n
	}
	ebitenutil.DebugPrintAt(dst, fmt.Sprintf("voices (peak %d)", peak), 4, yOffset+2)
}

// drawVoices shows one bar per synth, scaled to the voice pool size.
func (g *game) drawVoices(screen *ebiten.Image, rect image.Rectangle) {
	activity := g.player.VoiceActivity()
	slot := float64(rect.Dx()) / float64(len(activity))
	labelH := 14.0
	barMax := float64(rect.Dy()) - labelH
	for i, n := range activity {
		x := float64(rect.Min.X) + float64(i)*slot
		ebitenutil.DrawRect(screen, x+2, float64(rect.Min.Y), slot-4, barMax, voiceBgColor)
		h := barMax * float64(n) / synth.NumVoices
		ebitenutil.DrawRect(screen, x+2, float64(rect.Min.Y)+barMax-h, slot-4, h, voiceBarColor)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d:%d", i, n), int(x)+4, rect.Max.Y-int(labelH))
	}
}

func (g *game) drawStatus(screen *ebiten.Image, x, y int) {
	status := g.status
	if g.failure != nil {
		status = "ERROR: " + g.failure.Error()
	}
	msg := fmt.Sprintf("%s  seed=%d  vol=%.1f  clipped=%d   [space] pause  [r] reseed  [up/down] volume  [esc] quit",
		status, g.seed, g.volume, g.clips)
	ebitenutil.DebugPrintAt(screen, msg, x, y)
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON song config")
		seed       = flag.Uint64("seed", 0, "initial random seed")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|beep")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: *debug}))
	slog.SetDefault(logger)

	cfg := impsynth.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = impsynth.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := impsynth.ApplyEnv(&cfg); err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Seed = *seed
		}
	})
	b, err := intaudio.ParseBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}

	g, err := newGame(cfg, b, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer g.player.Stop()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle(fmt.Sprintf("impsynth (%d instruments, %d synths)", len(cfg.Instruments), intseq.NumSynths))
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
