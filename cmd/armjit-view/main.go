// Command armjit-view is a 2D visual debugger for the JIT: it renders
// code-cache occupancy, the RSB ring's live/stale slots, and the
// fast-dispatch table's hash-slot grid, one pixel block per slot,
// refreshed every frame. Grounded on video_backend_ebiten.go's
// EbitenOutput (ebiten.Image framebuffer, Game loop, clipboard-driven
// copy/paste) generalized from a retro-computer display into a debugger
// view onto the JIT's internal state.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/vexdbt/armjit/internal/guestmem"
	"github.com/vexdbt/armjit/internal/loc"

	"github.com/vexdbt/armjit"
)

const defaultMemorySize = 16 * 1024 * 1024

const (
	screenW = 800
	screenH = 600

	fastDispatchGridSize = 256 // 256*256 == guest.FastDispatchSize
)

type game struct {
	jit *armjit.JIT
	mem *guestmem.Memory

	fastDispatchImg *ebiten.Image

	running       bool
	runDone       <-chan struct{}
	focusedRange  int
	clipboardOnce bool
	clipboardOK   bool
}

func main() {
	var loadAddr, entryAddr string
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&loadAddr, "load-addr", "0x0", "guest address to load the image at")
	flagSet.StringVar(&entryAddr, "entry", "", "entry PC, defaults to load-addr")
	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: armjit-view [--load-addr 0x0] [--entry 0x0] [image]")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	base, err := parseUint(loadAddr)
	if err != nil {
		fmt.Printf("bad --load-addr: %v\n", err)
		os.Exit(1)
	}
	entry := base
	if entryAddr != "" {
		entry, err = parseUint(entryAddr)
		if err != nil {
			fmt.Printf("bad --entry: %v\n", err)
			os.Exit(1)
		}
	}

	mem := guestmem.New(defaultMemorySize)
	jit := armjit.New(armjit.NewConfig(armjit.WithCallbacks(mem.Callbacks())))
	jit.Registers()[15] = uint32(entry)

	if filename := flagSet.Arg(0); filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Printf("error reading %s: %v\n", filename, err)
			os.Exit(1)
		}
		mem.LoadAt(uint32(base), data)
	}

	g := &game{jit: jit, mem: mem}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("armjit-view")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(g); err != nil {
		fmt.Printf("armjit-view: %v\n", err)
		os.Exit(1)
	}
}

func (g *game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.toggleRun()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) && !g.running {
		g.mem.SetTickBudget(1)
		g.jit.Run()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		g.focusedRange++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) && g.focusedRange > 0 {
		g.focusedRange--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyFocusedDisassembly()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.pastePatch()
	}
	return nil
}

func (g *game) toggleRun() {
	if g.running {
		g.jit.Halt()
		<-g.runDone
		g.running = false
		return
	}
	g.mem.SetTickBudget(^uint64(0))
	g.runDone = g.jit.RunAsync()
	g.running = true
}

func (g *game) focusedCacheRange() (armjit.CacheRange, bool) {
	ranges := g.jit.CacheRanges()
	if len(ranges) == 0 {
		return armjit.CacheRange{}, false
	}
	idx := g.focusedRange % len(ranges)
	return ranges[idx], true
}

func (g *game) copyFocusedDisassembly() {
	r, ok := g.focusedCacheRange()
	if !ok {
		return
	}
	g.ensureClipboard()
	if !g.clipboardOK {
		return
	}
	lines := g.jit.Disassemble(loc.Descriptor{PC: r.Start})
	clipboard.Write(clipboard.FmtText, []byte(strings.Join(lines, "\n")))
}

// pastePatch reads a hex-encoded guest word ("AABBCCDD" etc) from the
// clipboard, writes it at the focused range's start address, and
// invalidates that range — a quick way to try an edited instruction
// sequence without restarting the tool.
func (g *game) pastePatch() {
	r, ok := g.focusedCacheRange()
	if !ok {
		return
	}
	g.ensureClipboard()
	if !g.clipboardOK {
		return
	}
	raw := clipboard.Read(clipboard.FmtText)
	data, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil || len(data) == 0 {
		return
	}
	g.mem.LoadAt(r.Start, data)
	g.jit.InvalidateRange(r.Start, uint32(len(data)))
}

func (g *game) ensureClipboard() {
	if g.clipboardOnce {
		return
	}
	g.clipboardOnce = true
	g.clipboardOK = clipboard.Init() == nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{16, 16, 20, 255})
	g.drawCacheOccupancy(screen)
	g.drawRSB(screen)
	g.drawFastDispatch(screen)
	g.drawLegend(screen)
}

func (g *game) drawCacheOccupancy(screen *ebiten.Image) {
	ranges := g.jit.CacheRanges()
	label := fmt.Sprintf("cache: %d blocks", len(ranges))
	text.Draw(screen, label, basicfont.Face7x13, 8, 16, color.RGBA{200, 200, 200, 255})

	const barY, barH, barW = 24, 16, screenW - 16
	ebitenutil.DrawRect(screen, 8, barY, barW, barH, color.RGBA{40, 40, 48, 255})
	if len(ranges) == 0 {
		return
	}
	var maxEnd uint32
	for _, r := range ranges {
		if r.End > maxEnd {
			maxEnd = r.End
		}
	}
	if maxEnd == 0 {
		return
	}
	for i, r := range ranges {
		x0 := 8 + float64(r.Start)/float64(maxEnd)*barW
		x1 := 8 + float64(r.End)/float64(maxEnd)*barW
		w := x1 - x0
		if w < 1 {
			w = 1
		}
		c := color.RGBA{90, 160, 240, 255}
		if i == g.focusedRange%len(ranges) {
			c = color.RGBA{250, 200, 60, 255}
		}
		ebitenutil.DrawRect(screen, x0, barY, w, barH, c)
	}
}

func (g *game) drawRSB(screen *ebiten.Image) {
	occ := g.jit.RSBOccupancy()
	text.Draw(screen, "RSB", basicfont.Face7x13, 8, 64, color.RGBA{200, 200, 200, 255})
	const slotSize, gap = 18, 4
	for i, live := range occ {
		c := color.RGBA{50, 50, 56, 255}
		if live {
			c = color.RGBA{80, 220, 130, 255}
		}
		x := float64(8 + i*(slotSize+gap))
		ebitenutil.DrawRect(screen, x, 72, slotSize, slotSize, c)
	}
}

func (g *game) drawFastDispatch(screen *ebiten.Image) {
	if g.fastDispatchImg == nil {
		g.fastDispatchImg = ebiten.NewImage(fastDispatchGridSize, fastDispatchGridSize)
	}
	occ := g.jit.FastDispatchOccupancy()
	pixels := make([]byte, fastDispatchGridSize*fastDispatchGridSize*4)
	for i, live := range occ {
		if !live {
			continue
		}
		o := i * 4
		pixels[o], pixels[o+1], pixels[o+2], pixels[o+3] = 90, 200, 255, 255
	}
	g.fastDispatchImg.WritePixels(pixels)

	text.Draw(screen, "fast-dispatch table", basicfont.Face7x13, 8, 112, color.RGBA{200, 200, 200, 255})
	opts := &ebiten.DrawImageOptions{}
	scale := float64(screenH-260) / float64(fastDispatchGridSize)
	opts.GeoM.Scale(scale, scale)
	opts.GeoM.Translate(8, 120)
	screen.DrawImage(g.fastDispatchImg, opts)
}

func (g *game) drawLegend(screen *ebiten.Image) {
	legend := "SPACE run/pause  S step  LEFT/RIGHT focus  C copy disasm  V paste patch"
	text.Draw(screen, legend, basicfont.Face7x13, 8, screenH-10, color.RGBA{160, 160, 160, 255})
}

func (g *game) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
