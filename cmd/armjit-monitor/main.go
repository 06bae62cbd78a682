// Command armjit-monitor is a raw-terminal interactive debug REPL for the
// JIT: load a guest binary, step or run it, inspect registers and the
// code cache, and issue invalidate_range/clear_cache by hand. Grounded on
// terminal_host.go's raw-mode stdin reader, generalized from a
// byte-at-a-time MMIO feed into a line-buffered command loop.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/vexdbt/armjit/internal/guestmem"
	"github.com/vexdbt/armjit/internal/loc"

	"github.com/vexdbt/armjit"
)

const defaultMemorySize = 16 * 1024 * 1024

func main() {
	var (
		loadAddr  string
		entryAddr string
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&loadAddr, "load-addr", "0x0", "guest address to load the image at (hex or decimal)")
	flagSet.StringVar(&entryAddr, "entry", "", "entry PC (hex or decimal); defaults to load-addr")
	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: armjit-monitor [--load-addr 0x0] [--entry 0x0] [image]")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	base, err := parseUint(loadAddr)
	if err != nil {
		fmt.Printf("Error: bad --load-addr: %v\n", err)
		os.Exit(1)
	}
	entry := base
	if entryAddr != "" {
		entry, err = parseUint(entryAddr)
		if err != nil {
			fmt.Printf("Error: bad --entry: %v\n", err)
			os.Exit(1)
		}
	}

	mem := guestmem.New(defaultMemorySize)
	cfg := armjit.NewConfig(armjit.WithCallbacks(mem.Callbacks()))
	jit := armjit.New(cfg)
	jit.Registers()[15] = uint32(entry)

	if filename := flagSet.Arg(0); filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", filename, err)
			os.Exit(1)
		}
		mem.LoadAt(uint32(base), data)
		fmt.Printf("Loaded %d bytes at 0x%08x, entry 0x%08x\n", len(data), base, entry)
	}

	repl := newREPL(jit, mem)
	repl.run()
}

type repl struct {
	jit *armjit.JIT
	mem *guestmem.Memory

	fd           int
	oldTermState *term.State
}

func newREPL(j *armjit.JIT, mem *guestmem.Memory) *repl {
	return &repl{jit: j, mem: mem}
}

func (r *repl) run() {
	r.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(r.fd)
	if err == nil {
		r.oldTermState = oldState
		defer term.Restore(r.fd, r.oldTermState)
	} else {
		fmt.Fprintf(os.Stderr, "armjit-monitor: raw mode unavailable, falling back to line mode: %v\n", err)
	}

	fmt.Print("armjit-monitor. Type 'help' for commands.\r\n> ")
	var line []byte
	buf := make([]byte, 1)

	for {
		n, err := syscall.Read(r.fd, buf)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		switch b {
		case '\r', '\n':
			fmt.Print("\r\n")
			cmd := string(line)
			line = line[:0]
			if !r.dispatch(strings.TrimSpace(cmd)) {
				return
			}
			fmt.Print("> ")
		case 0x7F, 0x08:
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		case 0x03: // Ctrl-C
			fmt.Print("\r\n")
			return
		default:
			line = append(line, b)
			fmt.Printf("%c", b)
		}
	}
}

func (r *repl) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "help":
		r.printf("commands: run, step, halt, regs, disasm <addr>, poke <addr> <hex>, invalidate <addr> <len>, clear, quit")
	case "run":
		jit := r.jit
		jit.Run()
		r.printf("stopped at pc=0x%08x", jit.Registers()[15])
	case "step":
		r.mem.SetTickBudget(1)
		r.jit.Run()
		r.printf("stepped to pc=0x%08x", r.jit.Registers()[15])
	case "halt":
		r.jit.Halt()
	case "regs":
		r.printRegs()
	case "disasm":
		r.cmdDisasm(fields[1:])
	case "poke":
		r.cmdPoke(fields[1:])
	case "invalidate":
		r.cmdInvalidate(fields[1:])
	case "clear":
		r.jit.ClearCache()
		r.printf("cache cleared")
	case "quit", "exit":
		return false
	default:
		r.printf("unknown command %q", fields[0])
	}
	return true
}

func (r *repl) printRegs() {
	regs := r.jit.Registers()
	for i := 0; i < 16; i += 4 {
		r.printf("r%-2d=%08x  r%-2d=%08x  r%-2d=%08x  r%-2d=%08x",
			i, regs[i], i+1, regs[i+1], i+2, regs[i+2], i+3, regs[i+3])
	}
	r.printf("cpsr=%08x", r.jit.CPSR())
}

func (r *repl) cmdDisasm(args []string) {
	if len(args) == 0 {
		r.printf("usage: disasm <addr>")
		return
	}
	addr, err := parseUint(args[0])
	if err != nil {
		r.printf("bad address: %v", err)
		return
	}
	lines := r.jit.Disassemble(loc.Descriptor{PC: uint32(addr)})
	for _, l := range lines {
		r.printf("%s", l)
	}
}

func (r *repl) cmdPoke(args []string) {
	if len(args) < 2 {
		r.printf("usage: poke <addr> <hex-bytes>")
		return
	}
	addr, err := parseUint(args[0])
	if err != nil {
		r.printf("bad address: %v", err)
		return
	}
	data, err := hex.DecodeString(args[1])
	if err != nil {
		r.printf("bad hex payload: %v", err)
		return
	}
	r.mem.LoadAt(uint32(addr), data)
	r.jit.InvalidateRange(uint32(addr), uint32(len(data)))
	r.printf("poked %d bytes at 0x%08x and invalidated", len(data), addr)
}

func (r *repl) cmdInvalidate(args []string) {
	if len(args) < 2 {
		r.printf("usage: invalidate <addr> <len>")
		return
	}
	addr, err1 := parseUint(args[0])
	length, err2 := parseUint(args[1])
	if err1 != nil || err2 != nil {
		r.printf("bad arguments")
		return
	}
	r.jit.InvalidateRange(uint32(addr), uint32(length))
	r.printf("invalidated [0x%08x, 0x%08x)", addr, addr+length)
}

func (r *repl) printf(format string, args ...any) {
	fmt.Printf(format+"\r\n", args...)
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
