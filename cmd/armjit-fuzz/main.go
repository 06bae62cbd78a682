// Command armjit-fuzz is a Lua-scripted conformance and fuzz harness: each
// script poke-loads guest memory, drives the façade through Run/
// InvalidateRange/SaveContext, and asserts on the resulting architectural
// state. New conformance scenarios and randomized fuzz programs are added
// as Lua files, no recompilation needed. The teacher's go.mod already
// requires gopher-lua without ever calling it; this is that call site.
package main

import (
	"fmt"
	"math/rand"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/vexdbt/armjit/internal/guestmem"

	"github.com/vexdbt/armjit"
)

const defaultMemorySize = 16 * 1024 * 1024

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: armjit-fuzz <script.lua> [script.lua ...]")
		os.Exit(1)
	}

	failed := 0
	for _, path := range os.Args[1:] {
		if err := runScript(path); err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("PASS %s\n", path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func runScript(path string) error {
	mem := guestmem.New(defaultMemorySize)
	jit := armjit.New(armjit.NewConfig(armjit.WithCallbacks(mem.Callbacks())))

	h := &harness{jit: jit, mem: mem, rng: rand.New(rand.NewSource(1))}

	L := lua.NewState()
	defer L.Close()
	h.register(L)

	return L.DoFile(path)
}

// harness closes over one JIT/Memory pair and exposes it to Lua as a set
// of global functions a script calls directly — the gopher-lua idiom of
// wrapping Go closures in lua.NewFunction rather than building a
// reflection-based binding layer.
type harness struct {
	jit *armjit.JIT
	mem *guestmem.Memory
	rng *rand.Rand

	savedContexts []armjit.Context
}

func (h *harness) register(L *lua.LState) {
	L.SetGlobal("poke32", L.NewFunction(h.luaPoke32))
	L.SetGlobal("peek32", L.NewFunction(h.luaPeek32))
	L.SetGlobal("setreg", L.NewFunction(h.luaSetReg))
	L.SetGlobal("getreg", L.NewFunction(h.luaGetReg))
	L.SetGlobal("set_entry", L.NewFunction(h.luaSetEntry))
	L.SetGlobal("run", L.NewFunction(h.luaRun))
	L.SetGlobal("halt", L.NewFunction(h.luaHalt))
	L.SetGlobal("invalidate_range", L.NewFunction(h.luaInvalidateRange))
	L.SetGlobal("clear_cache", L.NewFunction(h.luaClearCache))
	L.SetGlobal("save_context", L.NewFunction(h.luaSaveContext))
	L.SetGlobal("load_context", L.NewFunction(h.luaLoadContext))
	L.SetGlobal("rand_word", L.NewFunction(h.luaRandWord))
	L.SetGlobal("fail", L.NewFunction(h.luaFail))
}

func (h *harness) luaPoke32(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	value := uint32(L.CheckInt64(2))
	h.mem.Write32(addr, value)
	return 0
}

func (h *harness) luaPeek32(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(h.mem.Read32(addr)))
	return 1
}

func (h *harness) luaSetReg(L *lua.LState) int {
	n := L.CheckInt(1)
	value := uint32(L.CheckInt64(2))
	if n < 0 || n > 15 {
		L.RaiseError("setreg: register index %d out of range", n)
	}
	h.jit.Registers()[n] = value
	return 0
}

func (h *harness) luaGetReg(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 || n > 15 {
		L.RaiseError("getreg: register index %d out of range", n)
	}
	L.Push(lua.LNumber(h.jit.Registers()[n]))
	return 1
}

func (h *harness) luaSetEntry(L *lua.LState) int {
	h.jit.Registers()[15] = uint32(L.CheckInt64(1))
	return 0
}

func (h *harness) luaRun(L *lua.LState) int {
	ticks := uint64(1 << 32)
	if L.GetTop() >= 1 {
		ticks = uint64(L.CheckInt64(1))
	}
	h.mem.SetTickBudget(ticks)
	h.jit.Run()
	return 0
}

func (h *harness) luaHalt(L *lua.LState) int {
	h.jit.Halt()
	return 0
}

func (h *harness) luaInvalidateRange(L *lua.LState) int {
	start := uint32(L.CheckInt64(1))
	length := uint32(L.CheckInt64(2))
	h.jit.InvalidateRange(start, length)
	return 0
}

func (h *harness) luaClearCache(L *lua.LState) int {
	h.jit.ClearCache()
	return 0
}

func (h *harness) luaSaveContext(L *lua.LState) int {
	h.savedContexts = append(h.savedContexts, h.jit.SaveContext())
	L.Push(lua.LNumber(len(h.savedContexts) - 1))
	return 1
}

func (h *harness) luaLoadContext(L *lua.LState) int {
	idx := L.CheckInt(1)
	if idx < 0 || idx >= len(h.savedContexts) {
		L.RaiseError("load_context: no saved context %d", idx)
	}
	h.jit.LoadContext(h.savedContexts[idx])
	return 0
}

func (h *harness) luaRandWord(L *lua.LState) int {
	L.Push(lua.LNumber(h.rng.Uint32()))
	return 1
}

func (h *harness) luaFail(L *lua.LState) int {
	L.RaiseError("%s", L.CheckString(1))
	return 0
}
