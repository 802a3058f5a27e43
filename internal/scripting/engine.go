package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/MJE43/tokentrek-go/internal/cache"
	"github.com/MJE43/tokentrek-go/internal/grid"
	"github.com/MJE43/tokentrek-go/internal/world"
)

// Player is the game surface the engine drives. world.Session satisfies it.
type Player interface {
	MoveTo(lat, lng float64) []world.CacheView
	Collect(tile grid.Tile) (cache.Token, bool, error)
	Deposit(tile grid.Tile, tok cache.Token) (int, error)
	ActiveCaches() []world.CacheView
	Player() world.PlayerView
}

// RunResult is returned when a script run finishes.
type RunResult struct {
	Stats Statistics `json:"stats"`
	Logs  []LogEntry `json:"logs"`
	Error string     `json:"error,omitempty"`
}

// Engine executes an autoplay script against a player. Runs are
// synchronous: the script's step() is called once per iteration until it
// calls stop(), the step budget runs out, or the context is cancelled.
type Engine struct {
	player   Player
	maxSteps int
}

// DefaultMaxSteps bounds a run when the caller does not set a budget.
const DefaultMaxSteps = 10000

// NewEngine creates an engine bound to the player.
func NewEngine(player Player, maxSteps int) *Engine {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Engine{player: player, maxSteps: maxSteps}
}

// Run executes the script source. The source must define step().
func (e *Engine) Run(ctx context.Context, source string) (RunResult, error) {
	vm := NewVM()
	stats := &Statistics{
		Balance:      e.player.Player().Balance,
		StartBalance: e.player.Player().Balance,
	}
	e.injectGameAPI(vm, stats)

	if err := vm.Execute(source); err != nil {
		return RunResult{Logs: vm.GetLogs(), Error: err.Error()}, err
	}
	if !vm.HasStepFunc() {
		err := fmt.Errorf("script must define a step() function")
		return RunResult{Logs: vm.GetLogs(), Error: err.Error()}, err
	}

	for i := 0; i < e.maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		if vm.IsStopRequested() {
			break
		}
		if err := vm.CallStep(); err != nil {
			stats.Balance = e.player.Player().Balance
			return RunResult{Stats: *stats, Logs: vm.GetLogs(), Error: err.Error()}, err
		}
		stats.Steps++
	}

	stats.Balance = e.player.Player().Balance
	return RunResult{Stats: *stats, Logs: vm.GetLogs()}, nil
}

// injectGameAPI exposes move/collect/deposit and read-only state to the
// script. Errors are surfaced to the script as exceptions.
func (e *Engine) injectGameAPI(vm *VM, stats *Statistics) {
	rt := vm.runtime

	// position() -> {lat, lng}
	vm.Set("position", func(call goja.FunctionCall) goja.Value {
		p := e.player.Player().Position
		return rt.ToValue(map[string]any{"lat": p.Lat, "lng": p.Lng})
	})

	// balance() -> int
	vm.Set("balance", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(e.player.Player().Balance)
	})

	// caches() -> [{i, j, count}]
	vm.Set("caches", func(call goja.FunctionCall) goja.Value {
		views := e.player.ActiveCaches()
		out := make([]map[string]any, len(views))
		for idx, v := range views {
			out[idx] = map[string]any{"i": v.Tile.I, "j": v.Tile.J, "count": v.Count}
		}
		return rt.ToValue(out)
	})

	// moveTo(lat, lng)
	vm.Set("moveTo", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(rt.ToValue("moveTo requires lat and lng"))
		}
		before := e.player.Player().Position
		lat := call.Arguments[0].ToFloat()
		lng := call.Arguments[1].ToFloat()
		e.player.MoveTo(lat, lng)
		stats.Moves++
		stats.DistanceMeters += grid.DistanceMeters(before, grid.Point{Lat: lat, Lng: lng})
		return goja.Undefined()
	})

	// move(dLat, dLng) — relative to the current position
	vm.Set("move", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(rt.ToValue("move requires dLat and dLng"))
		}
		before := e.player.Player().Position
		lat := before.Lat + call.Arguments[0].ToFloat()
		lng := before.Lng + call.Arguments[1].ToFloat()
		e.player.MoveTo(lat, lng)
		stats.Moves++
		stats.DistanceMeters += grid.DistanceMeters(before, grid.Point{Lat: lat, Lng: lng})
		return goja.Undefined()
	})

	// collect(i, j) -> token string, or null when the cache is empty
	vm.Set("collect", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(rt.ToValue("collect requires i and j"))
		}
		tile := grid.Tile{
			I: int(call.Arguments[0].ToInteger()),
			J: int(call.Arguments[1].ToInteger()),
		}
		tok, ok, err := e.player.Collect(tile)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		if !ok {
			stats.EmptyCollects++
			return goja.Null()
		}
		stats.Collects++
		return rt.ToValue(string(tok))
	})

	// deposit(i, j, token?) -> new cache count
	vm.Set("deposit", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(rt.ToValue("deposit requires i and j"))
		}
		tile := grid.Tile{
			I: int(call.Arguments[0].ToInteger()),
			J: int(call.Arguments[1].ToInteger()),
		}
		var tok cache.Token
		if len(call.Arguments) > 2 && !goja.IsUndefined(call.Arguments[2]) && !goja.IsNull(call.Arguments[2]) {
			tok = cache.Token(call.Arguments[2].String())
		}
		count, err := e.player.Deposit(tile, tok)
		if err != nil {
			panic(rt.ToValue(err.Error()))
		}
		stats.Deposits++
		return rt.ToValue(count)
	})
}
