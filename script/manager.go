package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Command is a loaded scripted command ready to register on a console.
type Command struct {
	Name        string
	Description string

	// Handler runs the script's run(args) function. Safe from any
	// goroutine; invocations are serialized and bounded by the
	// manifest timeout.
	Handler func(ctx context.Context, args []string) (string, error)
}

// loaded pairs a manifest with its captured run function.
type loaded struct {
	manifest Manifest
	timeout  time.Duration
	fn       lua.LValue
}

// Manager owns the Lua state and the scripts loaded into it.
type Manager struct {
	exec *executor

	mu      sync.Mutex
	scripts map[string]*loaded
}

// NewManager creates a manager with a sandboxed Lua state.
func NewManager() (*Manager, error) {
	L, err := newSandboxedState()
	if err != nil {
		return nil, err
	}
	return &Manager{
		exec:    newExecutor(L),
		scripts: make(map[string]*loaded),
	}, nil
}

// newSandboxedState builds an LState with only safe libraries and the
// code-loading globals removed.
func newSandboxedState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("opening lua library %s: %w", lib.name, err)
		}
	}

	// Scripts must not be able to load further code from disk.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
	return L, nil
}

// LoadDir loads every command subdirectory under dir. A failing script
// is skipped and reported; it never prevents the others from loading.
// A missing directory is not an error.
func (m *Manager) LoadDir(dir string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return []error{fmt.Errorf("reading script dir %s: %w", dir, err)}
	}

	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := m.loadOne(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// loadOne loads a single command directory.
func (m *Manager) loadOne(dir string) error {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return err
	}
	timeout, err := manifest.timeout()
	if err != nil {
		return err
	}

	s := &loaded{manifest: manifest, timeout: timeout}
	entry := filepath.Join(dir, manifest.Entry)

	err = m.exec.execute(context.Background(), func(L *lua.LState) error {
		if err := L.DoFile(entry); err != nil {
			return fmt.Errorf("loading %s: %w", entry, err)
		}
		fn := L.GetGlobal("run")
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("%s: %w", entry, ErrNoRunFunction)
		}
		// Clear the global so the next script cannot inherit it.
		L.SetGlobal("run", lua.LNil)
		s.fn = fn
		return nil
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.scripts[manifest.Name] = s
	m.mu.Unlock()
	return nil
}

// Commands lists loaded commands sorted by name.
func (m *Manager) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmds := make([]Command, 0, len(m.scripts))
	for _, s := range m.scripts {
		s := s
		cmds = append(cmds, Command{
			Name:        s.manifest.Name,
			Description: s.manifest.Description,
			Handler: func(ctx context.Context, args []string) (string, error) {
				return m.invoke(ctx, s, args)
			},
		})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// invoke runs one script call on the executor goroutine with the
// manifest timeout applied.
func (m *Manager) invoke(ctx context.Context, s *loaded, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var out string
	err := m.exec.execute(ctx, func(L *lua.LState) error {
		L.SetContext(ctx)
		defer L.RemoveContext()

		tbl := L.NewTable()
		for _, a := range args {
			tbl.Append(lua.LString(a))
		}
		if err := L.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, tbl); err != nil {
			return fmt.Errorf("script %q: %w", s.manifest.Name, err)
		}
		ret := L.Get(-1)
		L.Pop(1)
		if ret != lua.LNil {
			out = lua.LVAsString(ret)
		}
		return nil
	})
	return out, err
}

// Close shuts down the Lua executor. Loaded handlers fail with
// ErrExecutorClosed afterwards.
func (m *Manager) Close() {
	m.exec.close()
}
