package script

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// luaCall is one operation queued for the Lua goroutine.
type luaCall struct {
	fn     func(L *lua.LState) error
	result chan error
}

// executor owns an LState and serializes all operations on it through
// a single goroutine. An LState is not goroutine-safe, so every script
// invocation from any console goroutine funnels through here.
type executor struct {
	L     *lua.LState
	queue chan *luaCall
	done  chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newExecutor(L *lua.LState) *executor {
	e := &executor{
		L:     L,
		queue: make(chan *luaCall, 16),
		done:  make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// run processes queued calls. It is the only goroutine that touches
// the LState after construction.
func (e *executor) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			e.drain()
			e.L.Close()
			return
		case call := <-e.queue:
			err := e.protect(call.fn)
			call.result <- err
			close(call.result)
		}
	}
}

// protect runs fn with panic recovery so a misbehaving script cannot
// kill the executor goroutine.
func (e *executor) protect(fn func(L *lua.LState) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn(e.L)
}

// drain fails any calls still queued at shutdown.
func (e *executor) drain() {
	for {
		select {
		case call := <-e.queue:
			call.result <- ErrExecutorClosed
			close(call.result)
		default:
			return
		}
	}
}

// execute queues fn and blocks until it has run or ctx is done. A
// cancelled caller detaches; the call itself still runs on the Lua
// goroutine in queue order.
func (e *executor) execute(ctx context.Context, fn func(L *lua.LState) error) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	call := &luaCall{fn: fn, result: make(chan error, 1)}
	select {
	case e.queue <- call:
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-call.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close shuts the executor down and waits for the Lua goroutine.
func (e *executor) close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.done)
		e.wg.Wait()
	})
}
