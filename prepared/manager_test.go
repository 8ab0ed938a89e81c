package prepared

import (
	"sync"
	"testing"

	"github.com/gogpu/gsg/driver"
)

func TestContext_Zero(t *testing.T) {
	var c Context
	if c.Valid() {
		t.Error("zero context must be invalid")
	}
	if c.String() != "null" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestManager_RegisterLookup(t *testing.T) {
	m := NewManager()
	ctx := m.Register(KindTexture, Entry{Handle: 7, Source: 42, Modified: 1})
	if !ctx.Valid() || ctx.Kind() != KindTexture {
		t.Fatalf("Register returned %v", ctx)
	}

	got, e, ok := m.Lookup(KindTexture, 42)
	if !ok || got != ctx || e.Handle != 7 {
		t.Errorf("Lookup = %v %+v %v", got, e, ok)
	}
	if _, _, ok := m.Lookup(KindShader, 42); ok {
		t.Error("tables must be separate per kind")
	}
	if m.Handle(ctx) != 7 {
		t.Errorf("Handle() = %d, want 7", m.Handle(ctx))
	}
	if m.Len(KindTexture) != 1 {
		t.Errorf("Len() = %d, want 1", m.Len(KindTexture))
	}

	again := m.Register(KindTexture, Entry{Handle: 8, Source: 42})
	if again != ctx || m.Handle(ctx) != 8 || m.Len(KindTexture) != 1 {
		t.Error("registering a live source must update it in place")
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager()
	ctx := m.Register(KindVertexBuffer, Entry{Handle: 1, Source: 5, Modified: 1})
	old, ok := m.Update(ctx, 2, 3)
	if !ok || old != 1 {
		t.Fatalf("Update = %d, %v", old, ok)
	}
	e, _ := m.Get(ctx)
	if e.Handle != 2 || e.Modified != 3 {
		t.Errorf("entry after Update = %+v", e)
	}
}

func TestManager_ReleaseStale(t *testing.T) {
	m := NewManager()
	ctx := m.Register(KindShader, Entry{Handle: 3, Source: 9})

	e, ok := m.Release(ctx)
	if !ok || e.Handle != 3 {
		t.Fatalf("Release = %+v, %v", e, ok)
	}
	if _, ok := m.Release(ctx); ok {
		t.Error("second release must be rejected")
	}
	if _, _, ok := m.Lookup(KindShader, 9); ok {
		t.Error("released source still indexed")
	}

	// The slot is reused with a new generation.
	fresh := m.Register(KindShader, Entry{Handle: 4, Source: 10})
	if fresh == ctx {
		t.Fatal("reused slot kept the old generation")
	}
	if _, ok := m.Release(ctx); ok {
		t.Error("stale context released a reused slot")
	}
	if m.Handle(fresh) != 4 {
		t.Error("stale release disturbed the live entry")
	}
	if _, ok := m.Release(Context{}); ok {
		t.Error("null context released")
	}
}

func TestManager_DrainAndSnapshot(t *testing.T) {
	m := NewManager()
	for i := uint64(1); i <= 3; i++ {
		m.Register(KindIndexBuffer, Entry{Handle: driver.Handle(i), Source: i})
	}
	q := m.Register(KindQuery, Entry{Handle: 99})

	snap := m.Snapshot(KindIndexBuffer)
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d", len(snap))
	}
	m.Release(snap[1])
	if len(m.Snapshot(KindIndexBuffer)) != 2 {
		t.Error("released context still in snapshot")
	}

	drained := m.Drain(KindIndexBuffer)
	if len(drained) != 2 || m.Len(KindIndexBuffer) != 0 {
		t.Errorf("Drain returned %d, Len = %d", len(drained), m.Len(KindIndexBuffer))
	}
	if len(m.Drain(KindIndexBuffer)) != 0 {
		t.Error("draining an empty table returned entries")
	}
	if m.Handle(q) != 99 {
		t.Error("drain touched another kind")
	}
	if _, _, ok := m.Lookup(KindQuery, 0); ok {
		t.Error("sourceless entries must not be indexed")
	}
}

func TestManager_Staging(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Stage(Request{Op: OpPrepare, Object: i})
		}(i)
	}
	wg.Wait()

	if m.StagedLen() != 8 {
		t.Errorf("StagedLen() = %d, want 8", m.StagedLen())
	}
	reqs := m.TakeStaged()
	if len(reqs) != 8 || m.StagedLen() != 0 {
		t.Errorf("TakeStaged returned %d, %d left", len(reqs), m.StagedLen())
	}
}
