package backend_test

import (
	"errors"
	"testing"

	"github.com/gogpu/gsg/backend"
	"github.com/gogpu/gsg/backend/recording"
	"github.com/gogpu/gsg/driver"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	// Recording backend is auto-registered via init()
	if !backend.IsRegistered(backend.BackendRecording) {
		t.Error("recording backend should be auto-registered")
	}

	b := backend.Get(backend.BackendRecording)
	if b == nil {
		t.Fatal("Get(recording) returned nil")
	}
	if b.Name() != backend.BackendRecording {
		t.Errorf("Get(recording).Name() = %q, want %q", b.Name(), backend.BackendRecording)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	if b := backend.Get("nonexistent"); b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailable(t *testing.T) {
	found := false
	for _, name := range backend.Available() {
		if name == backend.BackendRecording {
			found = true
			break
		}
	}
	if !found {
		t.Error("Available() should include 'recording'")
	}
}

func TestRegistryDefault(t *testing.T) {
	b := backend.Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	t.Logf("Default() returned %q", b.Name())
}

func TestRegistryMustDefault(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustDefault() panicked: %v", r)
		}
	}()
	if backend.MustDefault() == nil {
		t.Error("MustDefault() returned nil")
	}
}

func TestRegistryInitDefault(t *testing.T) {
	b, err := backend.InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	defer b.Close()
}

func TestRegistryOpen(t *testing.T) {
	if _, err := backend.Open("nonexistent"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}

	backend.Register("broken", func() driver.Backend {
		r := recording.New()
		r.FailNext(recording.OpReset, driver.ErrDeviceLost)
		return r
	})
	defer backend.Unregister("broken")

	if _, err := backend.Open("broken"); !errors.Is(err, driver.ErrDeviceLost) {
		t.Errorf("Open(broken) error = %v, want ErrDeviceLost", err)
	}
}

func TestRegistryUnregister(t *testing.T) {
	backend.Register("test-backend", func() driver.Backend { return recording.New() })

	if !backend.IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	backend.Unregister("test-backend")

	if backend.IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryIsRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendRecording) {
		t.Error("recording should be registered")
	}
	if backend.IsRegistered("nonexistent") {
		t.Error("nonexistent should not be registered")
	}
}
