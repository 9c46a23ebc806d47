// Package registry implements the device registry: per-device capability
// profiles, the triple-buffered state snapshots, the thread-safe mutation
// API platform callbacks write through, and the lock-free query API the
// interaction processor reads once per frame.
//
// Concurrency contract: mutators and AdvanceFrame take the registry mutex;
// they only touch the writable slot of each device's history buffer. Queries
// take no lock and only touch the committed current and previous slots,
// which AdvanceFrame is the sole rotation point for. Queries must therefore
// run on the frame thread, between AdvanceFrame calls.
package registry

import (
	"sync"
	"time"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/logging"
)

// Registry tracks the fixed set of device slots.
type Registry struct {
	mu      sync.Mutex
	devices [device.MaxTypes]*connectedDevice

	log *logging.Logger

	// now supplies wall-clock samples for touch velocity filtering. Device
	// timelines only advance at frame boundaries, so touch samples arriving
	// mid-frame need their own clock.
	now func() time.Time
}

// connectedDevice pairs a device's immutable profile with its state buffer.
type connectedDevice struct {
	profile device.Profile
	buffer  *device.HistoryBuffer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for clamp warnings and contract failures.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithClock sets the wall clock used for touch velocity sampling. Tests
// inject a fake clock to make filtered velocities deterministic.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New returns an empty registry with no devices connected.
func New(opts ...Option) *Registry {
	r := &Registry{
		log: logging.Default().WithComponent("registry"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect attaches a device with the given profile. The profile is copied
// and immutable until Disconnect. Connecting an invalid slot or a slot that
// is already connected is a contract violation and leaves the registry
// unchanged.
func (r *Registry) Connect(d device.Type, profile device.Profile) {
	if !contract.Expectf(d.Valid(), "connect: invalid device %d", d) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !contract.Expectf(r.devices[d] == nil, "connect: %v already connected", d) {
		return
	}

	r.devices[d] = &connectedDevice{
		profile: profile,
		buffer:  device.NewHistoryBuffer(device.NewState(&profile)),
	}
	r.log.Info("connected %v (profile %q)", d, profile.Name)
}

// Disconnect detaches a device and frees its buffer. Disconnecting a device
// that is not connected is a contract violation.
func (r *Registry) Disconnect(d device.Type) {
	if !contract.Expectf(d.Valid(), "disconnect: invalid device %d", d) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !contract.Expectf(r.devices[d] != nil, "disconnect: %v not connected", d) {
		return
	}

	r.devices[d] = nil
	r.log.Info("disconnected %v", d)
}

// IsConnected reports whether a device is connected.
func (r *Registry) IsConnected(d device.Type) bool {
	if !d.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices[d] != nil
}

// Profile returns the profile a device was connected with.
func (r *Registry) Profile(d device.Type) (device.Profile, bool) {
	if !d.Valid() {
		return device.Profile{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if dev := r.devices[d]; dev != nil {
		return dev.profile, true
	}
	return device.Profile{}, false
}

// AdvanceFrame commits the in-flight frame on every connected device:
// each buffer rotates so the writable slot becomes the new current
// snapshot, stamped dt past the old one.
func (r *Registry) AdvanceFrame(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dev := range r.devices {
		if dev != nil {
			dev.buffer.Advance(dt)
		}
	}
}

// lookup returns the device entry for mutators and value queries. A nil
// return means the contract check failed and the caller must degrade to its
// documented neutral value. Mutators call this under the lock; queries call
// it lock-free, which is safe because Connect and Disconnect happen on the
// frame thread.
func (r *Registry) lookup(op string, d device.Type) *connectedDevice {
	if !contract.Expectf(d.Valid(), "%s: invalid device %d", op, d) {
		return nil
	}
	dev := r.devices[d]
	if !contract.Expectf(dev != nil, "%s: %v not connected", op, d) {
		return nil
	}
	return dev
}

// peek is lookup without the contract checks, for capability queries where
// a disconnected device is an ordinary false answer.
func (r *Registry) peek(d device.Type) *connectedDevice {
	if !d.Valid() {
		return nil
	}
	return r.devices[d]
}
