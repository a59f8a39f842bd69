package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/quack/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Actions are the widget operations hotkeys can trigger.
type Actions interface {
	Follow(ctx context.Context) error
	Pin(ctx context.Context) error
}

// Binding ties a key sequence to an action.
type Binding struct {
	Name string
	Keys string
	Run  func(ctx context.Context) error
}

// Bindings returns the hotkeys to register. Empty key sequences are skipped.
func Bindings(actions Actions, followKeys, pinKeys string) []Binding {
	var out []Binding
	if followKeys != "" {
		out = append(out, Binding{Name: "follow", Keys: followKeys, Run: actions.Follow})
	}
	if pinKeys != "" {
		out = append(out, Binding{Name: "pin", Keys: pinKeys, Run: actions.Pin})
	}
	return out
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	ctx    context.Context
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Hotkeys need an X11 backend;
// other backends yield platform.ErrUnsupported. Callbacks run with ctx.
func NewHandler(ctx context.Context, backend platform.Backend, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("global hotkeys: %w", platform.ErrUnsupported)
	}
	if logger == nil {
		logger = slog.Default()
	}

	xu := accessor.XUtil()
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   accessor.RootWindow(),
		ctx:    ctx,
		logger: logger,
	}, nil
}

// Register connects every binding. The action runs on its own goroutine so
// the X event loop keeps serving events during animations.
func (h *Handler) Register(bindings []Binding) error {
	for _, b := range bindings {
		b := b
		err := h.RegisterFunc(b.Keys, func() {
			h.logger.Debug("hotkey triggered", "action", b.Name, "keys", b.Keys)
			go func() {
				if err := b.Run(h.ctx); err != nil {
					h.logger.Warn("hotkey action failed", "action", b.Name, "error", err)
				}
			}()
		})
		if err != nil {
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.Name, b.Keys, err)
		}
		h.logger.Info("hotkey registered", "action", b.Name, "keys", b.Keys)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the lock modifiers, including
// none, so hotkeys fire regardless of lock state.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
