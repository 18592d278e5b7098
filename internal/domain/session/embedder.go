package session

import (
	"fmt"

	"github.com/winpane/winpane/internal/winapi"
)

// Embed makes a live top-level window behave as a child filling the
// container: style bits rewritten (caption and thick frame cleared,
// child and visible set), window reparented into the container surface,
// then one fit pass that forces the frame recompute, applies the
// container's client-area size, and shows the window without touching
// z-order.
//
// Must run on the UI loop; the Registry enforces that. If the handle
// died between discovery and embedding (a fast-exiting process), the
// embed is abandoned with ErrEmbedRace.
func Embed(win winapi.Windowing, h winapi.Handle, container winapi.Handle, geom Geometry) error {
	if !win.IsWindow(h) {
		return ErrEmbedRace
	}
	if err := win.SetChildStyle(h); err != nil {
		return fmt.Errorf("%w: set child style: %v", ErrEmbedRace, err)
	}
	if err := win.Reparent(h, container); err != nil {
		return fmt.Errorf("%w: reparent: %v", ErrEmbedRace, err)
	}
	if err := win.FitToContainer(h, geom.Width, geom.Height); err != nil {
		return fmt.Errorf("%w: fit to container: %v", ErrEmbedRace, err)
	}
	return nil
}
