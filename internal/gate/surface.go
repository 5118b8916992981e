package gate

import (
	"dropsense/pkg/types"
)

// Region decides whether a pointer position is on a recognized surface
type Region interface {
	Contains(p types.Point) bool
}

// RegionFunc adapts a function to Region
type RegionFunc func(p types.Point) bool

// Contains calls f(p)
func (f RegionFunc) Contains(p types.Point) bool {
	return f(p)
}

// RectRegion is a fixed rectangle
type RectRegion types.Rect

// Contains reports whether p lies in the rectangle
func (r RectRegion) Contains(p types.Point) bool {
	return types.Rect(r).Contains(p)
}

// WindowInfo is one on-screen window, front to back
type WindowInfo struct {
	Owner  string     `json:"owner"`
	Bounds types.Rect `json:"bounds"`
}

// DesktopEnvironment reports the windowing state needed for hit testing.
// A platform shim provides it; tests use StaticEnvironment.
type DesktopEnvironment interface {
	// FrontmostBundleID returns the bundle id of the active application
	FrontmostBundleID() string
	// Windows returns on-screen windows front to back, desktop excluded
	Windows() []WindowInfo
}

// StaticEnvironment is a fixed DesktopEnvironment
type StaticEnvironment struct {
	Frontmost string
	OnScreen  []WindowInfo
}

func (e StaticEnvironment) FrontmostBundleID() string { return e.Frontmost }
func (e StaticEnvironment) Windows() []WindowInfo     { return e.OnScreen }

// DesktopRegion recognizes the file manager and the bare desktop
type DesktopRegion struct {
	Screen     types.Rect
	Env        DesktopEnvironment
	BundleIDs  []string
	OwnerNames []string
}

// Contains applies the desktop hit test:
//  1. the file manager is frontmost
//  2. the topmost window under p belongs to the file manager (any other owner rejects)
//  3. no window covers p and p is on screen
func (d *DesktopRegion) Contains(p types.Point) bool {
	if d.Env != nil {
		if contains(d.BundleIDs, d.Env.FrontmostBundleID()) {
			return true
		}
		for _, w := range d.Env.Windows() {
			if !w.Bounds.Contains(p) {
				continue
			}
			return contains(d.OwnerNames, w.Owner)
		}
	}
	return d.Screen.Contains(p)
}

// Anchor returns a point that lies on the desktop when nothing covers it
func (d *DesktopRegion) Anchor() types.Point {
	return d.Screen.Center()
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Surface is the transparent detection view the gate shows while armed
type Surface interface {
	Show()
	Hide()
}

// NopSurface is a Surface with nothing to draw
type NopSurface struct{}

func (NopSurface) Show() {}
func (NopSurface) Hide() {}
