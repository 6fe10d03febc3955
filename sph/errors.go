package sph

import "errors"

// ErrDegenerateDensity is the sentinel fatal error for a particle whose
// propagated density is exactly zero, indicating no neighbors (not even
// itself) fell within 2h of it — impossible unless the tree or kernel is
// miscomputed (§7).
var ErrDegenerateDensity = errors.New("sph: degenerate (zero) density")
