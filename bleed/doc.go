// Package bleed implements alpha bleeding: fully transparent pixels that
// border opaque content receive colour averaged from their neighbours while
// their alpha stays zero, so texture filtering and mipmapping never blend in
// undefined colour from transparent regions.
//
// The engine classifies every pixel once and then propagates colour outwards,
// one ring of pixels per pass, until no pixel that can be reached from an
// opaque source is left without colour:
//
//	out, err := bleed.Bleed(buf)
//
// Averages use truncating integer division. Pixels resolved during a pass
// only become colour sources in the following pass, which keeps the output
// independent of the order in which a pass visits its pixels.
package bleed
