// Package export renders a collection's clip playlist as a CMX-3600 EDL so
// the highlight sequence can be handed to an editing tool.
package export

// ResolvedClip is one playlist entry after a collection's clip ids have
// been resolved against the owning project. Times are source-video offsets.
type ResolvedClip struct {
	ClipID   string
	ClipName string
	StartMs  int
	EndMs    int
}
