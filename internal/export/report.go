package export

// Report accumulates what one merge did. It is returned from Merge so
// callers can render it; the pipeline itself only logs.
type Report struct {
	Mode Mode

	KeptItems    []string
	RemovedItems []string
	AddedItems   []string

	KeptImages    []string
	RemovedImages []string
	AddedImages   []string

	// UsedImages maps an image name to the kept items referencing it.
	// RemovalCandidates maps an image name to the dropped (or baked)
	// items that referenced it; candidates are only deleted under the
	// most aggressive mode and only when no kept item still uses them.
	UsedImages        map[string][]string
	RemovalCandidates map[string][]string

	// MissingPlayfieldPhysics is set when a playfield bake exists but
	// the source has no playfield_mesh item to hand physics to.
	MissingPlayfieldPhysics bool

	// Digest is the recomputed integrity digest written as the trailing
	// stream.
	Digest []byte
}

func newReport(mode Mode) *Report {
	return &Report{
		Mode:              mode,
		UsedImages:        make(map[string][]string),
		RemovalCandidates: make(map[string][]string),
	}
}

func (r *Report) markUsed(image, item string) {
	r.UsedImages[image] = append(r.UsedImages[image], item)
}

func (r *Report) markRemovalCandidate(image, item string) {
	r.RemovalCandidates[image] = append(r.RemovalCandidates[image], item)
}
