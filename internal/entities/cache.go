package entities

// ParameterSetCache maps parameter set ids to the last parsed SPS/PPS. An id
// that is redefined replaces the previous entry.
type ParameterSetCache struct {
	sequences map[uint]*SPS
	pictures  map[uint]*PPS
	last      *SPS
}

func NewParameterSetCache() *ParameterSetCache {
	return &ParameterSetCache{
		sequences: make(map[uint]*SPS),
		pictures:  make(map[uint]*PPS),
	}
}

func (c *ParameterSetCache) PutSequence(sps *SPS) {
	c.sequences[sps.ID] = sps
	c.last = sps
}

func (c *ParameterSetCache) PutPicture(pps *PPS) {
	c.pictures[pps.ID] = pps
}

func (c *ParameterSetCache) Sequence(id uint) (*SPS, bool) {
	sps, ok := c.sequences[id]
	return sps, ok
}

// LastSequence returns the most recently stored SPS.
func (c *ParameterSetCache) LastSequence() (*SPS, bool) {
	return c.last, c.last != nil
}

func (c *ParameterSetCache) Picture(id uint) (*PPS, bool) {
	pps, ok := c.pictures[id]
	return pps, ok
}

// Len returns the number of cached sequence and picture parameter sets.
func (c *ParameterSetCache) Len() (sequences, pictures int) {
	return len(c.sequences), len(c.pictures)
}

// ParameterSets returns the raw SPS and PPS units ordered by id, the form a
// decoder wants in front of a keyframe.
func (c *ParameterSetCache) ParameterSets() (sps [][]byte, pps [][]byte) {
	for id := uint(0); id < 32 && len(sps) < len(c.sequences); id++ {
		if s, ok := c.sequences[id]; ok && len(s.Raw) > 0 {
			sps = append(sps, s.Raw)
		}
	}
	for id := uint(0); id < 256 && len(pps) < len(c.pictures); id++ {
		if p, ok := c.pictures[id]; ok && len(p.Raw) > 0 {
			pps = append(pps, p.Raw)
		}
	}
	return sps, pps
}

func (c *ParameterSetCache) Reset() {
	c.sequences = make(map[uint]*SPS)
	c.pictures = make(map[uint]*PPS)
	c.last = nil
}
