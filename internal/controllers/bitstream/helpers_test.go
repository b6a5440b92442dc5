package bitstream

import (
	"testing"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/flavioribeiro/donut-h264/internal/teststreaming"
	"github.com/stretchr/testify/require"
)

// primed returns a parser whose cache holds seq and pic.
func primed(t *testing.T, seq teststreaming.Sequence, pic teststreaming.Picture) (*Parser, *entities.ParameterSetCache) {
	t.Helper()
	cache := entities.NewParameterSetCache()
	p := NewParser(cache)

	sps, err := p.ParseSequence(seq.RBSP())
	require.NoError(t, err)
	cache.PutSequence(sps)

	pps, err := p.ParsePicture(pic.RBSP())
	require.NoError(t, err)
	cache.PutPicture(pps)

	return p, cache
}
