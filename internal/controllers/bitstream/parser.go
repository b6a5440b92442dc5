// Package bitstream parses the H.264 syntax structures the access unit
// framer needs: sequence and picture parameter sets, slice headers and SEI
// messages. Payloads are expected without their NAL header byte.
package bitstream

import (
	"github.com/flavioribeiro/donut-h264/internal/entities"
)

// Parser resolves parameter set references through the session cache. It
// never writes to the cache, storing a parsed set is up to the caller.
type Parser struct {
	cache *entities.ParameterSetCache
}

var _ entities.FieldParser = (*Parser)(nil)

func NewParser(cache *entities.ParameterSetCache) *Parser {
	return &Parser{cache: cache}
}
