package reporting

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducminhle1904/trade-setup-engine/internal/market"
)

// DefaultOutputPath returns results/<ASSET>/<ASSET>_<timestamp>.<ext>
func DefaultOutputPath(dir, asset, ext string, at time.Time) string {
	s := market.NormalizeSymbol(asset)
	if s == "" {
		s = "UNKNOWN"
	}
	if dir == "" {
		dir = "results"
	}
	ext = strings.TrimPrefix(ext, ".")

	return filepath.Join(dir, s, fmt.Sprintf("%s_%s.%s", s, at.UTC().Format("20060102_150405"), ext))
}
