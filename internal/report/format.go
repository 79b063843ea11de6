package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/newthinker/riskon/internal/core"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatFlat  = "flat"
	FormatYAML  = "yaml"
)

// Write renders a snapshot in the requested format. The flat format is the
// single-level metric map with train_/test_ prefixes.
func Write(w io.Writer, format string, s *Snapshot) error {
	switch format {
	case "", FormatTable:
		NewConsole(w).Render(s)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatFlat:
		flat := s.Report.Flatten()
		flat["run_id"] = s.RunID
		flat["symbol"] = s.Symbol
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(flat)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown output format %q", format))
	}
}
