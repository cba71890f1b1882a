package report

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/broombot/internal/broom"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// JSONOutput wraps the pass result with its summary.
type JSONOutput struct {
	Result  *broom.PassResult `json:"result"`
	Summary Summary           `json:"summary"`
}

// Format outputs the pass result and summary as JSON
func (f *JSONFormatter) Format(res *broom.PassResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(JSONOutput{Result: res, Summary: Summarize(res)})
}
