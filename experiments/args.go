package experiments

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/unixpickle/essentials"
)

// ArgsFile is the name of the file written by SaveArgs.
const ArgsFile = "args.json"

// SaveArgs records the flags of a run in a directory so
// that the run can be reproduced later.
func SaveArgs(dir string, f *Flags) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return essentials.AddCtx("save args", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return essentials.AddCtx("save args", err)
	}
	err = ioutil.WriteFile(filepath.Join(dir, ArgsFile), data, 0644)
	return essentials.AddCtx("save args", err)
}
