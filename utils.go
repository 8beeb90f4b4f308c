package outbreakgo

import (
	"os"

	"github.com/pkg/errors"
)

// AppendToFile appends data to the file at the given path, creating it if
// it does not exist.
func AppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "cannot open file '%s' in append mode", path)
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return errors.Wrapf(err, "cannot write to file '%s'", path)
	}
	return nil
}
