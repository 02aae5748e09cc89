package stems

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
)

// Set maps every canonical stem to its separated file.
type Set map[stem.Name]string

// Ordered lists the paths in mixer input order.
func (s Set) Ordered() []string {
	paths := make([]string, 0, len(stem.All))
	for _, name := range stem.All {
		paths = append(paths, s[name])
	}

	return paths
}

// Resolve checks that the separator left all four stems behind.
// A partial set is never returned, the mix assumes all four are present.
func Resolve(outputFolder string) (Set, error) {
	set := Set{}

	for _, name := range stem.All {
		path := filepath.Join(outputFolder, name.FileName())

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			missingErr := errors.Mark(&StemMissingError{Stem: name, Path: path}, remixerr.StemMissingMark)
			return nil, cerr.Field("output_folder", outputFolder).
				Field("stem", name).
				Wrap(missingErr).
				Error("Separation produced incomplete stems")
		}

		set[name] = path
	}

	log.WithField("output_folder", outputFolder).Debug("Resolved all stems")

	return set, nil
}

type StemMissingError struct {
	Stem stem.Name
	Path string
}

func (s *StemMissingError) Error() string {
	return fmt.Sprintf("Stem file not found: %s", s.Path)
}
