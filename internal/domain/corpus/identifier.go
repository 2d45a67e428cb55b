package corpus

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLen bounds identifier length; longer names are rejected.
const MaxIdentifierLen = 128

// identifierRe is the allow-list: a leading alphanumeric followed by
// alphanumerics, dash, underscore or dot. No separators, no leading dot.
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// ValidateIdentifier rejects anything that could escape the corpus
// directory: path separators, parent-directory markers, absolute paths,
// empty or overlong names.
func ValidateIdentifier(id string) error {
	if len(id) == 0 || len(id) > MaxIdentifierLen {
		return fmt.Errorf("%w: length %d", ErrInvalidIdentifier, len(id))
	}
	if !identifierRe.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}
