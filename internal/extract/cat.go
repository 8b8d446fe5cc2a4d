package extract

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lu4p/cat"
)

// extractWithCat handles OpenDocument text and RTF, which cat detects from the content.
func extractWithCat(content []byte, ext string) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", errors.Wrapf(err, "extract %s", strings.TrimPrefix(ext, "."))
	}
	return strings.TrimSpace(text), nil
}
