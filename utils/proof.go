package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// ProofKey builds the object key for a check-in proof upload.
func ProofKey(eventID, userID, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "proof"
	}
	return fmt.Sprintf("proofs/%s/%s-%d-%s%s", slug.Make(eventID), slug.Make(userID), now.UnixMilli(), base, ext)
}
