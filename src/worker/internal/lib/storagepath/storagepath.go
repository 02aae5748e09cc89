package storagepath

import (
	"fmt"
	"net/url"
	"strings"
)

const remixFolder = "remixes"

type Generator struct {
	Host   string
	Bucket string
}

// GeneratePath is the public URL of a job's file, the leaf is path escaped.
func (g Generator) GeneratePath(jobID string, leafPath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", g.Host, g.Bucket, remixFolder, jobID, url.PathEscape(leafPath))
}

// IsStored reports whether fileURL points into this generator's bucket.
func (g Generator) IsStored(fileURL string) bool {
	prefix := fmt.Sprintf("%s/%s/", g.Host, g.Bucket)
	return strings.HasPrefix(fileURL, prefix) && len(fileURL) > len(prefix)
}
