package jobs

import (
	"context"
	"strings"

	"github.com/Justype/simmaker/internal/remote"
	"github.com/Justype/simmaker/internal/utils"
)

// FileReader reads a file on the machine running the jobs
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileChannel reads job states from a file the jobs append "<id>: <state>" lines to.
type FileChannel struct {
	reader FileReader
	path   string
}

// NewFileChannel creates a channel over the jobs states file at path.
func NewFileChannel(reader FileReader, path string) *FileChannel {
	return &FileChannel{reader: reader, path: path}
}

// Poll returns every update in the file, in file order.
// A file that does not exist yet holds no update.
func (c *FileChannel) Poll(ctx context.Context) ([]Update, error) {
	data, err := c.reader.ReadFile(ctx, c.path)
	if err != nil {
		if remote.IsRemotePathNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var updates []Update
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		u, err := ParseUpdate(line)
		if err != nil {
			// The last line may still be in the middle of being written
			utils.PrintDebug("Skipping job state line: %v", err)
			continue
		}
		updates = append(updates, u)
	}
	return updates, nil
}
