package printer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Command prints by running Name with Args followed by the document path,
// e.g. "lp -d badge_printer /tmp/badge-123.pdf".
type Command struct {
	Name string
	Args []string
}

func (c Command) Print(ctx context.Context, doc *Document) error {
	args := append(append([]string{}, c.Args...), doc.Path())
	out, err := exec.CommandContext(ctx, c.Name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("printer: %s: %w: %s", c.Name, err, bytes.TrimSpace(out))
	}
	return nil
}

// Spool prints by dropping a copy of the document into Dir, which an
// external print service watches. Files appear atomically under a unique
// badge-<id>.pdf name.
type Spool struct {
	Dir string
}

func (s Spool) Print(_ context.Context, doc *Document) error {
	name := "badge-" + uuid.NewString() + ".pdf"
	tmp := filepath.Join(s.Dir, "."+name+".part")

	src, err := os.Open(doc.Path())
	if err != nil {
		return fmt.Errorf("printer: open document: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("printer: create spool file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("printer: copy to spool: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("printer: close spool file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.Dir, name)); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("printer: publish spool file: %w", err)
	}
	return nil
}
