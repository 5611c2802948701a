package media

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/Laisky/errors/v2"
)

// Local writes files into a directory served by the static handler
type Local struct {
	dir       string
	publicURL string
}

// NewLocal creates dir if missing. publicURL is the URL prefix the
// directory is served under, e.g. "/uploads".
func NewLocal(dir, publicURL string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %q", dir)
	}

	return &Local{
		dir:       dir,
		publicURL: publicURL,
	}, nil
}

// Upload copies the file into the upload dir
func (l *Local) Upload(ctx context.Context, file File) (url string, err error) {
	if err = ctx.Err(); err != nil {
		return "", errors.WithStack(err)
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrapf(err, "open file %q", file.Filename)
	}
	defer src.Close() //nolint:errcheck

	name := objectName(file.Filename)
	fpath := filepath.Join(l.dir, name)
	dst, err := os.OpenFile(fpath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "create %q", fpath)
	}

	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(fpath)
		return "", errors.Wrapf(err, "write %q", fpath)
	}
	if err = dst.Close(); err != nil {
		return "", errors.Wrapf(err, "close %q", fpath)
	}

	return joinURL(l.publicURL, name), nil
}
