package media

import (
	"context"

	"github.com/Laisky/errors/v2"
	"golang.org/x/sync/errgroup"
)

// UploadAll uploads files concurrently and returns URLs in input order.
//
// The first failure cancels the remaining uploads and fails the whole batch.
// Files already stored on the media host are left there.
func UploadAll(ctx context.Context, up Uploader, files []File, concurrency int) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	urls := make([]string, len(files))
	pool, gctx := errgroup.WithContext(ctx)
	pool.SetLimit(concurrency)
	for i := range files {
		pool.Go(func() (err error) {
			if err = gctx.Err(); err != nil {
				return errors.WithStack(err)
			}

			urls[i], err = up.Upload(gctx, files[i])
			if err != nil {
				return errors.Wrapf(err, "upload %q", files[i].Filename)
			}

			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return urls, nil
}
