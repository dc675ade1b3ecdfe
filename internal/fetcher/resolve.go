package fetcher

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Resolver turns a workbook source (local path, https:// or ftp:// URL) into
// a readable local file.
type Resolver struct {
	HTTP *HTTPFetcher
	FTP  *FTPFetcher
}

// Resolve returns a local path for src, downloading it first when it is
// remote. The cleanup function removes any temporary file and is always safe
// to call.
func (r *Resolver) Resolve(ctx context.Context, src string) (path string, cleanup func(), err error) {
	cleanup = func() {}

	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return r.download(ctx, src, r.HTTP.DownloadToFile)
	case strings.HasPrefix(src, "ftp://"):
		return r.download(ctx, src, r.FTP.DownloadToFile)
	default:
		if _, err := os.Stat(src); err != nil {
			return "", cleanup, eris.Wrapf(err, "workbook %s", src)
		}
		return src, cleanup, nil
	}
}

func (r *Resolver) download(ctx context.Context, src string, fetch func(context.Context, string, string) (int64, error)) (string, func(), error) {
	tmp, err := os.CreateTemp("", "partida-*.xlsx")
	if err != nil {
		return "", func() {}, eris.Wrap(err, "create temp workbook")
	}
	path := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := fetch(ctx, src, path); err != nil {
		cleanup()
		return "", func() {}, err
	}

	return path, cleanup, nil
}
