package assets

import (
	"context"
	"errors"
	"fmt"
	"io"

	"restoree/internal/domain/certificate"
	"restoree/internal/infra/httpclient"

	"golang.org/x/sync/errgroup"
)

// PhotoFile is one selected photo.
type PhotoFile struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ReadPhotos reads at most certificate.MaxImagesPerSide files in parallel and
// returns their data URIs in selection order. Photos are not flattened.
func ReadPhotos(ctx context.Context, files []PhotoFile, maxBytes int64) ([]string, error) {
	if len(files) > certificate.MaxImagesPerSide {
		files = files[:certificate.MaxImagesPerSide]
	}

	out := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(certificate.MaxImagesPerSide)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			uri, err := readPhoto(f, maxBytes)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Name, err)
			}
			out[i] = uri
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func readPhoto(f PhotoFile, maxBytes int64) (string, error) {
	if f.Open == nil {
		return "", errors.New("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := httpclient.ReadAllWithLimit(rc, maxBytes)
	if err != nil {
		return "", err
	}
	return ReadDataURI(data, f.ContentType), nil
}
