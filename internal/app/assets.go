package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
	"github.com/blackwell-systems/gameshelf/internal/ingest"
	"github.com/blackwell-systems/gameshelf/internal/media"
)

// assetFlags are the file arguments shared by add and edit.
type assetFlags struct {
	cover       string
	backCover   string
	screenshots []string
}

func (f *assetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cover, "cover", "", "Front cover image (file path or http(s) URL)")
	cmd.Flags().StringVar(&f.backCover, "back-cover", "", "Back cover image (file path or http(s) URL)")
	cmd.Flags().StringArrayVar(&f.screenshots, "screenshot", nil,
		fmt.Sprintf("Screenshot image, path or URL (repeatable, at most %d)", catalog.MaxScreenshots))
}

// open resolves and opens every named source. The returned close func is
// always non-nil.
func (f *assetFlags) open(ctx context.Context) (media.Assets, func(), error) {
	var (
		assets  media.Assets
		bodies  []io.Closer
		resolve ingest.Resolver
	)
	closeAll := func() {
		for _, b := range bodies {
			_ = b.Close()
		}
	}

	openOne := func(input string) (*media.File, error) {
		src, err := resolve.Resolve(ctx, input)
		if err != nil {
			return nil, err
		}
		body, err := src.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", input, err)
		}
		bodies = append(bodies, body)
		return &media.File{
			Name:        src.Name,
			Body:        body,
			Size:        src.Size,
			ContentType: src.ContentType,
		}, nil
	}

	var err error
	if f.cover != "" {
		if assets.Cover, err = openOne(f.cover); err != nil {
			return media.Assets{}, closeAll, err
		}
	}
	if f.backCover != "" {
		if assets.BackCover, err = openOne(f.backCover); err != nil {
			return media.Assets{}, closeAll, err
		}
	}
	for _, input := range f.screenshots {
		shot, err := openOne(input)
		if err != nil {
			return media.Assets{}, closeAll, err
		}
		assets.Screenshots = append(assets.Screenshots, *shot)
	}
	return assets, closeAll, nil
}

// mediaErr prefixes a media error with its kind and prints field details
// for validation failures.
func mediaErr(err error) error {
	var verr *media.ValidationError
	if errors.As(err, &verr) {
		for _, field := range verr.Fields.Fields() {
			warn("%s: %s", field, verr.Fields[field])
		}
	}
	return fmt.Errorf("%s: %w", media.KindOf(err), err)
}
