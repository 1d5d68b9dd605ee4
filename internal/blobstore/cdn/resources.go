package cdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blackwell-systems/gameshelf/internal/blobstore"
	"github.com/blackwell-systems/gameshelf/internal/locator"
)

// resource is one stored image as reported by the CDN.
type resource struct {
	PublicID  string    `json:"public_id"`
	Version   int64     `json:"version"`
	Format    string    `json:"format"`
	Bytes     int64     `json:"bytes"`
	SecureURL string    `json:"secure_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) toObject(r resource) blobstore.Object {
	loc := r.SecureURL
	if loc == "" {
		loc = locator.Build(defaultDeliveryBase+"/"+c.cloud+"/"+resourceType, r.Version, r.PublicID, r.Format)
	}
	return blobstore.Object{
		Key:       r.PublicID,
		Format:    r.Format,
		Locator:   loc,
		Size:      r.Bytes,
		CreatedAt: r.CreatedAt,
	}
}

// Upload streams a file to the upload API under the target's public id.
func (c *Client) Upload(ctx context.Context, up blobstore.Upload) (blobstore.Object, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		_ = pw.CloseWithError(writeUploadForm(mw, up))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(nil, resourceType, "upload"), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return blobstore.Object{}, blobstore.Error.Wrap(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("upload %q: %w", up.Target.Key(), err))
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("upload %q: %w", up.Target.Key(), err))
	}

	var r resource
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return blobstore.Object{}, blobstore.Error.Wrap(fmt.Errorf("decoding upload response: %w", err))
	}
	return c.toObject(r), nil
}

func writeUploadForm(mw *multipart.Writer, up blobstore.Upload) error {
	if err := mw.WriteField("public_id", up.Target.Key()); err != nil {
		return err
	}
	if err := mw.WriteField("overwrite", "false"); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", up.Target.ObjectKey+"."+up.Target.Format)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, up.Body); err != nil {
		return err
	}
	return mw.Close()
}

// Delete destroys a single resource. A missing resource is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	body := map[string]interface{}{
		"public_id":  key,
		"invalidate": true,
	}
	var out struct {
		Result string `json:"result"`
	}
	err := c.doJSON(ctx, http.MethodPost, c.url(nil, resourceType, "destroy"), body, &out)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return blobstore.Error.Wrap(fmt.Errorf("destroy %q: %w", key, err))
	}
	switch out.Result {
	case "ok", "not found":
		return nil
	default:
		return blobstore.Error.New("destroy %q: unexpected result %q", key, out.Result)
	}
}

// DeletePrefix removes every resource whose public id starts with prefix.
// The API deletes in batches and reports partial progress with a cursor.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	cursor := ""
	for {
		q := url.Values{"prefix": {prefix}}
		if cursor != "" {
			q.Set("next_cursor", cursor)
		}
		var out struct {
			Deleted    map[string]string `json:"deleted"`
			Partial    bool              `json:"partial"`
			NextCursor string            `json:"next_cursor"`
		}
		if err := c.doJSON(ctx, http.MethodDelete, c.url(q, "resources", resourceType, deliveryType), nil, &out); err != nil {
			return deleted, blobstore.Error.Wrap(fmt.Errorf("delete prefix %q: %w", prefix, err))
		}
		for _, status := range out.Deleted {
			if status == "deleted" {
				deleted++
			}
		}
		if !out.Partial || out.NextCursor == "" {
			return deleted, nil
		}
		cursor = out.NextCursor
	}
}

// ListObjects returns one page of resources under prefix. An empty prefix
// lists the whole account.
func (c *Client) ListObjects(ctx context.Context, prefix, cursor string, pageSize int) (blobstore.Page, error) {
	if pageSize <= 0 {
		pageSize = blobstore.DefaultPageSize
	}
	q := url.Values{"max_results": {strconv.Itoa(pageSize)}}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if cursor != "" {
		q.Set("next_cursor", cursor)
	}

	var out struct {
		Resources  []resource `json:"resources"`
		NextCursor string     `json:"next_cursor"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.url(q, "resources", resourceType, deliveryType), nil, &out); err != nil {
		return blobstore.Page{}, blobstore.Error.Wrap(fmt.Errorf("list resources %q: %w", prefix, err))
	}

	page := blobstore.Page{NextCursor: out.NextCursor}
	for _, r := range out.Resources {
		page.Objects = append(page.Objects, c.toObject(r))
	}
	return page, nil
}
