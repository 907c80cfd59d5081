package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// UploadImage stores payload under folder in the image bucket and returns
// its public URL. Object names are prefixed with the upload time in
// milliseconds so repeated uploads of the same file do not collide.
func (c *Client) UploadImage(ctx context.Context, folder, name string, payload []byte, contentType string) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("upload image: empty payload")
	}
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return "", errors.New("upload image: file name required")
	}
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}

	object := fmt.Sprintf("%d_%s", c.clock.Now().UnixMilli(), name)
	if folder = strings.Trim(folder, "/ "); folder != "" {
		object = folder + "/" + object
	}
	escaped := escapePath(object)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/storage/v1/object/"+url.PathEscape(c.bucket)+"/"+escaped,
		bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")

	if err := c.send(req, nil); err != nil {
		return "", fmt.Errorf("upload image %s: %w", object, err)
	}
	return c.PublicURL(object), nil
}

// PublicURL returns the public address of an object in the image bucket.
func (c *Client) PublicURL(object string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(object)
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, url.PathEscape(part))
		}
	}
	return strings.Join(out, "/")
}
