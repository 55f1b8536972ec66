package api

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

var errUnsupportedEncoding = errors.New("unsupported content encoding")

// bodyReader returns req's body as plain bytes. Only identity and gzip codings are
// accepted.
func bodyReader(req *http.Request) (io.Reader, error) {
	gzipped := false
	for _, enc := range strings.Split(req.Header.Get(echo.HeaderContentEncoding), ",") {
		switch enc = strings.ToLower(strings.TrimSpace(enc)); enc {
		case "", "identity":
		case "gzip", "x-gzip":
			if gzipped {
				return nil, fmt.Errorf("%w: nested gzip", errUnsupportedEncoding)
			}
			gzipped = true
		default:
			return nil, fmt.Errorf("%w: %s", errUnsupportedEncoding, enc)
		}
	}
	if !gzipped {
		return req.Body, nil
	}
	gz, err := gzip.NewReader(req.Body)
	if err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	return gz, nil
}

// decodeBody reads JSON into v. The limit of maxRequestSize bytes applies after
// decompression.
func decodeBody(c echo.Context, v any, strict bool) error {
	r, err := bodyReader(c.Request())
	if err != nil {
		return err
	}
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(r, maxRequestSize))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
