package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"
	"github.com/gorilla/schema"

	"github.com/davecheney/revise/internal/snowflake"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Params decodes the request parameters into v. Query parameters are used
// for GET and HEAD, the body for POST, PUT and PATCH according to its
// Content-Type.
func Params(r *http.Request, v any) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return decodeValues(v, r.URL.RawQuery)
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		switch mediaType(r) {
		case "application/json":
			if err := json.UnmarshalFull(r.Body, v); err != nil {
				return Error(http.StatusBadRequest, err)
			}
		case "":
			// some clients send their parameters in the query string
			return decodeValues(v, r.URL.RawQuery)
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return Error(http.StatusBadRequest, err)
			}
			if err := decoder.Decode(v, r.PostForm); err != nil {
				return Error(http.StatusBadRequest, err)
			}
		case "multipart/form-data":
			if err := r.ParseMultipartForm(0); err != nil {
				return Error(http.StatusBadRequest, err)
			}
			if err := decoder.Decode(v, r.PostForm); err != nil {
				return Error(http.StatusBadRequest, err)
			}
		default:
			return Error(http.StatusUnsupportedMediaType, fmt.Errorf("unsupported media type: %q", r.Header.Get("Content-Type")))
		}
		return nil
	default:
		return Error(http.StatusMethodNotAllowed, errors.New("unsupported method: "+r.Method))
	}
}

func decodeValues(v any, query string) error {
	values, err := url.ParseQuery(query)
	if err != nil {
		return Error(http.StatusBadRequest, err)
	}
	if err := decoder.Decode(v, values); err != nil {
		return Error(http.StatusBadRequest, err)
	}
	return nil
}

func mediaType(req *http.Request) string {
	return strings.TrimSpace(strings.Split(req.Header.Get("Content-Type"), ";")[0])
}

// ID returns the snowflake.ID in the named URL parameter.
func ID(r *http.Request, name string) (snowflake.ID, error) {
	id, err := snowflake.Parse(chi.URLParam(r, name))
	if err != nil {
		return 0, Error(http.StatusBadRequest, fmt.Errorf("invalid %s: %w", name, err))
	}
	return id, nil
}
