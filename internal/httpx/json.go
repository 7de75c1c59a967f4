package httpx

import (
	"net/http"

	"github.com/go-json-experiment/json"
)

// JSON writes obj to the response as indented JSON.
// A nil slice is written as [], a nil map as {}.
func JSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.MarshalOptions{}.MarshalFull(json.EncodeOptions{
		Indent: "  ",
	}, w, obj)
}
