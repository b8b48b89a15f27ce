package processor

import (
	"encoding/json"

	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"
)

const jsonMime = "application/json"

var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(jsonMime, mjson.Minify)
	return m
}

// Marshal encodes v as indented JSON, or minified when pretty is false.
func Marshal(v any, pretty bool) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	if pretty {
		return data, nil
	}
	return minifier.Bytes(jsonMime, data)
}
