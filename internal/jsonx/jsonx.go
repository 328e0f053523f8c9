// Package jsonx holds the JSON codec shared by the cache, codec and transport
// packages. It uses json-iterator configured for full compatibility with
// encoding/json so struct tags and MarshalJSON methods behave identically.
package jsonx

import jsoniter "github.com/json-iterator/go"

// JSON is the std-compatible json-iterator configuration.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v.
func Marshal(v any) ([]byte, error) {
	return JSON.Marshal(v)
}

// MarshalIndent encodes v with indentation, mainly for CLI output.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return JSON.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return JSON.Unmarshal(data, v)
}
