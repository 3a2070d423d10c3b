package extstate

import (
	"encoding/json"
	"fmt"
)

// Wire format: a versioned JSON envelope. Version 1 is a flat string map.
// The version field exists so stores can migrate snapshots in place if the
// bag ever grows structure; decoders reject versions they do not know.
const codecVersion = 1

type envelope struct {
	Version int               `json:"v"`
	KV      map[string]string `json:"kv"`
}

// Encode serializes the bag for storage. An empty or nil bag encodes to a
// valid envelope, never to empty bytes.
func Encode(b Bag) ([]byte, error) {
	env := envelope{Version: codecVersion, KV: b}
	if env.KV == nil {
		env.KV = map[string]string{}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode extended state: %w", err)
	}
	return data, nil
}

// Decode deserializes a stored envelope. Zero-length input is treated as an
// empty bag so freshly created rows need no sentinel value.
func Decode(data []byte) (Bag, error) {
	if len(data) == 0 {
		return New(), nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode extended state: %w", err)
	}
	if env.Version != codecVersion {
		return nil, fmt.Errorf("decode extended state: unsupported version %d", env.Version)
	}
	if env.KV == nil {
		return New(), nil
	}
	return Bag(env.KV), nil
}
