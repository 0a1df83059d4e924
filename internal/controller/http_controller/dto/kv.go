package dto

// Keys and values are opaque bytes, sent base64-encoded.
type KV struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

type Ack struct {
	Ack string `json:"ack"`
}

type Deleted struct {
	Deleted int64 `json:"deleted"`
}

type Exists struct {
	Exists bool `json:"exists"`
}

type Keys struct {
	Keys [][]byte `json:"keys"`
}
