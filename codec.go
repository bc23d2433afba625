package mongomq

import "encoding/json"

// Codec encodes and decodes message bodies. The same codec is applied
// uniformly to every payload the channel stores, point-to-point and fanout
// alike; the stored document only ever sees the encoded bytes.
type Codec interface {
	// Marshal encodes a message body for storage.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes a stored payload into v.
	Unmarshal(data []byte, v interface{}) error
}

// JSONCodec is the default Codec, encoding message bodies as JSON.
type JSONCodec struct{}

// Marshal implements Codec using encoding/json.
func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Codec using encoding/json.
func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
