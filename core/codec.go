package core

import jsoniter "github.com/json-iterator/go"

// JSONCodec serializes with json-iterator using the encoding/json compatible
// configuration, so struct tags behave the same as the standard library.
type JSONCodec struct {
	api jsoniter.API
}

func NewJSONCodec() JSONCodec {
	return JSONCodec{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

func (c JSONCodec) Marshal(value any) ([]byte, error) {
	return c.jsonAPI().Marshal(value)
}

func (c JSONCodec) Unmarshal(data []byte, target any) error {
	return c.jsonAPI().Unmarshal(data, target)
}

func (c JSONCodec) jsonAPI() jsoniter.API {
	if c.api == nil {
		return jsoniter.ConfigCompatibleWithStandardLibrary
	}
	return c.api
}
