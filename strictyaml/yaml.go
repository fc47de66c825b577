// Package strictyaml provides a strict YAML unmarshaller based on `go-yaml/yaml`
package strictyaml

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// Unmarshal takes a byte array and an arbitrary interface as arguments and
// attempts to unmarshal the contents of the byte array into a defined struct. Any
// config keys from the incoming YAML document which do not correspond to
// expected keys in the config struct will result in errors. An empty document
// is an error too, and so is a second document in the same input.
func Unmarshal(b []byte, yamlObj any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)

	err := decoder.Decode(yamlObj)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty YAML document")
		}
		return err
	}

	var extra yaml.Node
	err = decoder.Decode(&extra)
	if !errors.Is(err, io.EOF) {
		return errors.New("unexpected additional YAML document")
	}
	return nil
}
