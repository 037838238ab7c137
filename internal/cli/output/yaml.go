package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/memkv/pkg/resp"
)

// YAMLFormatter formats replies as YAML.
type YAMLFormatter struct{}

// Format formats v as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, v resp.Value) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewReply(v)); err != nil {
		return err
	}
	return encoder.Close()
}
