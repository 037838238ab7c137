// Package output renders server replies for memkv-cli.
//
//   - text.go: redis-cli style (OK, (integer) 1, "value", (nil))
//   - json.go: JSON, for scripting
//   - yaml.go: YAML
//
// JSON and YAML share the Reply model. Bulk strings that are not valid
// UTF-8 are base64-encoded there and marked with an encoding field.
package output
