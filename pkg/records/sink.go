package records

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/meshdns/pkg/constants"
	"github.com/agentstation/meshdns/pkg/errors"
)

// Marshal renders records in the given format. JSON output is indented with
// two spaces and an empty list renders as [] rather than null.
func Marshal(recs []DNSRecord, format string) ([]byte, error) {
	if recs == nil {
		recs = []DNSRecord{}
	}

	switch format {
	case constants.FormatJSON, "":
		return json.MarshalIndent(recs, "", "  ")
	case constants.FormatYAML:
		return yaml.Marshal(recs)
	default:
		return nil, errors.NewValidationError("format", format, "must be json or yaml")
	}
}

// Encode writes records to w in the given format.
func Encode(w io.Writer, recs []DNSRecord, format string) error {
	data, err := Marshal(recs, format)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return errors.WrapIO("write", "output stream", err)
	}
	return nil
}

// Write serializes records as JSON to path, creating or truncating it.
func Write(path string, recs []DNSRecord) error {
	data, err := Marshal(recs, constants.FormatJSON)
	if err != nil {
		return errors.WrapParse(constants.FormatJSON, path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
