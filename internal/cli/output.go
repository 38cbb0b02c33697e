package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func validateOutput(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported --output %q (want text, json or yaml)", format)
	}
}

// writeStructured renders v as indented JSON or as YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		blob, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		blob = append(blob, '\n')
		_, err = w.Write(blob)
		return err
	default:
		return fmt.Errorf("unsupported structured output %q", format)
	}
}
