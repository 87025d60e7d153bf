package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/flarebyte/ekvstore/internal/namesfile"
)

const writeOutputStage = "write-output"

const (
	formatText  = "text"
	formatJSON  = "json"
	formatLines = "lines"
	formatYAML  = "yaml"
)

func outputSettings(meta *Meta) (format, outPath string, pretty bool) {
	format, outPath = formatText, "-"
	if meta != nil && meta.Output != nil {
		if meta.Output.Format != "" {
			format = meta.Output.Format
		}
		if meta.Output.Out != "" {
			outPath = meta.Output.Out
		}
		pretty = meta.Output.Pretty
	}
	return
}

func stripErrorsIfNeeded(env *Envelope) {
	if embedErrors(env.Meta) {
		return
	}
	recs := make([]Record, len(env.Records))
	for i, r := range env.Records {
		r.Error = nil
		recs[i] = r
	}
	env.Records = recs
}

func encodeJSONCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSONPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// textLine is the plain output of a successful record: the mapped value when
// the map script returned a string, else the greeting.
func textLine(r Record, validateOnly bool) string {
	if validateOnly {
		return r.Locator + " " + strconv.Quote(r.Name)
	}
	if s, ok := r.Mapped.(string); ok {
		return s
	}
	return r.Greeting
}

func renderText(env Envelope) []byte {
	validateOnly := action(env.Meta) == "validate"
	var buf bytes.Buffer
	for _, r := range env.Records {
		if r.Error != nil {
			continue
		}
		buf.WriteString(textLine(r, validateOnly))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func renderLines(env Envelope) ([]byte, error) {
	var all bytes.Buffer
	for _, r := range env.Records {
		b, err := encodeJSONCompact(r)
		if err != nil {
			return nil, err
		}
		all.Write(b)
	}
	return all.Bytes(), nil
}

func renderYAML(env Envelope) ([]byte, error) {
	items := make([]namesfile.Greeting, 0, len(env.Records))
	for _, r := range env.Records {
		if r.Error != nil {
			continue
		}
		items = append(items, namesfile.Greeting{
			Locator:  r.Locator,
			Name:     r.Name,
			Greeting: r.Greeting,
			Mapped:   r.Mapped,
		})
	}
	return namesfile.MarshalGreetings(items)
}

func writeTo(stdout io.Writer, outPath string, data []byte) error {
	if outPath == "" || outPath == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write-output: %v", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write-output: %v", err)
	}
	return nil
}

// writeOutputRunner renders the envelope in the configured format. The
// envelope it returns is the input, unchanged.
func writeOutputRunner(_ context.Context, in Envelope, deps Deps) (Envelope, error) {
	format, outPath, pretty := outputSettings(in.Meta)
	env := in
	meta := Meta{}
	if in.Meta != nil {
		meta = *in.Meta
	}
	meta.ContractVersion = ContractVersion
	meta.Stage = writeOutputStage
	env.Meta = &meta
	env.Errors = append([]Error(nil), in.Errors...)
	SortEnvelopeErrors(&env)

	var data []byte
	var err error
	switch format {
	case formatText:
		data = renderText(env)
	case formatYAML:
		data, err = renderYAML(env)
	case formatLines:
		stripErrorsIfNeeded(&env)
		data, err = renderLines(env)
	case formatJSON:
		stripErrorsIfNeeded(&env)
		if pretty {
			data, err = encodeJSONPretty(env)
		} else {
			data, err = encodeJSONCompact(env)
		}
	default:
		return Envelope{}, fmt.Errorf("write-output: invalid output.format: %q", format)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("write-output: %v", err)
	}
	if err := writeTo(deps.stdout(), outPath, data); err != nil {
		return Envelope{}, err
	}
	return in, nil
}

func init() { Register(writeOutputStage, writeOutputRunner) }
