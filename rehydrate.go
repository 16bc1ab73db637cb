package llmschema

import (
	"github.com/go-json-experiment/json"

	"github.com/dotslashderek/jsonschema-llm/internal/rehydrate"
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

// RehydrateResult is the §6.2 success envelope.
type RehydrateResult struct {
	APIVersion string            `json:"apiVersion"`
	Data       any               `json:"data"`
	Warnings   []schema.Warning  `json:"warnings"`
}

// Rehydrate runs §4.10's reverse interpreter: it validates the codec
// version, replays every recorded transform in reverse, and checks the
// codec's dropped constraints against the rebuilt data. It never fails on
// data issues (§7) — only on a codec version mismatch or malformed input.
func Rehydrate(dataRaw, codecRaw, originalSchemaRaw []byte, opts *RehydrateOptions) (*RehydrateResult, error) {
	var data any
	if err := json.Unmarshal(dataRaw, &data); err != nil {
		return nil, schema.ErrMalformedData.WithPath("")
	}

	var codec schema.Codec
	if err := json.Unmarshal(codecRaw, &codec); err != nil {
		return nil, schema.ErrMalformedCodec.WithPath("")
	}
	if codec.Schema != schema.CodecSchemaVersion {
		return nil, schema.ErrCodecVersionMismatch
	}

	original, err := schema.NewSchema(originalSchemaRaw)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = DefaultRehydrateOptions()
	}

	result, warnings := rehydrate.Rehydrate(data, &codec, original, opts)

	return &RehydrateResult{
		APIVersion: apiVersion,
		Data:       result,
		Warnings:   warnings,
	}, nil
}
