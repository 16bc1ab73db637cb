// Package llmschema compiles JSON Schema Draft 2020-12 documents into the
// restricted dialect accepted by LLM structured-output APIs (OpenAI Strict
// mode, Gemini, Claude tool schemas), and reverses the lossy transforms over
// returned data using a recorded codec.
//
// Credit to https://github.com/santhosh-tekuri/jsonschema for the validator
// behind the post-compile self-check.
package llmschema
