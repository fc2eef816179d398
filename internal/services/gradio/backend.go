package gradio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Recognizer runs speech recognition on the Formosan ASR Space.
type Recognizer struct {
	client *Client
}

// NewRecognizer wraps client as a recognizer.
func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{client: client}
}

// Recognize uploads the audio file and returns the recognized text.
func (r *Recognizer) Recognize(ctx context.Context, modelID, audioPath string) (string, error) {
	ref, err := r.client.Upload(ctx, audioPath)
	if err != nil {
		return "", err
	}
	out, err := r.client.Predict(ctx, "/automatic_speech_recognition", modelID, ref)
	if err != nil {
		return "", err
	}
	return firstString(out)
}

// Translator runs translation on the Formosan translation Space.
type Translator struct {
	client *Client
}

// NewTranslator wraps client as a translator.
func NewTranslator(client *Client) *Translator {
	return &Translator{client: client}
}

// Translate converts text from sourceCode to targetCode.
func (t *Translator) Translate(ctx context.Context, text, sourceCode, targetCode string) (string, error) {
	out, err := t.client.Predict(ctx, "/translate", text, sourceCode, targetCode)
	if err != nil {
		return "", err
	}
	return firstString(out)
}

// ResolveSourceCode asks the Space which language code it uses for an
// ethnonym. The endpoint answers either with a bare value or with a
// component update of the form {"value": ...}.
func (t *Translator) ResolveSourceCode(ctx context.Context, ethnonym string) (string, error) {
	out, err := t.client.Predict(ctx, "/lambda", ethnonym)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("resolve %q: empty result", ethnonym)
	}
	var update struct {
		Value json.RawMessage `json:"value"`
	}
	raw := out[0]
	if err := json.Unmarshal(raw, &update); err == nil && len(update.Value) > 0 {
		raw = update.Value
	}
	code, err := scalarString(raw)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ethnonym, err)
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("resolve %q: empty code", ethnonym)
	}
	return code, nil
}

func firstString(out []json.RawMessage) (string, error) {
	if len(out) == 0 {
		return "", fmt.Errorf("gradio: empty result")
	}
	return scalarString(out[0])
}

func scalarString(raw json.RawMessage) (string, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("decode value: %w", err)
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unexpected value %s", string(raw))
	}
}
