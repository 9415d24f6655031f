package schema

// Typed fallback reasons for schema extraction. A schema failure never fails
// the job and never forces content fallback; it is recorded on the result.
const (
	ReasonPayloadMissing = "schema_payload_missing"
	ReasonPayloadInvalid = "schema_payload_invalid"
	ReasonPayloadEmpty   = "schema_payload_empty"
)

// ExtractPayload pulls the schema_payloads block out of the parsed model reply
// and reconciles it against the merged config. Types absent from the enabled
// set are dropped, never passed through, so the persisted type list is always
// a subset of the enabled types. When the module is active but nothing usable
// remains, a typed reason is returned with an empty result.
func ExtractPayload(parsed map[string]any, m Merged) (payloads map[string]any, typeNames []string, fallbackReason string) {
	if !m.Active() {
		return nil, nil, ""
	}
	if parsed == nil {
		return nil, nil, ReasonPayloadMissing
	}
	raw, ok := parsed["schema_payloads"]
	if !ok || raw == nil {
		return nil, nil, ReasonPayloadMissing
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, ReasonPayloadInvalid
	}

	typesRaw, ok := obj["types"].([]any)
	if !ok {
		return nil, nil, ReasonPayloadInvalid
	}
	payloadsRaw, ok := obj["payloads"].(map[string]any)
	if !ok {
		return nil, nil, ReasonPayloadInvalid
	}

	enabled := m.EnabledSet()
	outPayloads := map[string]any{}
	var outTypes []string
	for _, tr := range typesRaw {
		name, ok := tr.(string)
		if !ok || name == "" {
			continue
		}
		if !enabled[name] {
			continue
		}
		value, ok := payloadsRaw[name]
		if !ok || value == nil {
			continue
		}
		if _, dup := outPayloads[name]; dup {
			continue
		}
		outPayloads[name] = value
		outTypes = append(outTypes, name)
	}

	if len(outTypes) == 0 {
		return nil, nil, ReasonPayloadEmpty
	}
	return outPayloads, outTypes, ""
}
