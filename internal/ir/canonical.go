package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON.
// This is the ONLY serialization used for report fingerprints, golden files
// and the report archive, so two structurally equal reports always encode to
// the same bytes.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats (returns error)
//  5. No null (returns error)
//
// Supported values: string, bool, int, int64, []string, []any and
// map[string]any, nested arbitrarily.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case []string:
		buf.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, s); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalObject writes an object with RFC 8785 key ordering.
// Keys are NFC normalized before sorting so that two keys which normalize to
// the same text are ordered (and collide) consistently.
func writeCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	values := make(map[string]any, len(obj))
	for k, v := range obj {
		nk := norm.NFC.String(k)
		keys = append(keys, nk)
		values[nk] = v
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	keys = slices.Compact(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, values[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeCanonicalString writes a JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped; <, >, & and
// U+2028/U+2029 are written literally.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes produced by
// encoding/json back into literal characters. An escape preceded by an odd
// number of backslashes is literal text (\\u2028) and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && trailingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func trailingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

// compareKeysRFC8785 compares strings by UTF-16 code units as RFC 8785
// requires. Go's native string comparison uses UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Canonical returns the canonical form of a storage access.
func (t TypeInfo) Canonical() map[string]any {
	return map[string]any{
		"name":          t.Name,
		"mode":          t.Mode.String(),
		"storage_id":    string(t.StorageID),
		"thread_mobile": t.ThreadMobile,
	}
}

// Canonical returns the canonical form of a system identity.
func (s SystemID) Canonical() map[string]any {
	return map[string]any{
		"name":    s.Name,
		"type_id": string(s.TypeID),
	}
}

// CanonicalConflict returns the canonical form of a conflict, including its
// "kind" discriminator.
func CanonicalConflict(c Conflict) map[string]any {
	switch x := c.(type) {
	case *BorrowConflict:
		m := map[string]any{
			"kind":         string(ConflictBorrow),
			"other_system": x.OtherSystem.Canonical(),
			"other_on":     x.OtherOn.Canonical(),
		}
		if x.On != nil {
			m["on"] = x.On.Canonical()
		}
		return m
	case *NotThreadMobileConflict:
		return map[string]any{
			"kind":      string(ConflictNotThreadMobile),
			"type_info": x.TypeInfo.Canonical(),
		}
	case *OtherNotThreadMobileConflict:
		return map[string]any{
			"kind":      string(ConflictOtherNotThreadMobile),
			"system":    x.System.Canonical(),
			"type_info": x.TypeInfo.Canonical(),
		}
	default:
		return nil
	}
}

// Canonical returns the canonical form of a system.
func (s SystemInfo) Canonical() map[string]any {
	borrow := make([]any, len(s.Borrow))
	for i, t := range s.Borrow {
		borrow[i] = t.Canonical()
	}
	m := map[string]any{
		"name":    s.Name,
		"type_id": string(s.TypeID),
		"borrow":  borrow,
		"before":  nonNil(s.Before),
		"after":   nonNil(s.After),
	}
	if s.Conflict != nil {
		if c := CanonicalConflict(s.Conflict); c != nil {
			m["conflict"] = c
		} else {
			m["conflict"] = nil // unknown variant; rejected by MarshalCanonical
		}
	}
	return m
}

// Canonical returns the canonical form of a batch.
func (b BatchInfo) Canonical() map[string]any {
	parallel := make([]any, len(b.Parallel))
	for i, s := range b.Parallel {
		parallel[i] = s.Canonical()
	}
	m := map[string]any{"parallel": parallel}
	if b.Solo != nil {
		m["solo"] = b.Solo.Canonical()
	}
	return m
}

// Canonical returns the canonical form of a report.
func (w WorkloadInfo) Canonical() map[string]any {
	batches := make([]any, len(w.Batches))
	for i, b := range w.Batches {
		batches[i] = b.Canonical()
	}
	return map[string]any{
		"name":       w.Name,
		"batch_info": batches,
	}
}

// MarshalReport encodes a report as canonical JSON.
func MarshalReport(w WorkloadInfo) ([]byte, error) {
	data, err := MarshalCanonical(w.Canonical())
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", w.Name, err)
	}
	return data, nil
}

// UnmarshalReport decodes a report written by MarshalReport.
func UnmarshalReport(data []byte) (WorkloadInfo, error) {
	var w WorkloadInfo
	if err := json.Unmarshal(data, &w); err != nil {
		return WorkloadInfo{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return w, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
