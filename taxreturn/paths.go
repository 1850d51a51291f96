package taxreturn

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// segment is one dot-separated path component, optionally indexed
// (e.g. "w2_forms[0]").
type segment struct {
	name     string
	index    int
	hasIndex bool
}

func (s segment) String() string {
	if s.hasIndex {
		return fmt.Sprintf("%s[%d]", s.name, s.index)
	}
	return s.name
}

// parsePath splits a dot-separated field path into segments.
func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnknownPath)
	}
	parts := strings.Split(path, ".")
	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg := segment{index: -1}
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("%w: malformed index in %q", ErrUnknownPath, part)
			}
			idx, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: malformed index in %q", ErrUnknownPath, part)
			}
			seg.name = part[:open]
			seg.index = idx
			seg.hasIndex = true
		} else {
			seg.name = part
		}
		if seg.name == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrUnknownPath, path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// jsonTagName returns the field's json tag name, or "" if untagged.
func jsonTagName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if comma := strings.IndexByte(tag, ','); comma >= 0 {
		tag = tag[:comma]
	}
	return tag
}

// fieldByTag finds a struct field by its json tag name.
func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonTagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// resolve walks the return tree to the value addressed by the segments.
// root must be the addressable value of a TaxReturn.
func resolve(root reflect.Value, segs []segment) (reflect.Value, error) {
	v := root
	for i, seg := range segs {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %q is not addressable beyond %q",
				ErrUnknownPath, pathString(segs), pathString(segs[:i]))
		}
		field, ok := fieldByTag(v, seg.name)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownPath, pathString(segs[:i+1]))
		}
		v = field
		if seg.hasIndex {
			if v.Kind() != reflect.Slice {
				return reflect.Value{}, fmt.Errorf("%w: %q is not a list", ErrUnknownPath, seg.name)
			}
			if seg.index >= v.Len() {
				return reflect.Value{}, fmt.Errorf("%w: index %d out of range for %q (len %d)",
					ErrUnknownPath, seg.index, seg.name, v.Len())
			}
			v = v.Index(seg.index)
		}
	}
	return v, nil
}

func pathString(segs []segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Get returns the value addressed by path, or false if the path does not
// resolve. List-valued paths return the backing slice; callers must treat
// it as read-only.
func (t *TaxReturn) Get(path string) (any, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	v, err := resolve(reflect.ValueOf(t).Elem(), segs)
	if err != nil {
		return nil, false
	}
	return v.Interface(), true
}

// GetDefault returns the value addressed by path, or def if the path does
// not resolve.
func (t *TaxReturn) GetDefault(path string, def any) any {
	if v, ok := t.Get(path); ok {
		return v
	}
	return def
}

// assignLeaf writes a normalized value into a leaf field. The value must
// already match the field's type; normalization is the validator's job.
func assignLeaf(v reflect.Value, normalized any, path string) error {
	nv := reflect.ValueOf(normalized)
	if !v.CanSet() {
		return fmt.Errorf("%w: %q is not settable", ErrUnknownPath, path)
	}
	if !nv.Type().AssignableTo(v.Type()) {
		return fmt.Errorf("normalized value type %s does not fit field %q (%s)", nv.Type(), path, v.Type())
	}
	v.Set(nv)
	return nil
}
