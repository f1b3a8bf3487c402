package tag

import (
	"reflect"
	"strings"
)

const (
	tagName  = "default"
	maxDepth = 32
)

// ApplyDefaults sets zero-valued fields from their `default:"..."` tag.
// The target must be a pointer to a struct. Nested structs, pointers to
// structs and slices of structs are walked; non-zero fields are left alone.
//
// Example:
//
//	type Config struct {
//	    Prefix  string        `default:"session:"`
//	    TTL     time.Duration `default:"24h"`
//	    Workers int           `default:"8"`
//	}
func ApplyDefaults(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrTargetMustBePointer
	}
	return applyStruct(v.Elem(), "", 0)
}

func applyStruct(v reflect.Value, path string, depth int) error {
	if depth >= maxDepth {
		return ErrMaxDepthExceeded
	}

	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		if err := applyField(fv, field.Tag.Get(tagName), fieldPath, depth); err != nil {
			return err
		}
	}
	return nil
}

func applyField(fv reflect.Value, def, path string, depth int) error {
	switch fv.Kind() {
	case reflect.Struct:
		return applyStruct(fv, path, depth+1)

	case reflect.Pointer:
		if fv.Type().Elem().Kind() == reflect.Struct {
			if fv.IsNil() {
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			return applyStruct(fv.Elem(), path, depth+1)
		}
		if !fv.IsNil() || def == "" {
			return nil
		}
		ptr := reflect.New(fv.Type().Elem())
		if err := parse(ptr.Elem(), def); err != nil {
			return &FieldError{Path: path, Kind: fv.Kind(), Value: def, Err: err}
		}
		fv.Set(ptr)
		return nil

	case reflect.Slice:
		// 已有元素时只处理其中的结构体
		if fv.Len() > 0 {
			for i := 0; i < fv.Len(); i++ {
				elem := fv.Index(i)
				if elem.Kind() == reflect.Pointer && !elem.IsNil() {
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					if err := applyStruct(elem, path, depth+1); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	if def == "" || !fv.IsZero() {
		return nil
	}
	if err := parse(fv, strings.TrimSpace(def)); err != nil {
		return &FieldError{Path: path, Kind: fv.Kind(), Value: def, Err: err}
	}
	return nil
}
