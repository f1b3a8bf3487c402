package tag

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeFor[time.Duration]()

// parse 将字符串解析到 value 上
func parse(value reflect.Value, s string) error {
	if value.CanAddr() {
		if u, ok := value.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(s))
		}
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(s)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if value.Type() == durationType {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			value.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		value.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		value.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, value.Type().Bits())
		if err != nil {
			return err
		}
		value.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		value.SetBool(b)

	case reflect.Slice:
		parts := strings.Split(s, ",")
		slice := reflect.MakeSlice(value.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := parse(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return err
			}
		}
		value.Set(slice)

	case reflect.Map:
		m := reflect.MakeMap(value.Type())
		for pair := range strings.SplitSeq(s, ",") {
			k, v, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			key := reflect.New(value.Type().Key()).Elem()
			val := reflect.New(value.Type().Elem()).Elem()
			if err := parse(key, strings.TrimSpace(k)); err != nil {
				return err
			}
			if err := parse(val, strings.TrimSpace(v)); err != nil {
				return err
			}
			m.SetMapIndex(key, val)
		}
		value.Set(m)

	default:
		return ErrUnsupportedType
	}
	return nil
}
