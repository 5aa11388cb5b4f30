package clicfg

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/urfave/cli/v3"
)

var ErrCannotParseFlags = errors.New("cannot parse flags")

var stringSliceType = reflect.TypeOf([]string(nil))

// ParseFlags copies cli flag values into the struct pointed to by s, using
// each field's `flag` tag as the flag name. Untagged and unexported fields
// are skipped.
func ParseFlags(c *cli.Command, s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: expected pointer to struct, got %T", ErrCannotParseFlags, s)
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: expected pointer to struct, got pointer to %s", ErrCannotParseFlags, v.Kind())
	}

	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		flagName := field.Tag.Get("flag")
		if flagName == "" {
			continue
		}

		switch {
		case field.Type == stringSliceType:
			fieldValue.Set(reflect.ValueOf(c.StringSlice(flagName)))
		case field.Type.Kind() == reflect.String:
			fieldValue.SetString(c.String(flagName))
		case field.Type.Kind() == reflect.Bool:
			fieldValue.SetBool(c.Bool(flagName))
		case field.Type.Kind() == reflect.Int, field.Type.Kind() == reflect.Int64:
			fieldValue.SetInt(int64(c.Int(flagName)))
		case field.Type.Kind() == reflect.Float64:
			fieldValue.SetFloat(c.Float64(flagName))
		default:
			return fmt.Errorf("%w: unsupported field type %s for flag %q", ErrCannotParseFlags, field.Type, flagName)
		}
	}

	return nil
}
