package confstruct

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
)

// Print writes the configuration to stdout with secret masking.
func Print[T any](cfg *T) {
	PrintTo(os.Stdout, cfg)
}

// PrintTo writes the configuration to w with secret masking. Secret fields
// render as the fixed mask; string fields tagged secret or with
// secret-looking names render partially masked.
func PrintTo[T any](w io.Writer, cfg *T) {
	v := reflect.ValueOf(cfg).Elem()

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	printStruct(w, v, v.Type(), "")
	fmt.Fprintln(w, strings.Repeat("─", 50))
}

func printStruct(w io.Writer, v reflect.Value, t reflect.Type, indent string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !field.IsExported() {
			continue
		}

		if isNestedStruct(field.Type) {
			fmt.Fprintf(w, "%s%s:\n", indent, field.Name)
			printStruct(w, fv, field.Type, indent+"  ")
			continue
		}

		name := defaultMapper.Field(field.Name)
		// Secret's String() already yields the mask through %v.
		val := fmt.Sprintf("%v", fv.Interface())

		if field.Type != secretType && looksSecret(field) && len(val) > 0 {
			if len(val) > 8 {
				val = val[:3] + secretMask + val[len(val)-3:]
			} else {
				val = secretMask
			}
		}

		fmt.Fprintf(w, "%s%-25s = %s\n", indent, name, val)
	}
}

func looksSecret(field reflect.StructField) bool {
	if field.Tag.Get("secret") == "true" {
		return true
	}
	upper := strings.ToUpper(field.Name)
	return strings.Contains(upper, "SECRET") ||
		strings.Contains(upper, "PASSWORD") ||
		strings.Contains(upper, "TOKEN") ||
		strings.Contains(upper, "KEY")
}
