package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
)

// ErrFormat is the sentinel every FormatError unwraps to.
var ErrFormat = errors.New("transfer: invalid import document")

// FormatError reports the first structural problem of an import document.
type FormatError struct {
	// Path locates the problem, e.g. "pages[2].page_name". Empty for
	// top-level shape errors.
	Path string

	// Field is the offending field name.
	Field string

	// Message is the operator-facing description.
	Message string
}

func (e *FormatError) Error() string { return e.Message }

// Unwrap returns ErrFormat.
func (e *FormatError) Unwrap() error { return ErrFormat }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if comma := strings.Index(name, ","); comma != -1 {
			name = name[:comma]
		}
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Decode parses an import document. Comments and trailing commas are
// tolerated. Validation stops at the first problem: the top-level shape is
// checked first, then each page in order.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, &FormatError{Message: "Invalid permission export format: " + err.Error()}
	}
	if doc.Version == "" || doc.Pages == nil {
		return nil, &FormatError{Message: "Invalid permission export format"}
	}

	for i, page := range doc.Pages {
		if page == nil {
			return nil, &FormatError{Path: fmt.Sprintf("pages[%d]", i), Message: fmt.Sprintf("Missing id in page %d", i)}
		}
		if err := validate.Struct(page); err != nil {
			return nil, pageError(i, err)
		}
	}
	return &doc, nil
}

func pageError(index int, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FormatError{Path: fmt.Sprintf("pages[%d]", index), Message: err.Error()}
	}
	fe := verrs[0]
	path := fmt.Sprintf("pages[%d]%s", index, strings.TrimPrefix(fe.Namespace(), "Page"))
	if fe.Tag() == "required" {
		return &FormatError{
			Path:    path,
			Field:   fe.Field(),
			Message: fmt.Sprintf("Missing %s in page %d", fe.Field(), index),
		}
	}
	return &FormatError{
		Path:    path,
		Field:   fe.Field(),
		Message: fmt.Sprintf("Invalid %s in page %d: %v", fe.Field(), index, fe.Value()),
	}
}
