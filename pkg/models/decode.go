package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidBody = errors.New("invalid request body")

var validate = newValidator()

// Fields are pointers so that an absent key can be told apart from an empty string.
type postInput struct {
	Title   *string `json:"title" validate:"required"`
	Content *string `json:"content" validate:"required"`
	Author  *string `json:"author" validate:"required"`
}

type commentInput struct {
	Text   *string `json:"text" validate:"required"`
	Author *string `json:"author" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodePost reads a Post from a JSON body. Every field must be present and
// string typed. The returned error wraps ErrInvalidBody.
func DecodePost(r io.Reader) (Post, error) {
	var in postInput
	if err := decodeInput(r, &in); err != nil {
		return Post{}, err
	}

	return Post{Title: *in.Title, Content: *in.Content, Author: *in.Author}, nil
}

// DecodeComment reads a Comment from a JSON body, see DecodePost.
func DecodeComment(r io.Reader) (Comment, error) {
	var in commentInput
	if err := decodeInput(r, &in); err != nil {
		return Comment{}, err
	}

	return Comment{Text: *in.Text, Author: *in.Author}, nil
}

func decodeInput(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	err := dec.Decode(dst)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidBody, typeErr.Field)
		case errors.As(err, &typeErr):
			return fmt.Errorf("%w: body must be a JSON object", ErrInvalidBody)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		default:
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidBody)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return fmt.Errorf("%w: missing required field(s): %s", ErrInvalidBody, strings.Join(missing, ", "))
	}

	return nil
}
