package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Visibilities lists the accepted values of [PostForm.Visibility], in the order the form offers them.
var Visibilities = []string{"public", "unlisted", "private", "direct"}

// LoginForm is submitted by the login page.
type LoginForm struct {
	Instance string `form:"instance" validate:"required,max=255"`
	Username string `form:"username" validate:"required,max=255"`
	Password string `form:"password" validate:"required"`
}

// PostForm is submitted by the toot and reply pages.
type PostForm struct {
	Status      string `form:"status" validate:"required,max=5000"`
	Visibility  string `form:"visibility" validate:"omitempty,oneof=public unlisted private direct"`
	SpoilerText string `form:"spoiler_text" validate:"max=500"`
}

// SettingsForm is submitted by the settings page.
type SettingsForm struct {
	FullBrutalism bool `form:"fullbrutalism"`
}

// FieldErrors maps form field names to a message shown next to the field.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for field, msg := range f {
		parts = append(parts, field+": "+msg)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// forms validates submitted forms and reports failures by form field name.
type forms struct {
	validate *validator.Validate
}

func newForms() *forms {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &forms{validate: v}
}

// check validates form, returning [FieldErrors] on failure.
func (f *forms) check(form any) error {
	err := f.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Select one of: %s.", fe.Param())
	default:
		return "Enter a valid value."
	}
}

func parseLoginForm(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Instance: strings.TrimSpace(r.PostForm.Get("instance")),
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}, nil
}

func parsePostForm(r *http.Request) (PostForm, error) {
	if err := r.ParseForm(); err != nil {
		return PostForm{}, err
	}
	return PostForm{
		Status:      strings.TrimSpace(r.PostForm.Get("status")),
		Visibility:  r.PostForm.Get("visibility"),
		SpoilerText: r.PostForm.Get("spoiler_text"),
	}, nil
}

// parseSettingsForm reads the fullbrutalism checkbox. An absent box is false; browsers send "on" when checked.
func parseSettingsForm(r *http.Request) (SettingsForm, error) {
	if err := r.ParseForm(); err != nil {
		return SettingsForm{}, err
	}

	raw := strings.TrimSpace(r.PostForm.Get("fullbrutalism"))
	switch strings.ToLower(raw) {
	case "":
		return SettingsForm{}, nil
	case "on":
		return SettingsForm{FullBrutalism: true}, nil
	}

	on, err := strconv.ParseBool(raw)
	if err != nil {
		return SettingsForm{}, FieldErrors{"fullbrutalism": "Enter a valid value."}
	}
	return SettingsForm{FullBrutalism: on}, nil
}
