package validation

import (
	"errors"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-storefront/internal/apperr"
)

// Struct validates s and converts failures into an apperr validation error
// naming every offending field (dotted json path, top-level struct name dropped).
func Struct(v *validatorv10.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Validation(err.Error())
	}
	return apperr.Validation("validation failed", fieldNames(ve)...)
}

// BindJSON decodes the request body into out and validates it.
func BindJSON(c *gin.Context, v *validatorv10.Validate, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return Struct(v, out)
}

func fieldNames(ve validatorv10.ValidationErrors) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}
