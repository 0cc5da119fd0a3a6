package checkoutserver

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	ordershttpmapper "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/http/mapper"
	apierrors "github.com/Apurer/ghadwa-checkout/internal/shared/errors"
)

var responder = apierrors.NewChainedResponder("", ordershttpmapper.ProblemFor)

var registerOnce sync.Once

// RegisterBindingValidators installs checkout binding tags and json field names on gin's validator.
func RegisterBindingValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin binding validator is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		err = ordershttpmapper.RegisterValidators(v)
	})
	return err
}

func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondBindingError turns a failed ShouldBindJSON into a 400 problem.
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		responder.BadRequest(c, "request body is not valid JSON for this endpoint")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	responder.ValidationFailed(c, fields)
}

// fieldPath drops the root struct name: "CheckoutRequest.customer.phone" becomes "customer.phone".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case ordershttpmapper.PhoneTag:
		return "must be an 11 digit mobile number starting with 010, 011, 012 or 015"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " entries"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
