package handler

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("handler.RegisterValidators: unexpected validator engine %T", binding.Validator.Engine())
	}

	// decimal.Decimal is validated as its string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	tags := map[string]validator.Func{
		"invoice_status": func(fl validator.FieldLevel) bool {
			return domain.ValidInvoiceStatuses[domain.InvoiceStatus(fl.Field().String())]
		},
		"contact_type": func(fl validator.FieldLevel) bool {
			t := domain.ContactType(fl.Field().String())
			return t == domain.ContactTypeCustomer || t == domain.ContactTypeSupplier
		},
		"role": func(fl validator.FieldLevel) bool {
			return domain.ValidRoles[domain.UserRole(fl.Field().String())]
		},
		"currency": func(fl validator.FieldLevel) bool {
			return currencyPattern.MatchString(fl.Field().String())
		},
		"decimal_gte0": func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && !d.IsNegative()
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("handler.RegisterValidators: %s: %w", tag, err)
		}
	}
	return nil
}
