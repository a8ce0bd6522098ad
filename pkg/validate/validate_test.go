package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dukaan/pkg/validate"
)

type registerInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"nullable,email"`
	Phone    string `json:"phone"    validate:"nullable,regex=^[0-9]{10}$"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"nullable,in=customer,delivery_boy,admin"`
}

func TestStructValid(t *testing.T) {
	errs := validate.Struct(&registerInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret1",
		Role:     "customer",
	})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestStructRequired(t *testing.T) {
	errs := validate.Struct(&registerInput{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "email", "nullable empty field must be skipped")
}

func TestStructEmail(t *testing.T) {
	errs := validate.Struct(&registerInput{Name: "Asha", Email: "not-an-email", Password: "secret1"})
	assert.Contains(t, errs, "email")
}

func TestStructRegexPhone(t *testing.T) {
	errs := validate.Struct(&registerInput{Name: "Asha", Phone: "12345", Password: "secret1"})
	assert.Contains(t, errs, "phone")

	errs = validate.Struct(&registerInput{Name: "Asha", Phone: "9876543210", Password: "secret1"})
	assert.NotContains(t, errs, "phone")
}

func TestStructInWithCommas(t *testing.T) {
	errs := validate.Struct(&registerInput{Name: "Asha", Password: "secret1", Role: "superuser"})
	assert.Contains(t, errs, "role")

	errs = validate.Struct(&registerInput{Name: "Asha", Password: "secret1", Role: "delivery_boy"})
	assert.NotContains(t, errs, "role")
}

func TestStructNumericBounds(t *testing.T) {
	type item struct {
		Quantity int     `json:"quantity" validate:"required,gte=1"`
		Price    float64 `json:"price"    validate:"required,gte=0.01"`
	}

	errs := validate.Struct(&item{Quantity: 0, Price: 10})
	assert.Contains(t, errs, "quantity")

	errs = validate.Struct(&item{Quantity: 2, Price: 59.5})
	assert.False(t, validate.HasErrors(errs))
}

func TestStructMinPasswordLength(t *testing.T) {
	errs := validate.Struct(&registerInput{Name: "Asha", Password: "abc"})
	assert.Equal(t, "The password must be at least 6 characters.", errs["password"])
}
