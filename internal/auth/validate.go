package auth

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eia/publicaciones/pkg/domain"
)

// Form field names. They match the backend payload keys.
const (
	FieldFullName = "nombreCompleto"
	FieldEmail    = "correoElectronico"
	FieldPassword = "contrasena"
	FieldPhone    = "numero"
)

const (
	minPasswordLen = 12
	maxPasswordLen = 50
	specialChars   = "!@#$%^&*"
)

// RegistrationForm is the raw text typed into the registration form.
type RegistrationForm struct {
	FullName string
	Email    string
	Password string
	Phone    string
}

// Credentials is the raw text typed into the login form.
type Credentials struct {
	Email    string
	Password string
}

// ValidateRegistration reports every violated field of form. emailDomain is the
// required suffix, e.g. "@eia.edu.co".
func ValidateRegistration(form RegistrationForm, emailDomain string) domain.FieldErrors {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(form.FullName) == "" {
		errs[FieldFullName] = "El nombre completo es requerido"
	}
	if !strings.HasSuffix(strings.TrimSpace(form.Email), emailDomain) ||
		len(strings.TrimSpace(form.Email)) == len(emailDomain) {
		errs[FieldEmail] = "El correo debe ser de dominio " + emailDomain
	}
	if n := utf8.RuneCountInString(form.Password); n < minPasswordLen || n > maxPasswordLen {
		errs[FieldPassword] = "La contraseña debe tener entre 12 y 50 caracteres"
	}
	// The complexity message wins when both password rules fail.
	if !complexEnough(form.Password) {
		errs[FieldPassword] = "La contraseña debe incluir mayúsculas, minúsculas, números y caracteres especiales"
	}
	if _, ok := parsePhone(form.Phone); !ok {
		errs[FieldPhone] = "El número debe ser un valor numérico"
	}
	return errs
}

// ValidateCredentials requires both login fields.
func ValidateCredentials(c Credentials) domain.FieldErrors {
	errs := domain.FieldErrors{}
	if strings.TrimSpace(c.Email) == "" {
		errs[FieldEmail] = "El correo electrónico es requerido"
	}
	if c.Password == "" {
		errs[FieldPassword] = "La contraseña es requerida"
	}
	return errs
}

func complexEnough(pw string) bool {
	var digit, lower, upper, special bool
	for _, r := range pw {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	return digit && lower && upper && special
}

// parsePhone accepts any finite numeric text that fits an int64 and truncates
// it to an integer.
func parsePhone(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
