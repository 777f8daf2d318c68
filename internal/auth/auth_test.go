package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eia/publicaciones/internal/apitest"
	"github.com/eia/publicaciones/internal/logging"
	"github.com/eia/publicaciones/internal/session"
	"github.com/eia/publicaciones/pkg/client"
	"github.com/eia/publicaciones/pkg/domain"
)

const testDomain = "@eia.edu.co"

func validForm() RegistrationForm {
	return RegistrationForm{
		FullName: "Ana Gómez",
		Email:    "ana@eia.edu.co",
		Password: "Secreta#12345",
		Phone:    "3001234567",
	}
}

func TestValidateRegistration_Valid(t *testing.T) {
	assert.Empty(t, ValidateRegistration(validForm(), testDomain))
}

func TestValidateRegistration_SingleViolation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegistrationForm)
		field   string
		message string
	}{
		{"empty name", func(f *RegistrationForm) { f.FullName = "  " }, FieldFullName, "requerido"},
		{"foreign domain", func(f *RegistrationForm) { f.Email = "ana@gmail.com" }, FieldEmail, testDomain},
		{"domain only", func(f *RegistrationForm) { f.Email = testDomain }, FieldEmail, testDomain},
		{"domain not suffix", func(f *RegistrationForm) { f.Email = "ana@eia.edu.co.evil.com" }, FieldEmail, testDomain},
		{"short password", func(f *RegistrationForm) { f.Password = "Sh0rt#pw" }, FieldPassword, "entre 12 y 50"},
		{"long password", func(f *RegistrationForm) { f.Password = "Aa1!" + strings.Repeat("x", 47) }, FieldPassword, "entre 12 y 50"},
		{"no upper", func(f *RegistrationForm) { f.Password = "secreta#12345" }, FieldPassword, "mayúsculas"},
		{"no lower", func(f *RegistrationForm) { f.Password = "SECRETA#12345" }, FieldPassword, "mayúsculas"},
		{"no digit", func(f *RegistrationForm) { f.Password = "Secreta#abcde" }, FieldPassword, "mayúsculas"},
		{"no special", func(f *RegistrationForm) { f.Password = "Secreta12345x" }, FieldPassword, "mayúsculas"},
		{"empty phone", func(f *RegistrationForm) { f.Phone = "" }, FieldPhone, "numérico"},
		{"letters in phone", func(f *RegistrationForm) { f.Phone = "300-abc" }, FieldPhone, "numérico"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			errs := ValidateRegistration(form, testDomain)
			assert.Equal(t, []string{tt.field}, errs.Fields(), "only the violated field reports")
			assert.Contains(t, errs[tt.field], tt.message)
		})
	}
}

func TestValidateRegistration_ComplexityMessageWins(t *testing.T) {
	form := validForm()
	form.Password = "short"
	errs := ValidateRegistration(form, testDomain)
	assert.Contains(t, errs[FieldPassword], "mayúsculas")
}

func TestValidateRegistration_AllInvalid(t *testing.T) {
	errs := ValidateRegistration(RegistrationForm{}, testDomain)
	assert.Equal(t, []string{FieldPassword, FieldEmail, FieldFullName, FieldPhone}, errs.Fields())
}

func TestParsePhone(t *testing.T) {
	n, ok := parsePhone(" 3001234567 ")
	require.True(t, ok)
	assert.Equal(t, int64(3001234567), n)
	n, ok = parsePhone("12.9")
	require.True(t, ok)
	assert.Equal(t, int64(12), n)

	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-Infinity", "1e30", "-1e19", "9223372036854775808"} {
		_, ok := parsePhone(in)
		assert.False(t, ok, in)
	}
}

func TestValidateRegistration_NonFinitePhone(t *testing.T) {
	for _, phone := range []string{"NaN", "Inf", "-Infinity", "1e30"} {
		errs := ValidateRegistration(RegistrationForm{
			FullName: "Ana",
			Email:    "ana@eia.edu.co",
			Password: "Secreta#12345",
			Phone:    phone,
		}, testDomain)
		assert.Equal(t, []string{FieldPhone}, errs.Fields(), phone)
	}
}

func newFlow(t *testing.T) (*Flow, *apitest.Server, session.Store) {
	t.Helper()
	srv := apitest.NewServer(t)
	store := session.NewMemoryStore()
	c := client.New(srv.URL, "", 0, nil)
	return NewFlow(c, store, testDomain, logging.Discard()), srv, store
}

func TestLogin_PersistsSession(t *testing.T) {
	flow, srv, store := newFlow(t)
	seeded, _ := srv.SeedUser("Ana", "ana@eia.edu.co", "Secreta#12345")

	user, err := flow.Login(context.Background(), Credentials{Email: " ana@eia.edu.co ", Password: "Secreta#12345"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	tok, ok := store.Token()
	require.True(t, ok)
	assert.NotEmpty(t, tok)
	cached, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "Ana", cached.FullName)
}

func TestLogin_FetchesProfileWhenOmitted(t *testing.T) {
	flow, srv, store := newFlow(t)
	srv.SeedUser("Ana", "ana@eia.edu.co", "Secreta#12345")
	srv.OmitLoginUser = true

	_, err := flow.Login(context.Background(), Credentials{Email: "ana@eia.edu.co", Password: "Secreta#12345"})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/usuario"))
	cached, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "ana@eia.edu.co", cached.Email)
}

func TestLogin_Rejected(t *testing.T) {
	flow, srv, store := newFlow(t)
	srv.SeedUser("Ana", "ana@eia.edu.co", "Secreta#12345")

	_, err := flow.Login(context.Background(), Credentials{Email: "ana@eia.edu.co", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Credenciales inválidas", LoginMessage(err))
	_, ok := store.Token()
	assert.False(t, ok, "failed login stores nothing")
}

func TestLogin_RequiresFields(t *testing.T) {
	flow, srv, _ := newFlow(t)
	_, err := flow.Login(context.Background(), Credentials{})
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Has(FieldEmail))
	assert.True(t, fe.Has(FieldPassword))
	assert.Zero(t, srv.Calls(http.MethodPost, "/usuario/login"))
}

func TestRegister(t *testing.T) {
	flow, srv, store := newFlow(t)

	created, err := flow.Register(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "ana@eia.edu.co", created.Email)
	_, ok := store.Token()
	assert.False(t, ok, "registration does not log in")

	_, err = flow.Login(context.Background(), Credentials{Email: "ana@eia.edu.co", Password: "Secreta#12345"})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/usuario"))
}

func TestRegister_ValidationNeverReachesNetwork(t *testing.T) {
	flow, srv, _ := newFlow(t)
	form := validForm()
	form.Email = "ana@gmail.com"

	_, err := flow.Register(context.Background(), form)
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{FieldEmail}, fe.Fields())
	assert.Zero(t, srv.Calls(http.MethodPost, "/usuario"))
}

func TestRegister_BackendRejects(t *testing.T) {
	flow, srv, _ := newFlow(t)
	srv.SeedUser("Ana", "ana@eia.edu.co", "x")

	_, err := flow.Register(context.Background(), validForm())
	require.Error(t, err)
	assert.Equal(t, "Error: HTTP error! status: 409", RegisterMessage(err))
}

func TestLogout(t *testing.T) {
	flow, _, store := newFlow(t)
	require.NoError(t, store.Set("tok", &domain.User{FullName: "Ana"}))
	require.NoError(t, flow.Logout())
	_, ok := store.Token()
	assert.False(t, ok)
	_, ok = store.User()
	assert.False(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "error", Failed.String())
}
