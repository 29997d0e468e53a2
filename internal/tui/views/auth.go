package views

import (
	"strings"

	"github.com/rivo/tview"
)

// LoginView is the email/password form shown to unauthenticated
// sessions.
type LoginView struct {
	*tview.Form
	onSubmit func(email, password string)
	onSignup func()
}

// NewLoginView creates the login form.
func NewLoginView() *LoginView {
	v := &LoginView{Form: tview.NewForm()}
	v.SetBorder(true)
	v.SetTitle(" Log in ")

	v.AddInputField("Email", "", 40, nil, nil)
	v.AddPasswordField("Password", "", 40, '*', nil)
	v.AddButton("Log in", func() {
		email := v.GetFormItemByLabel("Email").(*tview.InputField).GetText()
		password := v.GetFormItemByLabel("Password").(*tview.InputField).GetText()
		if v.onSubmit != nil && email != "" && password != "" {
			v.onSubmit(email, password)
		}
	})
	v.AddButton("Sign up instead", func() {
		if v.onSignup != nil {
			v.onSignup()
		}
	})
	return v
}

// SetOnSubmit registers the login callback.
func (v *LoginView) SetOnSubmit(fn func(email, password string)) { v.onSubmit = fn }

// SetOnSignup registers the switch-to-signup callback.
func (v *LoginView) SetOnSignup(fn func()) { v.onSignup = fn }

// SignupView is the account creation form.
type SignupView struct {
	*tview.Form
	onSubmit func(name, email, password string, hobbies []string)
	onLogin  func()
}

// NewSignupView creates the signup form. Hobbies are entered as a
// comma-separated list.
func NewSignupView() *SignupView {
	v := &SignupView{Form: tview.NewForm()}
	v.SetBorder(true)
	v.SetTitle(" Sign up ")

	v.AddInputField("Name", "", 40, nil, nil)
	v.AddInputField("Email", "", 40, nil, nil)
	v.AddPasswordField("Password", "", 40, '*', nil)
	v.AddInputField("Hobbies", "", 40, nil, nil)
	v.AddButton("Create account", func() {
		name := v.fieldText("Name")
		email := v.fieldText("Email")
		password := v.fieldText("Password")
		if v.onSubmit != nil && name != "" && email != "" && password != "" {
			v.onSubmit(name, email, password, splitHobbies(v.fieldText("Hobbies")))
		}
	})
	v.AddButton("Log in instead", func() {
		if v.onLogin != nil {
			v.onLogin()
		}
	})
	return v
}

func (v *SignupView) fieldText(label string) string {
	return v.GetFormItemByLabel(label).(*tview.InputField).GetText()
}

// SetOnSubmit registers the signup callback.
func (v *SignupView) SetOnSubmit(fn func(name, email, password string, hobbies []string)) {
	v.onSubmit = fn
}

// SetOnLogin registers the switch-to-login callback.
func (v *SignupView) SetOnLogin(fn func()) { v.onLogin = fn }

func splitHobbies(raw string) []string {
	var hobbies []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hobbies = append(hobbies, h)
		}
	}
	return hobbies
}
