package views

import (
	"strings"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/rivo/tview"
)

// ProfileView shows the logged-in user and lets them edit name and
// hobbies or log out.
type ProfileView struct {
	*tview.Form
	onSave   func(name string, hobbies []string)
	onLogout func()
	onBack   func()
}

// NewProfileView creates the profile page.
func NewProfileView() *ProfileView {
	v := &ProfileView{Form: tview.NewForm()}
	v.SetBorder(true)
	v.SetTitle(" Profile ")

	v.AddInputField("Name", "", 40, nil, nil)
	v.AddInputField("Email", "", 40, nil, nil)
	v.AddInputField("Hobbies", "", 40, nil, nil)
	v.AddButton("Save", func() {
		name := v.fieldText("Name")
		if v.onSave != nil && name != "" {
			v.onSave(name, splitHobbies(v.fieldText("Hobbies")))
		}
	})
	v.AddButton("Log out", func() {
		if v.onLogout != nil {
			v.onLogout()
		}
	})
	v.AddButton("Back", func() {
		if v.onBack != nil {
			v.onBack()
		}
	})
	return v
}

// Update fills the form from the current user.
func (v *ProfileView) Update(user *api.User) {
	if user == nil {
		return
	}
	var hobbies []string
	for _, h := range user.Hobbies {
		hobbies = append(hobbies, h.Name)
	}
	v.GetFormItemByLabel("Name").(*tview.InputField).SetText(user.Name)
	email := v.GetFormItemByLabel("Email").(*tview.InputField)
	email.SetText(user.Email)
	email.SetDisabled(true)
	v.GetFormItemByLabel("Hobbies").(*tview.InputField).SetText(strings.Join(hobbies, ", "))
}

func (v *ProfileView) fieldText(label string) string {
	return v.GetFormItemByLabel(label).(*tview.InputField).GetText()
}

// SetOnSave registers the save callback.
func (v *ProfileView) SetOnSave(fn func(name string, hobbies []string)) { v.onSave = fn }

// SetOnLogout registers the logout callback.
func (v *ProfileView) SetOnLogout(fn func()) { v.onLogout = fn }

// SetOnBack registers the back callback.
func (v *ProfileView) SetOnBack(fn func()) { v.onBack = fn }
