package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatwire/internal/tui/ui"
)

// LoginView is the sign-in form shown while unauthenticated.
type LoginView struct {
	*tview.Flex
	form     *tview.Form
	message  *tview.TextView
	theme    *ui.Theme
	busy     bool
	onSubmit func(identifier, secret string)
}

// NewLoginView creates the sign-in form for server.
func NewLoginView(theme *ui.Theme, server string) *LoginView {
	lv := &LoginView{theme: theme}

	lv.form = tview.NewForm().
		AddInputField("Username or email", "", 32, nil, nil).
		AddPasswordField("Password", "", 32, '*', nil)
	lv.form.AddButton("Login", lv.submit)
	lv.form.SetBorder(true)
	lv.form.SetBorderColor(theme.BorderColor)
	lv.form.SetTitle(" Sign in ")
	lv.form.SetTitleColor(theme.TitleColor)
	lv.form.SetBackgroundColor(theme.BgColor)
	lv.form.SetFieldBackgroundColor(theme.BgColor)
	lv.form.SetFieldTextColor(theme.FgColor)
	lv.form.SetLabelColor(theme.MenuKeyColor)

	lv.message = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	lv.message.SetBackgroundColor(theme.BgColor)
	lv.SetMessage(fmt.Sprintf("[::d]%s[-:-:-]", tview.Escape(server)))

	inner := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(lv.form, 9, 0, true).
		AddItem(lv.message, 2, 0, false).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(inner, 56, 0, true).
		AddItem(nil, 0, 1, false)
	return lv
}

// SetOnSubmit sets the callback for the Login button.
func (lv *LoginView) SetOnSubmit(fn func(identifier, secret string)) {
	lv.onSubmit = fn
}

// Form exposes the inner form for focusing.
func (lv *LoginView) Form() *tview.Form {
	return lv.form
}

// SetBusy disables resubmission while a login is in flight.
func (lv *LoginView) SetBusy(v bool) {
	lv.busy = v
	if v {
		lv.SetMessage("[yellow]Signing in...[-]")
	}
}

// SetError shows msg under the form.
func (lv *LoginView) SetError(msg string) {
	lv.SetMessage(fmt.Sprintf("[%s]%s[-]", ui.Tag(lv.theme.NoticeErrColor), tview.Escape(msg)))
}

// SetMessage replaces the line under the form.
func (lv *LoginView) SetMessage(text string) {
	lv.message.SetText(text)
}

// Reset clears the password field.
func (lv *LoginView) Reset() {
	if f, ok := lv.form.GetFormItemByLabel("Password").(*tview.InputField); ok {
		f.SetText("")
	}
	lv.busy = false
}

func (lv *LoginView) submit() {
	if lv.busy || lv.onSubmit == nil {
		return
	}
	identifier := lv.text("Username or email")
	secret := lv.text("Password")
	if identifier == "" || secret == "" {
		lv.SetError("Enter both username and password")
		return
	}
	lv.onSubmit(identifier, secret)
}

func (lv *LoginView) text(label string) string {
	if f, ok := lv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return f.GetText()
	}
	return ""
}
