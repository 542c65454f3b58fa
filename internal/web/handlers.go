package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/desertthunder/brutaldon/internal/auth"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/services"
	"github.com/desertthunder/brutaldon/internal/shared"
)

// authorize resolves the session's API handle. When it returns false a response has already been written.
func (a *App) authorize(w http.ResponseWriter, r *http.Request) (models.SessionState, services.Mastodon, bool) {
	state := a.sessions.Load(r)

	client, err := a.resolver.Resolve(r.Context(), state)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return state, nil, false
	}
	if err != nil {
		a.logger.Error("failed to resolve credentials", "path", r.URL.Path, "err", err)
		a.render(w, r, http.StatusInternalServerError, "error.html", Page{Title: "Error", Error: "Could not load your account.", FullBrutalism: state.FullBrutalism})
		return state, nil, false
	}

	return state, client, true
}

// page starts the template data of a logged-in page.
func page(state models.SessionState, title string) Page {
	return Page{Title: title, FullBrutalism: state.FullBrutalism, LoggedIn: state.Authenticated()}
}

// remoteError answers a failed API call. A rejected token sends the user back to the login page.
func (a *App) remoteError(w http.ResponseWriter, r *http.Request, state models.SessionState, err error) {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		a.logger.Warn("instance rejected stored token", "instance", state.Instance, "username", state.Username)
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.Is(err, shared.ErrStatusNotFound):
		p := page(state, "Not found")
		p.Error = "That toot does not exist."
		a.render(w, r, http.StatusNotFound, "error.html", p)
	default:
		a.logger.Error("instance request failed", "path", r.URL.Path, "instance", state.Instance, "err", err)
		p := page(state, "Error")
		p.Error = "The instance could not be reached or returned an error."
		a.render(w, r, http.StatusBadGateway, "error.html", p)
	}
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, data Page) {
	if err := a.renderer.Render(w, status, name, data); err != nil {
		a.logger.Error("failed to render page", "template", name, "path", r.URL.Path, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (a *App) timeline(name, label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, client, ok := a.authorize(w, r)
		if !ok {
			return
		}

		toots, err := client.Timeline(r.Context(), name)
		if err != nil {
			a.remoteError(w, r, state, err)
			return
		}

		p := page(state, label)
		p.Toots = toots
		p.Form = PostForm{}
		p.Action = "/toot"
		a.render(w, r, http.StatusOK, "main/timeline.html", p)
	}
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	state := a.sessions.Load(r)
	a.render(w, r, http.StatusOK, "setup/login.html", Page{Title: "Log in", FullBrutalism: state.FullBrutalism, Form: LoginForm{}})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	current := a.sessions.Load(r)
	p := Page{Title: "Log in", FullBrutalism: current.FullBrutalism}

	form, err := parseLoginForm(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	p.Form = LoginForm{Instance: form.Instance, Username: form.Username}

	if err := a.forms.check(form); err != nil {
		p.Errors = fieldErrors(err)
		a.render(w, r, http.StatusBadRequest, "setup/login.html", p)
		return
	}

	state, err := a.provisioner.Login(r.Context(), auth.LoginRequest{
		Instance: form.Instance,
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		status, msg := loginFailure(err)
		a.logger.Warn("login failed", "instance", form.Instance, "username", form.Username, "err", err)
		p.Error = msg
		a.render(w, r, status, "setup/login.html", p)
		return
	}

	state.FullBrutalism = current.FullBrutalism
	if err := a.sessions.Save(w, r, state); err != nil {
		a.logger.Error("failed to save session", "err", err)
		p.Error = "Could not start a session."
		a.render(w, r, http.StatusInternalServerError, "setup/login.html", p)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// loginFailure maps a provisioning error to a status and a message for the login page.
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrInvalidInstance), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest, "Enter a valid instance address."
	case errors.Is(err, shared.ErrAuthFailed):
		return http.StatusUnauthorized, "Login failed. Check your email and password."
	case errors.Is(err, shared.ErrAppRegistration):
		return http.StatusBadGateway, "The instance refused to register this app."
	case errors.Is(err, shared.ErrDataIntegrity):
		return http.StatusInternalServerError, "Stored credentials for this instance are inconsistent."
	case errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway, "The instance could not be reached."
	default:
		return http.StatusInternalServerError, "Login failed."
	}
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Clear(w, r); err != nil {
		a.logger.Error("failed to clear session", "err", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) notLoggedIn(w http.ResponseWriter, r *http.Request) {
	state := a.sessions.Load(r)
	a.render(w, r, http.StatusOK, "error.html", Page{Title: "Error", Error: "Not logged in yet.", FullBrutalism: state.FullBrutalism})
}

func (a *App) notifications(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	notes, err := client.Notifications(r.Context())
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	p := page(state, "Notifications")
	p.Notes = notes
	a.render(w, r, http.StatusOK, "main/notifications.html", p)
}

// loadThread fetches a status and the thread around it.
func loadThread(r *http.Request, client services.Mastodon, id string) (*services.Status, *services.Context, error) {
	toot, err := client.Status(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	sc, err := client.StatusContext(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return toot, sc, nil
}

func (a *App) thread(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	toot, sc, err := loadThread(r, client, r.PathValue("id"))
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	p := page(state, "Thread")
	p.Toot, p.Context = toot, sc
	a.render(w, r, http.StatusOK, "main/thread.html", p)
}

func (a *App) settingsForm(w http.ResponseWriter, r *http.Request) {
	state, _, ok := a.authorize(w, r)
	if !ok {
		return
	}

	p := page(state, "Settings")
	p.Form = SettingsForm{FullBrutalism: state.FullBrutalism}
	a.render(w, r, http.StatusOK, "setup/settings.html", p)
}

func (a *App) settings(w http.ResponseWriter, r *http.Request) {
	state, _, ok := a.authorize(w, r)
	if !ok {
		return
	}

	form, err := parseSettingsForm(r)
	if err != nil {
		p := page(state, "Settings")
		p.Form = SettingsForm{FullBrutalism: state.FullBrutalism}
		p.Errors = fieldErrors(err)
		a.render(w, r, http.StatusBadRequest, "setup/settings.html", p)
		return
	}

	state.FullBrutalism = form.FullBrutalism
	if err := a.sessions.Save(w, r, state); err != nil {
		a.logger.Error("failed to save session", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) tootForm(w http.ResponseWriter, r *http.Request) {
	state, _, ok := a.authorize(w, r)
	if !ok {
		return
	}

	p := page(state, "Toot")
	p.Form = PostForm{}
	p.Action = "/toot"
	a.render(w, r, http.StatusOK, "main/post.html", p)
}

func (a *App) toot(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	form, err := parsePostForm(r)
	if err == nil {
		err = a.forms.check(form)
	}
	if err != nil {
		p := page(state, "Toot")
		p.Form, p.Errors, p.Action = form, fieldErrors(err), "/toot"
		a.render(w, r, http.StatusBadRequest, "main/post.html", p)
		return
	}

	if _, err := client.PostStatus(r.Context(), statusParams(form, "")); err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func statusParams(form PostForm, inReplyTo string) services.StatusParams {
	return services.StatusParams{
		Status:      form.Status,
		Visibility:  form.Visibility,
		SpoilerText: form.SpoilerText,
		InReplyToID: inReplyTo,
	}
}

// replyPrefill addresses a reply to the author of toot and everyone it mentions, each once.
func replyPrefill(toot *services.Status) string {
	accts := []string{toot.Account.Acct}
	for _, m := range toot.Mentions {
		accts = append(accts, m.Acct)
	}

	seen := make(map[string]bool, len(accts))
	var b strings.Builder
	for _, acct := range accts {
		key := strings.ToLower(acct)
		if acct == "" || seen[key] {
			continue
		}
		seen[key] = true
		b.WriteString("@" + acct + " ")
	}
	return b.String()
}

func (a *App) replyForm(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	toot, sc, err := loadThread(r, client, id)
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	p := page(state, "Reply")
	p.Toot, p.Context = toot, sc
	p.Form = PostForm{Status: replyPrefill(toot), Visibility: toot.Visibility, SpoilerText: toot.SpoilerText}
	p.Action = "/reply/" + id
	a.render(w, r, http.StatusOK, "main/reply.html", p)
}

func (a *App) reply(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	form, err := parsePostForm(r)
	if err == nil {
		err = a.forms.check(form)
	}
	if err != nil {
		toot, sc, lerr := loadThread(r, client, id)
		if lerr != nil {
			a.remoteError(w, r, state, lerr)
			return
		}

		p := page(state, "Reply")
		p.Toot, p.Context = toot, sc
		p.Form, p.Errors, p.Action = form, fieldErrors(err), "/reply/"+id
		a.render(w, r, http.StatusBadRequest, "main/reply.html", p)
		return
	}

	if _, err := client.PostStatus(r.Context(), statusParams(form, id)); err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	http.Redirect(w, r, "/thread/"+id, http.StatusFound)
}

func (a *App) favForm(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	toot, err := client.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	p := page(state, "Favourite")
	p.Toot = toot
	a.render(w, r, http.StatusOK, "main/fav.html", p)
}

// fav flips the favourite state of a status as the instance currently reports it.
func (a *App) fav(w http.ResponseWriter, r *http.Request) {
	state, client, ok := a.authorize(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	toot, err := client.Status(r.Context(), id)
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	if toot.Favourited {
		_, err = client.Unfavourite(r.Context(), id)
	} else {
		_, err = client.Favourite(r.Context(), id)
	}
	if err != nil {
		a.remoteError(w, r, state, err)
		return
	}

	http.Redirect(w, r, "/thread/"+id, http.StatusFound)
}

// fieldErrors extracts per-field messages, or files a non-field error under "form".
func fieldErrors(err error) FieldErrors {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields
	}
	return FieldErrors{"form": err.Error()}
}
