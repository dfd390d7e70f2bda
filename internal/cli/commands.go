package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/dictionary"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/notebook"
)

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = errors.New("not logged in")
	errNoBackup    = errors.New("backup is not configured")
)

type command struct {
	usage        string
	requiresAuth bool
	run          func(a *App, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {usage: "help", run: (*App).help},
		"login":    {usage: "login [email]", run: (*App).login},
		"signup":   {usage: "signup", run: (*App).signUp},
		"logout":   {usage: "logout", run: (*App).logout},
		"profile":  {usage: "profile", requiresAuth: true, run: (*App).profile},
		"password": {usage: "password", requiresAuth: true, run: (*App).changePassword},
		"forgot":   {usage: "forgot [email]", run: (*App).forgotPassword},
		"add":      {usage: "add <word> [= translation]", run: (*App).add},
		"edit":     {usage: "edit <word|id> = <translation>", run: (*App).edit},
		"examples": {usage: "examples <word|id>", run: (*App).examples},
		"list":     {usage: "list [new|learning|mastered]", run: (*App).list},
		"search":   {usage: "search <query>", run: (*App).search},
		"status":   {usage: "status <word|id> <new|learning|mastered>", run: (*App).setStatus},
		"delete":   {usage: "delete <word|id>", run: (*App).delete},
		"sync":     {usage: "sync", requiresAuth: true, run: (*App).syncNow},
		"bulk":     {usage: "bulk", requiresAuth: true, run: (*App).bulkPush},
		"restore":  {usage: "restore <server id>", requiresAuth: true, run: (*App).restore},
		"lookup":   {usage: "lookup <word>", run: (*App).lookup},
		"history":  {usage: "history [clear]", run: (*App).showHistory},
		"settings": {usage: "settings [reset | <name> <value>]", run: (*App).showSettings},
		"backup":   {usage: "backup push|pull", run: (*App).runBackup},
	}
}

// Execute runs the command named by args[0].
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	if cmd.requiresAuth {
		authed, err := a.auth.IsAuthenticated(ctx)
		if err != nil {
			return err
		}
		if !authed {
			return errNotLoggedIn
		}
	}

	err := cmd.run(a, ctx, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return err
}

func (a *App) help(context.Context, []string) error {
	names := slices.Sorted(maps.Keys(commands))
	a.printf("Available commands:\n")
	for _, name := range names {
		a.printf("  %s\n", commands[name].usage)
	}
	a.printf("  exit\n")
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email := strings.Join(args, " ")
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	user, err := a.account.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.printf("Signed in as %s\n", user.Email)
	return nil
}

func (a *App) signUp(ctx context.Context, _ []string) error {
	var req api.SignUpRequest
	prompts := []struct {
		text string
		dst  *string
	}{
		{"Enter first name", &req.FirstName},
		{"Enter last name", &req.LastName},
		{"Enter email", &req.Email},
	}
	for _, p := range prompts {
		v, err := GetSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	req.Password = password

	user, err := a.account.SignUp(ctx, req)
	if err != nil {
		return err
	}
	a.printf("Welcome, %s!\n", user.Name)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.account.Logout(ctx); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func (a *App) profile(ctx context.Context, _ []string) error {
	user, err := a.account.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	a.printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *App) changePassword(ctx context.Context, _ []string) error {
	oldPassword, err := GetPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	if err := a.account.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	a.printf("Password changed\n")
	return nil
}

func (a *App) forgotPassword(ctx context.Context, args []string) error {
	email := strings.Join(args, " ")
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	if err := a.account.ForgotPassword(ctx, email); err != nil {
		return err
	}
	a.printf("Check %s for a reset link\n", email)
	return nil
}

// splitAssign splits "word = translation".
func splitAssign(args []string) (string, string) {
	left, right, _ := strings.Cut(strings.Join(args, " "), "=")
	return strings.TrimSpace(left), strings.TrimSpace(right)
}

func (a *App) add(ctx context.Context, args []string) error {
	word, translation := splitAssign(args)
	if word == "" {
		return errUsage
	}

	p := models.WordPayload{Word: word, Translation: translation}
	if translation == "" {
		a.fillFromDictionary(ctx, &p)
	}

	w, err := a.notebook.AddWord(ctx, p)
	if err != nil {
		return err
	}
	if w == nil {
		a.printf("%q is already in the notebook\n", word)
		return nil
	}
	a.printf("Added %s: %s\n", w.Word, w.Translation)
	return nil
}

// fillFromDictionary looks the word up and copies the result of the
// preferred dictionary, or of any dictionary that answered.
func (a *App) fillFromDictionary(ctx context.Context, p *models.WordPayload) {
	prefs, err := a.settings.Get(ctx)
	if err != nil {
		return
	}
	lookup := dictionary.FetchAll(ctx, a.engines, p.Word, prefs.TargetLanguage)

	res := lookup.Results[prefs.DefaultDictionary]
	if srcs := sortedSources(lookup.Results); res == nil && len(srcs) > 0 {
		res = lookup.Results[srcs[0]]
	}
	if res == nil {
		return
	}
	p.Translation = res.Translation
	p.Pronunciation = res.Pronunciation
	p.Definition = res.Definition
	p.Examples = res.Examples
	p.Source = res.Source
}

// resolveWord finds a word by local id or, failing that, by its text among
// active words.
func (a *App) resolveWord(ctx context.Context, ref string) (*models.Word, error) {
	w, err := a.notebook.Get(ctx, ref)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, notebook.ErrNotFound) {
		return nil, err
	}

	words, err := a.notebook.ActiveWords(ctx)
	if err != nil {
		return nil, err
	}
	for i := range words {
		if strings.EqualFold(words[i].Word, ref) {
			return &words[i], nil
		}
	}
	return nil, fmt.Errorf("%q: %w", ref, notebook.ErrNotFound)
}

func (a *App) edit(ctx context.Context, args []string) error {
	ref, translation := splitAssign(args)
	if ref == "" || translation == "" {
		return errUsage
	}
	w, err := a.resolveWord(ctx, ref)
	if err != nil {
		return err
	}
	return a.notebook.UpdateWord(ctx, w.ID, models.WordEdit{Translation: &translation})
}

func (a *App) examples(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	w, err := a.resolveWord(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	lines, err := GetLines(a.reader, "Enter examples for "+w.Word, a.out)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return a.notebook.UpdateWord(ctx, w.ID, models.WordEdit{Examples: lines})
}

func (a *App) printWords(words []models.Word) {
	if len(words) == 0 {
		a.printf("No words\n")
		return
	}
	for _, w := range words {
		a.printf("%s  %-20s %-9s %s  [%s]\n", w.ID, w.Word, w.Status, w.Translation, w.SyncStatus)
	}
}

func (a *App) list(ctx context.Context, args []string) error {
	words, err := a.notebook.ActiveWords(ctx)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		status, ok := models.ParseStatus(args[0])
		if !ok {
			return errUsage
		}
		words = slices.DeleteFunc(words, func(w models.Word) bool { return w.Status != status })
	}
	a.printWords(words)
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	words, err := a.notebook.SearchWords(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.printWords(words)
	return nil
}

func (a *App) setStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	status, ok := models.ParseStatus(args[len(args)-1])
	if !ok {
		return errUsage
	}
	w, err := a.resolveWord(ctx, strings.Join(args[:len(args)-1], " "))
	if err != nil {
		return err
	}
	if err := a.notebook.UpdateStatus(ctx, w.ID, status); err != nil {
		return err
	}
	a.printf("%s is now %s\n", w.Word, status)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	w, err := a.resolveWord(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := a.notebook.DeleteWord(ctx, w.ID); err != nil {
		return err
	}
	a.printf("Deleted %s\n", w.Word)
	return nil
}

func (a *App) printStats(s models.SyncStats) {
	a.printf("Pushed %d, pulled %d, deleted %d, errors %d\n", s.Pushed, s.Pulled, s.Deleted, s.Errors)
}

func (a *App) syncNow(ctx context.Context, _ []string) error {
	stats, err := a.sync.Sync(ctx)
	a.printStats(stats)
	return err
}

func (a *App) bulkPush(ctx context.Context, _ []string) error {
	res, err := a.sync.BulkPush(ctx)
	if err != nil {
		return err
	}
	a.printf("Created %d, skipped %d\n", res.Created, res.Skipped)
	return nil
}

// restore undeletes an entry on the server and pulls it back.
func (a *App) restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	resp, err := a.client.Notebook().Restore(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("Restored %s\n", resp.Data.Word)
	return a.syncNow(ctx, nil)
}

func sortedSources[V any](m map[models.Source]V) []models.Source {
	return slices.Sorted(maps.Keys(m))
}

func (a *App) lookup(ctx context.Context, args []string) error {
	word := strings.TrimSpace(strings.Join(args, " "))
	if word == "" {
		return errUsage
	}
	prefs, err := a.settings.Get(ctx)
	if err != nil {
		return err
	}

	res := dictionary.FetchAll(ctx, a.engines, word, prefs.TargetLanguage)
	for _, src := range sortedSources(res.Results) {
		r := res.Results[src]
		a.printf("[%s] %s %s\n  %s\n", src, r.Word, r.Pronunciation, r.Translation)
		for _, ex := range r.Examples {
			a.printf("  - %s\n", ex)
		}
	}
	for _, src := range sortedSources(res.Errors) {
		a.printf("[%s] error: %s\n", src, res.Errors[src])
	}

	if _, err := a.recorder.Record(ctx, word, prefs.DefaultDictionary); err != nil {
		a.log.Warn(ctx, "failed to record lookup", "word", word, "error", err)
	}
	return nil
}

func (a *App) showHistory(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if args[0] != "clear" {
			return errUsage
		}
		if err := a.history.Clear(ctx); err != nil {
			return err
		}
		a.printf("History cleared\n")
		return nil
	}

	byDate, err := a.history.EntriesByDate(ctx)
	if err != nil {
		return err
	}
	if len(byDate) == 0 {
		a.printf("No history\n")
		return nil
	}
	dates := slices.Sorted(maps.Keys(byDate))
	slices.Reverse(dates)
	for _, d := range dates {
		a.printf("%s\n", d)
		for _, e := range byDate[d] {
			a.printf("  %s  %s (%s)\n", time.UnixMilli(e.Timestamp).Format("15:04"), e.Word, e.Provider)
		}
	}
	return nil
}

func (a *App) showSettings(ctx context.Context, args []string) error {
	switch {
	case len(args) == 1 && args[0] == "reset":
		if err := a.settings.Reset(ctx); err != nil {
			return err
		}
	case len(args) == 2:
		if err := a.settings.Set(ctx, args[0], args[1]); err != nil {
			return err
		}
	case len(args) != 0:
		return errUsage
	}

	s, err := a.settings.Get(ctx)
	if err != nil {
		return err
	}
	a.printf("targetLanguage     %s\n", s.TargetLanguage)
	a.printf("defaultDictionary  %s\n", s.DefaultDictionary)
	a.printf("autoPronunciation  %t\n", s.AutoPronunciation)
	a.printf("theme              %s\n", s.Theme)
	a.printf("panelPosition      %s\n", s.PanelPosition)
	a.printf("showFloatingIcon   %t\n", s.ShowFloatingIcon)
	return nil
}

func (a *App) runBackup(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if a.backup == nil {
		return errNoBackup
	}
	st, err := a.auth.State(ctx)
	if err != nil {
		return err
	}
	userID := ""
	if st.User != nil {
		userID = st.User.ID
	}

	switch args[0] {
	case "push":
		n, err := a.backup.Push(ctx, userID)
		if err != nil {
			return err
		}
		a.printf("Backed up %d words\n", n)
	case "pull":
		n, err := a.backup.Pull(ctx, userID)
		if err != nil {
			return err
		}
		a.printf("Restored %d words\n", n)
	default:
		return errUsage
	}
	return nil
}
