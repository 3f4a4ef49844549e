// Command artbox-submit is a terminal client for students: sign in, list
// task boxes and submit artwork photos. It caches the last identity and
// submissions in a local bbolt file.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/localstore"
	"github.com/stemsi/artbox-backend/internal/logger"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"golang.org/x/term"
)

func main() {
	var (
		cachePath string
		server    string
		logLevel  string
	)
	home, _ := os.UserHomeDir()
	flag.StringVar(&cachePath, "cache", filepath.Join(home, ".artbox", "cache.db"), "Local cache file")
	flag.StringVar(&server, "server", "", "API base url (defaults to the last used)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Usage = usage
	flag.Parse()

	log := logger.SetupWriter(logLevel, "pretty", os.Stderr)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	store, err := localstore.Open(cachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local cache")
	}
	defer store.Close()

	profile, err := store.Profile()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read local cache")
	}
	if server != "" {
		profile.Server = server
	}
	if profile.Server == "" {
		profile.Server = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	app := &app{store: store, profile: profile, log: log}
	switch args[0] {
	case "login":
		err = app.login(ctx)
	case "logout":
		err = app.logout(ctx)
	case "tasks":
		err = app.listTasks(ctx)
	case "submit":
		err = app.submit(ctx, args[1:])
	case "history":
		err = app.history()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && expiredSession(apiErr.Body.Code) {
			_ = store.ClearToken()
			fmt.Fprintln(os.Stderr, "Session expired. Run `artbox-submit login` again.")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func expiredSession(code response.ErrCode) bool {
	return code == response.ErrSessionInvalidated || code == response.ErrTokenExpired
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: artbox-submit [flags] <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  login                                   sign in and remember the session")
	fmt.Fprintln(os.Stderr, "  logout                                  end the session")
	fmt.Fprintln(os.Stderr, "  tasks                                   list your class's task boxes")
	fmt.Fprintln(os.Stderr, "  submit -task <id> [-comment ..] img...  submit photos to a task box")
	fmt.Fprintln(os.Stderr, "  history                                 list submissions sent from this device")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

type app struct {
	store   *localstore.Store
	profile localstore.Profile
	log     zerolog.Logger
}

func (a *app) client() *client {
	return newClient(a.profile.Server, a.profile.Token)
}

func (a *app) requireToken() error {
	if a.profile.Token == "" {
		return errors.New("not signed in; run `artbox-submit login` first")
	}
	return nil
}

// prompt reads a line, offering def when the answer is empty.
func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func (a *app) login(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	email := prompt(reader, "Email", a.profile.Email)
	if email == "" {
		return errors.New("email is required")
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	session, err := a.client().signIn(ctx, email, string(pw))
	if err != nil {
		return err
	}
	if session.User.Role != model.RoleStudent {
		return errors.New("this client is for student accounts")
	}

	a.profile.Email = session.User.Email
	a.profile.StudentName = session.User.DisplayName
	a.profile.StudentNumber = session.User.StudentNumber
	a.profile.Token = session.Token
	if err := a.store.SaveProfile(a.profile); err != nil {
		return err
	}
	a.log.Debug().Str("user_id", session.User.ID.String()).Msg("Signed in")
	fmt.Printf("Signed in as %s (No. %s)\n", a.profile.StudentName, a.profile.StudentNumber)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.profile.Token != "" {
		if err := a.client().signOut(ctx); err != nil {
			a.log.Warn().Err(err).Msg("Server sign-out failed")
		}
	}
	return a.store.ClearToken()
}

func (a *app) listTasks(ctx context.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	tasks, err := a.client().tasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No task boxes yet.")
		return nil
	}
	for _, t := range tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = "  (due " + t.Deadline.Local().Format("01/02 15:04") + ")"
		}
		fmt.Printf("%s  %s / %s%s\n", t.ID, t.UnitLabel(), t.Title, deadline)
	}
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	if err := a.requireToken(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	taskID := fs.String("task", "", "Task box id")
	comment := fs.String("comment", "", "Comment for the teacher")
	title := fs.String("title", "", "Portfolio title")
	brightness := fs.Float64("brightness", model.NeutralBrightness, "Brightness factor (1.0 leaves the photo unchanged)")
	_ = fs.Parse(args)

	files := fs.Args()
	if *taskID == "" || len(files) == 0 {
		return errors.New("submit needs -task and at least one image")
	}

	work, err := a.client().submit(ctx, *taskID, files, *comment, *title, *brightness)
	if err != nil {
		return err
	}

	if err := a.store.Remember(localstore.Submission{
		WorkID:    work.ID.String(),
		TaskTitle: work.TaskTitle,
		Images:    len(work.Images),
		SentAt:    time.Now(),
	}); err != nil {
		a.log.Warn().Err(err).Msg("Failed to record submission locally")
	}
	fmt.Printf("Submitted %q (%d images)\n", work.DisplayTitle(), len(work.Images))
	return nil
}

func (a *app) history() error {
	subs, err := a.store.History()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("Nothing submitted from this device yet.")
		return nil
	}
	for _, s := range subs {
		fmt.Printf("%s  %s  %d images  %s\n", s.SentAt.Local().Format("2006/01/02 15:04"), s.TaskTitle, s.Images, s.WorkID)
	}
	return nil
}
