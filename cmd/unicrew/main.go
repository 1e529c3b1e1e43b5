// Package main provides the entry point for the UniCrew command line client.
// It signs in against the UniCrew backend, keeps the session token pair fresh
// in the background, and exposes teams, notifications and the terminal UI.
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

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/unicrew-app/unicrew-go/internal/browser"
	"github.com/unicrew-app/unicrew-go/internal/config"
	"github.com/unicrew-app/unicrew-go/internal/logging"
	"github.com/unicrew-app/unicrew-go/internal/tui"
	"github.com/unicrew-app/unicrew-go/internal/watcher"
	"github.com/unicrew-app/unicrew-go/sdk/unicrew"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Command-line flags to control the application's behavior.
	var login bool
	var logout bool
	var whoami bool
	var register bool
	var verifyCode string
	var teams bool
	var teamID int64
	var page int
	var search string
	var notifications bool
	var markAllRead bool
	var tuiMode bool
	var openWeb bool
	var username string
	var password string
	var configPath string
	var showVersion bool

	flag.BoolVar(&login, "login", false, "Sign in and persist the session")
	flag.BoolVar(&logout, "logout", false, "Sign out and clear the persisted session")
	flag.BoolVar(&whoami, "whoami", false, "Show the signed-in profile")
	flag.BoolVar(&register, "register", false, "Start account registration")
	flag.StringVar(&verifyCode, "verify", "", "Confirm registration with the emailed code")
	flag.BoolVar(&teams, "teams", false, "List teams")
	flag.Int64Var(&teamID, "team", 0, "Show one team by id")
	flag.IntVar(&page, "page", 1, "Page number for listings")
	flag.StringVar(&search, "search", "", "Filter team listings by title")
	flag.BoolVar(&notifications, "notifications", false, "List notifications")
	flag.BoolVar(&markAllRead, "mark-all-read", false, "Mark all notifications read")
	flag.BoolVar(&tuiMode, "tui", false, "Start the terminal UI")
	flag.BoolVar(&openWeb, "open", false, "Open the web app in a browser")
	flag.StringVar(&username, "username", "", "Username for -login / -register")
	flag.StringVar(&password, "password", "", "")
	flag.StringVar(&configPath, "config", "", "Configure file path")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage of %s\n", os.Args[0])
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			if f.Name == "password" {
				return
			}
			s := fmt.Sprintf("  -%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if name != "" {
				s += " " + name
			}
			s += "\n    " + usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
				s += fmt.Sprintf(" (default %s)", f.DefValue)
			}
			_, _ = fmt.Fprint(out, s+"\n")
		})
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("unicrew %s, commit: %s, built: %s\n", Version, Commit, BuildDate)
		return
	}

	// Load environment variables from .env if present.
	if wd, errWd := os.Getwd(); errWd == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
			if !errors.Is(errLoad, os.ErrNotExist) {
				log.WithError(errLoad).Warn("failed to load .env file")
			}
		}
	}

	if configPath == "" {
		configPath = config.DefaultConfigFile()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return
	}

	logging.Setup(cfg.Debug)
	if cfg.LogDir != "" {
		if err = logging.ConfigureFileOutput(cfg.LogDir); err != nil {
			log.Errorf("failed to configure log output: %v", err)
			return
		}
	}

	store := unicrew.NewFileTokenStore(cfg.TokenFile)
	clientOpts := []unicrew.ClientOption{
		unicrew.WithTimeout(cfg.RequestTimeout),
		unicrew.WithListTimeout(cfg.ListTimeout),
	}
	if cfg.ProxyURL != "" {
		clientOpts = append(clientOpts, unicrew.WithProxy(cfg.ProxyURL))
	}
	session := unicrew.NewSession(cfg.APIBaseURL, store,
		unicrew.WithRefreshInterval(cfg.RefreshInterval),
		unicrew.WithClientOptions(clientOpts...),
	)
	defer session.Close()

	ctx := context.Background()

	switch {
	case openWeb:
		url := cfg.WebBaseURL
		if url == "" {
			url = strings.TrimSuffix(cfg.APIBaseURL, "/api/")
		}
		if err = browser.OpenURL(url); err != nil {
			log.Errorf("failed to open browser: %v", err)
		}

	case login:
		doLogin(ctx, session, username, password)

	case logout:
		session.Logout()
		fmt.Println("Signed out.")

	case register:
		doRegister(ctx, session, username)

	case verifyCode != "":
		doVerify(ctx, session, verifyCode)

	default:
		// Everything below needs a restored session.
		session.Initialize(ctx)
		if !session.IsAuthenticated() && !tuiMode {
			fmt.Fprintln(os.Stderr, "Not signed in. Run with -login first.")
			os.Exit(1)
		}

		switch {
		case whoami:
			doWhoami(ctx, session)
		case teams:
			doTeamsList(ctx, session, page, search)
		case teamID != 0:
			doTeamDetail(ctx, session, teamID, cfg.WebBaseURL)
		case notifications:
			doNotifications(ctx, session)
		case markAllRead:
			if err = session.Notifications().MarkAllRead(ctx); err != nil {
				log.Errorf("failed to mark notifications read: %v", err)
				return
			}
			fmt.Println("All notifications marked read.")
		case tuiMode:
			runTUI(session, cfg)
		default:
			flag.CommandLine.Usage()
		}
	}
}

// runTUI starts the terminal UI with the token file watched for changes made
// by other processes, so an external sign-out is picked up live.
func runTUI(session *unicrew.Session, cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := watcher.New(cfg.TokenFile, session.ReloadFromStore)
	if err := w.Start(ctx); err != nil {
		log.WithError(err).Warn("token file watcher unavailable")
	} else {
		defer w.Stop()
	}

	if err := tui.Run(session, cfg.WebBaseURL, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
	}
}

func doLogin(ctx context.Context, session *unicrew.Session, username, password string) {
	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		username = prompt(reader, "Username: ")
	}
	if password == "" {
		password = prompt(reader, "Password: ")
	}
	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "Username and password are required.")
		os.Exit(1)
	}
	if err := session.Login(ctx, username, password); err != nil {
		log.Errorf("login failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Signed in as %s.\n", username)
}

func doRegister(ctx context.Context, session *unicrew.Session, username string) {
	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		username = prompt(reader, "Username: ")
	}
	email := prompt(reader, "Email: ")
	password1 := prompt(reader, "Password: ")
	password2 := prompt(reader, "Repeat password: ")

	detail, err := session.Account().RegisterStep1(ctx, username, email, password1, password2)
	if err != nil {
		log.Errorf("registration failed: %v", err)
		os.Exit(1)
	}
	if detail == "" {
		detail = "Verification code sent. Finish with -verify CODE."
	}
	fmt.Println(detail)
}

func doVerify(ctx context.Context, session *unicrew.Session, code string) {
	reader := bufio.NewReader(os.Stdin)
	email := prompt(reader, "Email: ")
	detail, err := session.Account().RegisterStep2(ctx, email, code)
	if err != nil {
		log.Errorf("verification failed: %v", err)
		os.Exit(1)
	}
	if detail == "" {
		detail = "Account confirmed. You can sign in now."
	}
	fmt.Println(detail)
}

func doWhoami(ctx context.Context, session *unicrew.Session) {
	profile, err := session.Users().Profile(ctx)
	if err != nil {
		log.Errorf("failed to fetch profile: %v", err)
		os.Exit(1)
	}
	name := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	fmt.Printf("Username:  %s\n", profile.Username)
	if name != "" {
		fmt.Printf("Name:      %s\n", name)
	}
	fmt.Printf("Email:     %s\n", profile.Email)
	if profile.Faculty != "" {
		fmt.Printf("Faculty:   %s\n", profile.Faculty)
	}
	if len(profile.SkillsList) > 0 {
		fmt.Printf("Skills:    %s\n", strings.Join(profile.SkillsList, ", "))
	}
}

func doTeamsList(ctx context.Context, session *unicrew.Session, page int, search string) {
	result, err := session.Teams().List(ctx, unicrew.TeamFilter{Page: page, Title: search})
	if err != nil {
		log.Errorf("failed to list teams: %v", err)
		os.Exit(1)
	}
	pages := (result.Count + unicrew.PageSize - 1) / unicrew.PageSize
	if pages < 1 {
		pages = 1
	}
	fmt.Printf("%-6s %-36s %-18s %-8s %s\n", "ID", "Title", "Category", "Status", "Creator")
	for _, t := range result.Results {
		fmt.Printf("%-6d %-36s %-18s %-8s %s\n", t.ID, clip(t.Title, 36), clip(t.Category, 18), t.Status, t.Creator)
	}
	fmt.Printf("\nPage %d/%d, %d teams total.\n", page, pages, result.Count)
}

func doTeamDetail(ctx context.Context, session *unicrew.Session, id int64, webBaseURL string) {
	team, err := session.Teams().Get(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch team %d: %v", id, err)
		os.Exit(1)
	}
	fmt.Printf("%s [%s]\n", team.Title, team.Status)
	fmt.Printf("Category: %s\nCreator:  %s\nCreated:  %s\n", team.Category, team.Creator, team.CreatedAt.Format("2006-01-02"))
	if len(team.RequiredSkills) > 0 {
		fmt.Printf("Skills:   %s\n", strings.Join(team.RequiredSkills, ", "))
	}
	if team.Description != "" {
		fmt.Printf("\n%s\n", team.Description)
	}
	if team.InviteToken != "" && webBaseURL != "" {
		fmt.Printf("\nInvite link: %s\n", session.Teams().InviteLink(webBaseURL, team.InviteToken))
	}
}

func doNotifications(ctx context.Context, session *unicrew.Session) {
	items, err := session.Notifications().List(ctx)
	if err != nil {
		log.Errorf("failed to list notifications: %v", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return
	}
	for _, n := range items {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func clip(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
