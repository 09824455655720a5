package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/authweb/config"
	"github.com/target/authweb/internal/adapters/authapi"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/http/validation"
	"github.com/target/authweb/internal/ports"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.CLIConfig
	Out    io.Writer
	Client *authapi.Client
	Jar    *sessionJar
}

// errUsage marks a bad invocation; main exits 2 for it.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := loadConfig()
	if err != nil {
		logger.ErrorContext(ctx, "load config", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo,gocritic // CLI must signal configuration load failure to shell scripts
	}

	err = run(ctx, runConfig{Args: os.Args[1:], Config: cfg, Out: os.Stdout, Logger: logger})
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		stop()
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status on bad usage
	default:
		if werr := writef(os.Stderr, "error: %v\n", err); werr != nil {
			logger.ErrorContext(ctx, "print error failed", "error", werr)
		}
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func loadConfig() (config.CLIConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.CLIConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	var cfg config.CLIConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

type runConfig struct {
	Args   []string
	Config config.CLIConfig
	Out    io.Writer
	Logger *slog.Logger
}

func run(ctx context.Context, rc runConfig) error {
	if len(rc.Args) == 0 {
		if err := printUsage(rc.Out); err != nil {
			return err
		}
		return errUsage
	}

	cmd, ok := commands()[rc.Args[0]]
	if !ok {
		if err := writef(rc.Out, "unknown command %q\n\n", rc.Args[0]); err != nil {
			return err
		}
		if err := printUsage(rc.Out); err != nil {
			return err
		}
		return errUsage
	}

	jar, err := openSessionJar(rc.Config.CookieFile, rc.Config.APIURL)
	if err != nil {
		return err
	}
	client, err := authapi.New(authapi.Options{
		BaseURL:    rc.Config.APIURL,
		HTTPClient: &http.Client{Timeout: rc.Config.Timeout, Jar: jar.Jar()},
		Logger:     rc.Logger,
	})
	if err != nil {
		return err
	}

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: rc.Logger,
		Config: rc.Config,
		Out:    rc.Out,
		Client: client,
		Jar:    jar,
	}
	if err := cmd.run(cmdCtx, rc.Args[1:]); err != nil {
		return err
	}
	return jar.Save()
}

func commands() map[string]command {
	return map[string]command{
		"register": {
			name:        "register",
			usage:       "-name NAME -email EMAIL -password PW -confirm PW",
			description: "Create an account and sign in",
			run:         runRegister,
		},
		"login": {
			name:        "login",
			usage:       "-email EMAIL -password PW",
			description: "Sign in",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user",
			run:         runWhoami,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: authweb-cli <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-10s %-50s %s\n", c.name, c.usage, c.description); err != nil {
			return err
		}
	}
	return nil
}

func runRegister(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(ctx.Out)

	var in domainauth.RegisterInput
	fs.StringVar(&in.Name, "name", "", "Display name")
	fs.StringVar(&in.Email, "email", "", "Email address")
	fs.StringVar(&in.Password, "password", "", "Password")
	fs.StringVar(&in.PasswordConfirm, "confirm", "", "Password confirmation")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if err := validation.ValidateRegistration(in); err != nil {
		return reportFormError(ctx.Out, err)
	}
	if _, err := ctx.Client.Register(ctx.Ctx, ports.Credentials{}, in); err != nil {
		return reportFormError(ctx.Out, err)
	}
	return writef(ctx.Out, "Registered and signed in as %s\n", in.Email)
}

func runLogin(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(ctx.Out)

	var in domainauth.LoginInput
	fs.StringVar(&in.Email, "email", "", "Email address")
	fs.StringVar(&in.Password, "password", "", "Password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if err := validation.ValidateLogin(in); err != nil {
		return reportFormError(ctx.Out, err)
	}
	if _, err := ctx.Client.Login(ctx.Ctx, ports.Credentials{}, in); err != nil {
		return reportFormError(ctx.Out, err)
	}
	return writef(ctx.Out, "Signed in as %s\n", in.Email)
}

func runLogout(ctx *commandContext, _ []string) error {
	if _, err := ctx.Client.Logout(ctx.Ctx, ports.Credentials{}); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	// The server may not expire every cookie it set.
	ctx.Jar.Clear()
	return writeln(ctx.Out, "Signed out")
}

func runWhoami(ctx *commandContext, _ []string) error {
	u, err := ctx.Client.CurrentUser(ctx.Ctx, ports.Credentials{})
	switch {
	case err == nil:
		return writef(ctx.Out, "%s <%s> (id %s)\n", u.Name, u.Email, u.ID)
	case apperrors.IsUnauthorized(err):
		return writeln(ctx.Out, "not signed in")
	default:
		return fmt.Errorf("whoami: %w", err)
	}
}

// errFormRejected is returned after the field or general errors have been printed.
var errFormRejected = errors.New("form rejected")

func reportFormError(w io.Writer, err error) error {
	if apiErr, ok := authapi.AsAPIError(err); ok {
		if len(apiErr.FieldErrors) > 0 {
			fields := make([]string, 0, len(apiErr.FieldErrors))
			for f := range apiErr.FieldErrors {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				for _, msg := range apiErr.FieldErrors[f] {
					if werr := writef(w, "%s: %s\n", f, msg); werr != nil {
						return werr
					}
				}
			}
			return errFormRejected
		}
		if werr := writeln(w, apiErr.Error()); werr != nil {
			return werr
		}
		return errFormRejected
	}

	if field := apperrors.GetField(err); field != "" {
		if werr := writef(w, "%s: %s\n", field, err.Error()); werr != nil {
			return werr
		}
		return errFormRejected
	}
	return err
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
