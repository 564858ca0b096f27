package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abezemskiy/gophauth/internal/client/api"
	"github.com/abezemskiy/gophauth/internal/client/logger"
	"github.com/abezemskiy/gophauth/internal/client/tui"
	"github.com/abezemskiy/gophauth/internal/client/tui/app"
	"github.com/abezemskiy/gophauth/internal/client/tui/home"
	"github.com/abezemskiy/gophauth/internal/client/tui/login"
	"github.com/abezemskiy/gophauth/internal/repositories/identity"

	"github.com/rivo/tview"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// newApp - описание команд клиента. in - источник пароля; для терминала пароль вводится без эха.
func newApp(in io.Reader) *cli.App {
	var (
		serverAddr string
		logLevel   string
		logFile    string
		client     *api.Client
	)
	reader := newPasswordReader(in)

	return &cli.App{
		Name:  "gophauth-client",
		Usage: "Register and log in to a gophauth server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Aliases:     []string{"a"},
				Usage:       "Address of the gophauth server",
				Value:       "http://localhost:8080",
				EnvVars:     []string{"GOPHAUTH_CLIENT_SERVER_ADDRESS"},
				Destination: &serverAddr,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Log level",
				Value:       "info",
				EnvVars:     []string{"GOPHAUTH_CLIENT_LOG_LEVEL"},
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "Write logs to the file instead of stderr",
				EnvVars:     []string{"GOPHAUTH_CLIENT_LOG_FILE"},
				Destination: &logFile,
			},
		},
		Before: func(*cli.Context) error {
			if err := logger.Initialize(logLevel, logFile); err != nil {
				return fmt.Errorf("failed to initialize logger, %w", err)
			}
			client = api.New(serverAddr)
			return nil
		},
		Commands: []*cli.Command{
			registerCmd(&client, reader),
			checkCmd(&client, reader),
			tuiCmd(&client),
		},
	}
}

func usernameFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "username",
		Aliases:     []string{"u", "user"},
		Usage:       "Name of the user",
		Destination: dst,
		Required:    true,
	}
}

func registerCmd(client **api.Client, reader *passwordReader) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from the terminal or stdin)",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(ctx *cli.Context) error {
			password, err := reader.read(ctx.App.Writer)
			if err != nil {
				return err
			}
			user, err := (*client).Register(ctx.Context, identity.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "registered %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
}

func checkCmd(client **api.Client, reader *passwordReader) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "check",
		Usage: "Log in, print the current user and log out",
		Flags: []cli.Flag{usernameFlag(&username)},
		Action: func(ctx *cli.Context) error {
			password, err := reader.read(ctx.App.Writer)
			if err != nil {
				return err
			}
			c := *client
			if _, err := c.Login(ctx.Context, identity.Credentials{Username: username, Password: password}); err != nil {
				return err
			}
			user, err := c.Me(ctx.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "logged in as %s (%s), created at %s\n",
				user.Username, user.ID, user.CreatedAt.Format("2006-01-02 15:04:05"))

			if err := c.Logout(ctx.Context); err != nil {
				logger.ClientLog.Warn("logout error", zap.Error(err))
			}
			return nil
		},
	}
}

func tuiCmd(client **api.Client) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Start the terminal interface",
		Action: func(ctx *cli.Context) error {
			a := app.NewApp(ctx.Context, *client, []app.Primitives{
				{Name: tui.Home, Prim: home.Page},
				{Name: tui.Login, Prim: login.LoginPage},
				{Name: tui.Register, Prim: login.RegisterPage},
				{Name: tui.Account, Prim: func(*app.App) tview.Primitive { return tview.NewBox() }},
			})

			// остановка интерфейса при завершении контекста
			go func() {
				<-ctx.Context.Done()
				a.Stop()
			}()
			return a.Run()
		},
	}
}

// passwordReader - источник пароля: терминал без эха или построчное чтение.
type passwordReader struct {
	terminal *os.File
	lines    *bufio.Reader
}

func newPasswordReader(in io.Reader) *passwordReader {
	r := &passwordReader{lines: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.terminal = f
	}
	return r
}

// read - читает пароль без эха из терминала, иначе первой строкой входного потока.
func (r *passwordReader) read(w io.Writer) (string, error) {
	if r.terminal != nil {
		fmt.Fprint(w, "Password: ")
		buf, err := term.ReadPassword(int(r.terminal.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("failed to read password, %w", err)
		}
		return checkPassword(string(buf))
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password, %w", err)
	}
	return checkPassword(strings.TrimRight(line, "\r\n"))
}

func checkPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("missing password")
	}
	return password, nil
}
