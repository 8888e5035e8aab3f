// Command stockctl is a terminal client for the inventory API. It keeps
// the session on disk and renews the access token when it has expired.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"inventory-backend/internal/client"
	"inventory-backend/internal/session"
)

const usage = `usage: stockctl <command> [flags]

commands:
  login   -email EMAIL [-password PASSWORD]
  logout
  status
  take    -kind gift|variant -id ID -qty N -reason REASON_ID [-notes TEXT]
  return  -kind gift|variant -id ID -qty N [-notes TEXT]
  low     [-kind gift|variant]

environment:
  STOCKCTL_API      API base URL (default http://localhost:8080)
  STOCKCTL_SESSION  session file (default ~/.stockctl/session.json)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "stockctl:", err)
		if errors.Is(err, session.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "run `stockctl login` first")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	logger := zap.NewNop()
	if os.Getenv("STOCKCTL_DEBUG") != "" {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	base := os.Getenv("STOCKCTL_API")
	if base == "" {
		base = "http://localhost:8080"
	}
	path, err := sessionPath()
	if err != nil {
		return err
	}

	guard, err := session.NewGuard(
		session.NewHTTPRenewer(base),
		session.WithPersister(&session.FileStore{Path: path}),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	c := client.New(base, guard)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return login(ctx, c, rest, stdin, out)
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case "status":
		return status(ctx, c, guard, out)
	case "take":
		return take(ctx, c, rest, out)
	case "return":
		return restock(ctx, c, rest, out)
	case "low":
		return low(ctx, c, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func sessionPath() (string, error) {
	if p := os.Getenv("STOCKCTL_SESSION"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stockctl", "session.json"), nil
}

func login(ctx context.Context, c *client.Client, args []string, stdin io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}
	if *password == "" {
		fmt.Fprint(out, "password: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		*password = strings.TrimSpace(line)
	}

	u, err := c.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func status(ctx context.Context, c *client.Client, guard *session.Guard, out io.Writer) error {
	u, err := c.Me(ctx)
	if errors.Is(err, session.ErrUnauthorized) {
		fmt.Fprintln(out, guard.State())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s as %s <%s>\n", guard.State(), u.Name, u.Email)
	return nil
}

type stockFlags struct {
	fs     *flag.FlagSet
	kind   *string
	id     *uint
	qty    *int
	reason *uint
	notes  *string
}

func newStockFlags(name string, withReason bool) *stockFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f := &stockFlags{
		fs:    fs,
		kind:  fs.String("kind", "gift", "gift or variant"),
		id:    fs.Uint("id", 0, "item id"),
		qty:   fs.Int("qty", 0, "quantity"),
		notes: fs.String("notes", "", "free-text note"),
	}
	if withReason {
		f.reason = fs.Uint("reason", 0, "take reason id")
	}
	return f
}

func (f *stockFlags) parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *f.id == 0 {
		return fmt.Errorf("%s: -id is required", f.fs.Name())
	}
	if *f.qty <= 0 {
		return fmt.Errorf("%s: -qty must be positive", f.fs.Name())
	}
	if f.reason != nil && *f.reason == 0 {
		return fmt.Errorf("%s: -reason is required", f.fs.Name())
	}
	return nil
}

func take(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	f := newStockFlags("take", true)
	if err := f.parse(args); err != nil {
		return err
	}
	res, err := c.Take(ctx, *f.kind, *f.id, *f.qty, *f.reason, *f.notes)
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func restock(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	f := newStockFlags("return", false)
	if err := f.parse(args); err != nil {
		return err
	}
	res, err := c.Return(ctx, *f.kind, *f.id, *f.qty, *f.notes)
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func printResult(out io.Writer, res client.StockResult) {
	fmt.Fprintf(out, "movement #%d recorded, quantity now %d", res.Movement.ID, res.NewQuantity)
	if res.IsLow {
		fmt.Fprint(out, " (LOW)")
	}
	fmt.Fprintln(out)
}

func low(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("low", flag.ContinueOnError)
	kind := fs.String("kind", "", "gift or variant (both when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := c.LowStock(ctx, *kind)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "nothing is low on stock")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tNAME\tQTY\tMIN")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", it.Kind, it.ID, it.Name, it.Quantity, it.Threshold)
	}
	return tw.Flush()
}
