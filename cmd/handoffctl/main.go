package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"handoff/internal/dto"
	"handoff/internal/store"

	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	args := os.Args[2:]
	cli := &cli{
		out:          os.Stdout,
		readPassword: promptPassword,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		openStore:    openStore,
	}

	var err error
	switch cmd {
	case "register":
		err = cli.runRegister(args)
	case "login":
		err = cli.runLogin(args)
	case "search":
		err = cli.runSearch(args)
	case "profile":
		err = cli.runProfile(args)
	case "disable":
		err = cli.runSetActive(args, false)
	case "enable":
		err = cli.runSetActive(args, true)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  register   Create an account and print its token")
	fmt.Fprintln(os.Stderr, "  login      Log in and print a token")
	fmt.Fprintln(os.Stderr, "  search     Find receivers near an address")
	fmt.Fprintln(os.Stderr, "  profile    Show the account behind a token")
	fmt.Fprintln(os.Stderr, "  disable    Deactivate an account (needs database access)")
	fmt.Fprintln(os.Stderr, "  enable     Reactivate an account (needs database access)")
	os.Exit(2)
}

type cli struct {
	out          io.Writer
	readPassword func(prompt string) (string, error)
	httpClient   *http.Client
	openStore    func(dsn string) (*store.Store, func() error, error)
}

func (c *cli) runRegister(args []string) error {
	fs := newFlagSet("register")
	baseURL := baseURLFlag(fs)
	var req dto.RegisterRequest
	var age int
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password (prompted when empty)")
	fs.StringVar(&req.Phone, "phone", "", "phone, 10-11 digits")
	fs.StringVar(&req.Role, "role", "buyer", "buyer, receiver or both")
	fs.StringVar(&req.Address, "address", "", "address, 10-200 characters")
	fs.IntVar(&age, "age", -1, "age (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if age >= 0 {
		req.Age = &age
	}
	if err := c.ensurePassword(&req.Password); err != nil {
		return err
	}
	return c.call(http.MethodPost, *baseURL, "/v1/auth/register", "", req)
}

func (c *cli) runLogin(args []string) error {
	fs := newFlagSet("login")
	baseURL := baseURLFlag(fs)
	var req dto.LoginRequest
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.Email == "" {
		return errors.New("-email is required")
	}
	if err := c.ensurePassword(&req.Password); err != nil {
		return err
	}
	return c.call(http.MethodPost, *baseURL, "/v1/auth/login", "", req)
}

func (c *cli) runSearch(args []string) error {
	fs := newFlagSet("search")
	baseURL := baseURLFlag(fs)
	token := tokenFlag(fs)
	var req dto.SearchRequest
	radius := fs.Float64("radius", dto.DefaultRadiusKm, "radius in km")
	fs.StringVar(&req.Address, "address", "", "delivery address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.RadiusKm = radius
	return c.call(http.MethodPost, *baseURL, "/v1/receivers/search", *token, req)
}

func (c *cli) runProfile(args []string) error {
	fs := newFlagSet("profile")
	baseURL := baseURLFlag(fs)
	token := tokenFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.call(http.MethodGet, *baseURL, "/v1/auth/profile", *token, nil)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func baseURLFlag(fs *flag.FlagSet) *string {
	return fs.String("base-url", getenv("HANDOFFCTL_BASE_URL", "http://localhost:8080"), "handoff server base URL")
}

func tokenFlag(fs *flag.FlagSet) *string {
	return fs.String("token", os.Getenv("HANDOFFCTL_TOKEN"), "bearer token")
}

func (c *cli) ensurePassword(pw *string) error {
	if *pw != "" {
		return nil
	}
	v, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	*pw = v
	return nil
}

func (c *cli) call(method, baseURL, path, token string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, strings.TrimRight(baseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var env struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			return fmt.Errorf("%s: %s", resp.Status, env.Error.Message)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return printJSON(c.out, json.RawMessage(data))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(pw), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
