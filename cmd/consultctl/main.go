// Command consultctl calls the consultation backend through the shared API
// client: configured base URL, stored session token, request interceptors
// and normalized errors.
//
//	consultctl --config config.yml /tenants --param page=2
//	consultctl --method POST /consultations --data '{"topic":"tax"}'
//	consultctl --token eyJhbGciOi...
//	consultctl --health
//	consultctl --retries 3 /reports
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/consultdesk/apiclient/version"
)

type options struct {
	configFile string
	envFile    string
	method     string
	data       string
	params     []string
	headers    []string
	files      []string
	timeout    time.Duration
	retries    int
	token      string
	logout     bool
	health     bool
	version    bool
	path       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "consultctl: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.StringVarP(&o.configFile, "config", "c", "", "config file (default: discovered)")
	fs.StringVar(&o.envFile, "env-file", "", ".env file (default: discovered)")
	fs.StringVarP(&o.method, "method", "X", "GET", "HTTP method")
	fs.StringVarP(&o.data, "data", "d", "", "request body; JSON is sent as JSON, anything else as text")
	fs.StringArrayVarP(&o.params, "param", "p", nil, "query parameter key=value (repeatable)")
	fs.StringArrayVarP(&o.headers, "header", "H", nil, "request header key=value (repeatable)")
	fs.StringArrayVarP(&o.files, "file", "F", nil, "upload field=path as multipart (repeatable)")
	fs.DurationVar(&o.timeout, "timeout", 0, "per-call timeout (default: api.timeout)")
	fs.IntVar(&o.retries, "retries", 0, "attempts for retryable failures (default: retry.max_attempts)")
	fs.StringVar(&o.token, "token", "", "store a session token and exit")
	fs.BoolVar(&o.logout, "logout", false, "remove the stored session token and exit")
	fs.BoolVar(&o.health, "health", false, "print component health and exit")
	fs.BoolVarP(&o.version, "version", "v", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.method = strings.ToUpper(o.method)
	o.path = fs.Arg(0)
	if o.path == "" && o.token == "" && !o.logout && !o.health && !o.version {
		return nil, fmt.Errorf("a request path is required")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		_, err := fmt.Fprintln(stdout, version.Get().String())
		return err
	}
	cfg, err := loadConfig(opts.configFile, opts.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.retries > 0 {
		cfg.Retry.MaxAttempts = opts.retries
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	switch {
	case opts.token != "":
		return a.Login(ctx, opts.token)
	case opts.logout:
		return a.Logout(ctx)
	case opts.health:
		return a.Health(ctx, stdout)
	default:
		return a.Call(ctx, opts, stdout)
	}
}

func splitPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}
