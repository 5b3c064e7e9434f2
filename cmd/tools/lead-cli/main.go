// cmd/tools/lead-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"lead-workers/internal/common/logger"
	"lead-workers/internal/common/wls"
	"lead-workers/internal/leads"
)

// connFlags are shared by every subcommand that talks to the lead service.
type connFlags struct {
	environment  *string
	endpoint     *string
	providerCode *string
	login        *string
	password     *string
	timeout      *time.Duration
	format       *string
	verbose      *bool
}

func addConnFlags(fs *flag.FlagSet, defaultFormat string) *connFlags {
	return &connFlags{
		environment:  fs.String("env", envOr("WLS_ENVIRONMENT", "dev"), "Service environment (live or dev)"),
		endpoint:     fs.String("endpoint", os.Getenv("WLS_ENDPOINT_URL"), "Endpoint URL, overrides -env"),
		providerCode: fs.String("provider", os.Getenv("WLS_PROVIDER_CODE"), "Provider code"),
		login:        fs.String("login", os.Getenv("WLS_LOGIN"), "Service login"),
		password:     fs.String("password", os.Getenv("WLS_PASSWORD"), "Service password"),
		timeout:      fs.Duration("timeout", 30*time.Second, "Request timeout"),
		format:       fs.String("format", defaultFormat, "Output format (xml, array, boolean, integer)"),
		verbose:      fs.Bool("v", false, "Log service calls to stderr"),
	}
}

// envOr returns the value of the environment variable key, or def if it is unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (c *connFlags) session() *leads.Session {
	log := logger.NewNoOpLogger()
	if *c.verbose {
		log = logger.NewZapAdapter(logger.New("debug", "console", "stderr"))
	}

	client := wls.NewClient(wls.Config{
		Environment: *c.environment,
		EndpointURL: *c.endpoint,
		Login:       *c.login,
		Password:    *c.password,
		UserAgent:   "lead-cli",
		Timeout:     *c.timeout,
	}, log)

	return leads.NewSession(client,
		leads.WithDefaultProviderCode(*c.providerCode),
		leads.WithSessionLogger(log),
	)
}

func main() {
	_ = godotenv.Load()

	headersCmd := flag.NewFlagSet("headers", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	encodeCmd := flag.NewFlagSet("encode", flag.ExitOnError)

	headersConn := addConnFlags(headersCmd, "xml")

	statusConn := addConnFlags(statusCmd, "array")
	reference := statusCmd.String("ref", "", "Reference id returned by an earlier submission")

	submitConn := addConnFlags(submitCmd, "array")
	submitRecord := submitCmd.String("record", "", "Path to a JSON lead record, - for stdin")

	schemaPath := encodeCmd.String("schema", "", "Path to a saved getLeadHeaders document")
	encodeRecord := encodeCmd.String("record", "", "Path to a JSON lead record, - for stdin")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx := context.Background()
	var err error

	switch os.Args[1] {
	case "headers":
		headersCmd.Parse(os.Args[2:])
		err = runHeaders(ctx, os.Stdout, headersConn)

	case "status":
		statusCmd.Parse(os.Args[2:])
		if *reference == "" {
			fmt.Println("Error: ref is required for status.")
			statusCmd.Usage()
			os.Exit(1)
		}
		err = runStatus(ctx, os.Stdout, statusConn, *reference)

	case "submit":
		submitCmd.Parse(os.Args[2:])
		if *submitRecord == "" {
			fmt.Println("Error: record is required for submit.")
			submitCmd.Usage()
			os.Exit(1)
		}
		err = runSubmit(ctx, os.Stdout, submitConn, *submitRecord)

	case "encode":
		encodeCmd.Parse(os.Args[2:])
		if *schemaPath == "" || *encodeRecord == "" {
			fmt.Println("Error: schema and record are required for encode.")
			encodeCmd.Usage()
			os.Exit(1)
		}
		err = runEncode(ctx, os.Stdout, *schemaPath, *encodeRecord)

	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: lead-cli <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  headers   Fetch the field schema for a provider code")
	fmt.Println("  status    Fetch the service's document for a submitted lead")
	fmt.Println("  submit    Route, encode and submit a JSON lead record")
	fmt.Println("  encode    Route and encode a record against a saved schema without sending it")
}

func runHeaders(ctx context.Context, out io.Writer, conn *connFlags) error {
	format, err := leads.ParseOutputFormat(*conn.format)
	if err != nil {
		return err
	}
	result, err := conn.session().GetLeadHeaders(ctx, format)
	if err != nil {
		return err
	}
	return printResult(out, result)
}

func runStatus(ctx context.Context, out io.Writer, conn *connFlags, referenceID string) error {
	format, err := leads.ParseOutputFormat(*conn.format)
	if err != nil {
		return err
	}
	result, err := conn.session().GetLeadStatus(ctx, referenceID, format)
	if err != nil {
		return err
	}
	return printResult(out, result)
}

func runSubmit(ctx context.Context, out io.Writer, conn *connFlags, recordPath string) error {
	format, err := leads.ParseOutputFormat(*conn.format)
	if err != nil {
		return err
	}
	record, err := readRecord(recordPath)
	if err != nil {
		return err
	}

	result, err := conn.session().SetLead(ctx, record, format)
	if err != nil {
		return err
	}
	printDropped(out, result.Resolutions)
	return printResult(out, &result.Result)
}

func printResult(out io.Writer, result *leads.Result) error {
	if result.Format == leads.FormatXML {
		_, err := fmt.Fprintln(out, result.Raw)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Value())
}

func printDropped(out io.Writer, resolutions []leads.Resolution) {
	for _, r := range leads.Dropped(resolutions) {
		fmt.Fprintf(out, "# dropped %s (%s)\n", r.Key, r.Reason)
	}
}
