package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/avishiprsd/llm-automation-agent/internal/config"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/sandbox"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/logger"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

const adminHealthTimeout = 10 * time.Second

// runAdmin dispatches admin subcommands (routes, run, read, llm-health).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "routes":
		return runAdminRoutes(args[1:])
	case "run":
		return runAdminRun(args[1:])
	case "read":
		return runAdminRead(args[1:])
	case "llm-health":
		return runAdminLLMHealth(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: agent admin <command> [options]

Commands:
  routes       List the dispatch table in match order
  run          Execute one task without starting the server
  read         Read a file through the sandbox gateway
  llm-health   Probe the language model endpoint
  help         Show this help message

Examples:
  agent admin routes
  agent admin run --task "Count the Wednesdays in /data/dates.txt"
  echo "Sort /data/contacts.json" | agent admin run
  agent admin read --path /data/output.txt
  agent admin llm-health --prompt-key
`)
}

// loadAdminConfig loads the configuration the same way the server does,
// honoring --config when given.
func loadAdminConfig(configPath string) (*config.Config, *sandbox.Policy, error) {
	var flags config.CLIFlags
	if configPath != "" {
		flags.ConfigPath = &configPath
	}
	cfg, _, err := config.LoadWithCLI(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	policy, err := sandbox.NewPolicy(cfg.Sandbox.Root, sandbox.Mode(cfg.Sandbox.Mode))
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: %w", err)
	}
	return cfg, policy, nil
}

func runAdminRoutes(args []string) error {
	fs := flag.NewFlagSet("routes", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, policy, err := loadAdminConfig(*configPath)
	if err != nil {
		return err
	}
	svc, cleanup, err := buildServices(cfg, policy)
	if err != nil {
		return err
	}
	defer cleanup()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tROUTE\tALL\tANY")
	for i, r := range svc.engine.Dispatcher().Routes() {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			i, r.Name, strings.Join(r.Match.All, ","), strings.Join(r.Match.Any, ","))
	}
	return w.Flush()
}

func runAdminRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	text := fs.String("task", "", "task description (read from stdin if not provided)")
	verbose := fs.Bool("verbose", false, "write structured logs to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	description := *text
	if description == "" {
		var err error
		description, err = readTask(os.Stdin)
		if err != nil {
			return fmt.Errorf("read task: %w", err)
		}
	}
	if strings.TrimSpace(description) == "" {
		return errors.New("task description required")
	}

	cfg, policy, err := loadAdminConfig(*configPath)
	if err != nil {
		return err
	}
	if *verbose {
		log, closer := logger.NewWithWriter(cfg.Logging, os.Stderr)
		defer closer.Close()
		slog.SetDefault(log)
	} else {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}

	svc, cleanup, err := buildServices(cfg, policy)
	if err != nil {
		return err
	}
	defer cleanup()

	res := svc.engine.Execute(context.Background(), description)
	switch res.Status {
	case task.StatusRejected:
		return fmt.Errorf("rejected: %s", res.Message)
	case task.StatusError:
		return fmt.Errorf("%s: %s", task.MessageInternalError, res.Message)
	}

	fmt.Fprintf(os.Stderr, "route=%s status=%s\n", res.Route, res.Status)
	fmt.Println(res.Message)
	return nil
}

func runAdminRead(args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	path := fs.String("path", "", "file path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("--path is required")
	}

	_, policy, err := loadAdminConfig(*configPath)
	if err != nil {
		return err
	}

	return printRead(os.Stdout, service.NewReadGateway(policy), *path)
}

// printRead writes the file at path to w, or returns the gateway outcome
// as an error.
func printRead(w io.Writer, gw *service.ReadGateway, path string) error {
	res := gw.Read(path)
	switch res.Outcome {
	case service.ReadFound:
		_, err := w.Write(res.Content)
		return err
	case service.ReadNotFound:
		return fmt.Errorf("file not found: %s", path)
	case service.ReadOutsideSandbox:
		return errors.New(string(res.Content))
	default:
		return fmt.Errorf("read %s failed", path)
	}
}

func runAdminLLMHealth(args []string) error {
	fs := flag.NewFlagSet("llm-health", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	promptKey := fs.Bool("prompt-key", false, "prompt for the API key instead of using the configured one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, policy, err := loadAdminConfig(*configPath)
	if err != nil {
		return err
	}
	if *promptKey {
		key, err := promptSecret("LLM API key: ")
		if err != nil {
			return fmt.Errorf("read api key: %w", err)
		}
		cfg.LLM.APIKey = key
	}

	svc, cleanup, err := buildServices(cfg, policy)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), adminHealthTimeout)
	defer cancel()
	if ok, err := svc.llm.Health(ctx); !ok {
		return fmt.Errorf("llm %s unreachable: %w", cfg.LLM.URL, err)
	}
	fmt.Fprintf(os.Stderr, "llm %s reachable (model %s)\n", cfg.LLM.URL, cfg.LLM.Model)
	return nil
}

// readTask reads the task description from r. On a terminal it prompts for
// a single line; otherwise it consumes all input.
func readTask(r *os.File) (string, error) {
	if term.IsTerminal(int(r.Fd())) { //nolint:gosec // fd fits in int
		fmt.Fprint(os.Stderr, "Task: ")
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// promptSecret reads a secret from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
