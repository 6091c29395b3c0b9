package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xen-inventory/internal/config"
	"xen-inventory/internal/inventory"
	"xen-inventory/internal/xapi"
)

var (
	flagHostname string
	flagUsername string
	flagPassword string
	flagGuest    string
	flagHost     string
	flagReload   bool
	flagList     bool
)

var rootCmd = &cobra.Command{
	Use:   "xen-inventory",
	Short: "Ansible dynamic inventory for XenServer virtual machines",
	Long: `Lists XenServer resident VMs as an Ansible dynamic inventory,
grouped by the networks their interfaces attach to, with a TTL-bounded
on-disk cache in front of the XAPI queries.`,
	Example: `  xen-inventory -l
  xen-inventory -s xen.example.com -u root -p secret -l
  xen-inventory -r`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagHostname, "hostname", "s", "", "Xen Server FQDN")
	f.StringVarP(&flagUsername, "username", "u", "", "Xen Server username")
	f.StringVarP(&flagPassword, "password", "p", "", "Xen Server password")
	f.StringVarP(&flagGuest, "guest", "g", "", "Print a single guest")
	f.StringVarP(&flagHost, "host", "x", "", "Print a single guest")
	f.BoolVarP(&flagReload, "reload-cache", "r", false, "Reload cache")
	f.BoolVarP(&flagList, "list", "l", false, "List all VMs")
}

func run(cmd *cobra.Command, args []string) error {
	if flagHost != "" || flagGuest != "" {
		// Single-entity lookup is declared but not implemented; Ansible
		// accepts an empty object here.
		fmt.Fprintln(cmd.OutOrStdout(), "{}")
		return nil
	}
	if !flagList && !flagReload {
		return cmd.Help()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	hostname := firstNonEmpty(flagHostname, cfg.Hostname)
	username := firstNonEmpty(flagUsername, cfg.Username)
	password := firstNonEmpty(flagPassword, cfg.Password)
	if password == "" {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	client, err := xapi.Connect(hostname, username, password, logger)
	if err != nil {
		return fmt.Errorf("could not connect to XenServer: %w", err)
	}
	defer client.Logout()

	orchestrator := inventory.NewOrchestrator(
		inventory.NewBuilder(client, logger),
		inventory.Store{},
		cfg.CachePath,
		cfg.CacheTTL,
		logger,
	)

	doc, err := orchestrator.Get(cmd.Context(), flagReload)
	if err != nil {
		return err
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// buildLogger writes to stderr; stdout is reserved for the inventory
// JSON Ansible reads.
func buildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewTextHandler(os.Stderr, hOpts))
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
