package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ssci-go/internal/app"
	"ssci-go/internal/config"
	"ssci-go/internal/encryption"
	"ssci-go/internal/gateway"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "ReadFile", "Execute").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation, gateway.UUIDGenerator{})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// promptPasscode reads a passcode from the terminal without echo.
func promptPasscode(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passcode: %w", err)
	}
	return string(raw), nil
}

func flagString(name string, state bool) string {
	if state {
		return name
	}
	return strings.Repeat("-", len(name))
}

var rootCmd = &cobra.Command{
	Use:   "ssci",
	Short: "Self-hosted sandbox gateway",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Fresh random key for sealing audit details.
		cfg := config.NewConfig(defaults["base_dir"], uuid.New().String())

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Sandbox Root: %s\n", cfg.Sandbox.Root)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Sandbox Root: %s\n", cfg.Sandbox.Root)
		fmt.Printf("Recycle Dir:  %s\n", cfg.Sandbox.RecycleDir)
		fmt.Printf("Audit DB:     %s\n", cfg.Audit.DBPath)
		fmt.Printf("Operator:     %s (#%d, %s)\n",
			cfg.Operator.Username, cfg.Operator.UserID, cfg.Operator.Role)
		fmt.Printf("Commands:     %s\n", strings.Join(cfg.Commands.Allowed, ", "))
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sandbox files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListFiles()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Sandbox is empty.")
			return nil
		}

		for _, e := range entries {
			lock := " "
			if e.Locked {
				lock = "L"
			}
			perms := fmt.Sprintf("%s %s %s %s",
				flagString("view", e.Permissions.View),
				flagString("download", e.Permissions.Download),
				flagString("edit", e.Permissions.Edit),
				flagString("delete", e.Permissions.Delete),
			)
			fmt.Printf("%s %s %8d  %s  %s\n",
				lock, perms, e.Size,
				time.Unix(e.Modified, 0).Format("2006-01-02 15:04:05"),
				e.Name,
			)
		}
		return nil
	},
}

// create command
var createCmd = &cobra.Command{
	Use:   "create FILENAME [CONTENT]",
	Short: "Create a new text file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateFile")
		if err != nil {
			return err
		}
		defer a.Close()

		content := ""
		if len(args) > 1 {
			content = args[1]
		}

		if err := a.CreateFile(args[0], content); err != nil {
			return err
		}

		fmt.Printf("Created %s\n", args[0])
		return nil
	},
}

// cat command
var catCmd = &cobra.Command{
	Use:   "cat FILENAME",
	Short: "Read file content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, _ := cmd.Flags().GetString("passcode")

		a, err := newApp("ReadFile")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ReadFile(args[0], passcode)
		if err != nil {
			return err
		}

		fmt.Print(res.Content)
		if !strings.HasSuffix(res.Content, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// write command
var writeCmd = &cobra.Command{
	Use:   "write FILENAME CONTENT",
	Short: "Overwrite file content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, _ := cmd.Flags().GetString("passcode")

		a, err := newApp("UpdateFile")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateFile(args[0], args[1], passcode); err != nil {
			return err
		}

		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm FILENAME",
	Short: "Move a file to the recycle bin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, _ := cmd.Flags().GetString("passcode")

		a, err := newApp("DeleteFile")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteFile(args[0], passcode); err != nil {
			return err
		}

		fmt.Printf("Moved %s to recycle bin\n", args[0])
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload PATH",
	Short: "Upload a local file into the sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		lock, _ := cmd.Flags().GetBool("lock")

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		if name == "" {
			name = filepath.Base(args[0])
		}

		opts := gateway.UploadOptions{Encrypt: encrypt, Lock: lock}
		if encrypt {
			pass, err := promptPasscode("Encryption passphrase")
			if err != nil {
				return err
			}
			opts.Passphrase = pass
		}
		if lock {
			pass, err := promptPasscode("Lock passcode")
			if err != nil {
				return err
			}
			opts.LockPasscode = pass
		}
		if cmd.Flags().Changed("view") || cmd.Flags().Changed("download") ||
			cmd.Flags().Changed("edit") || cmd.Flags().Changed("delete") {
			flags := gateway.DefaultPermissions().Flags()
			if cmd.Flags().Changed("view") {
				flags.View, _ = cmd.Flags().GetBool("view")
			}
			if cmd.Flags().Changed("download") {
				flags.Download, _ = cmd.Flags().GetBool("download")
			}
			if cmd.Flags().Changed("edit") {
				flags.Edit, _ = cmd.Flags().GetBool("edit")
			}
			if cmd.Flags().Changed("delete") {
				flags.Delete, _ = cmd.Flags().GetBool("delete")
			}
			opts.Permissions = &flags
		}

		a, err := newApp("Upload")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Upload(name, content, opts)
		if err != nil {
			return err
		}

		state := []string{}
		if res.Encrypted {
			state = append(state, "encrypted")
		}
		if res.Locked {
			state = append(state, "locked")
		}
		suffix := ""
		if len(state) > 0 {
			suffix = " (" + strings.Join(state, ", ") + ")"
		}
		fmt.Printf("Uploaded %s%s\n", res.Filename, suffix)
		return nil
	},
}

// download command
var downloadCmd = &cobra.Command{
	Use:   "download FILENAME [DEST]",
	Short: "Download a file out of the sandbox",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, _ := cmd.Flags().GetString("passcode")
		decrypt, _ := cmd.Flags().GetBool("decrypt")

		a, err := newApp("Download")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Download(args[0], passcode)
		if err != nil {
			return err
		}

		content := res.Content
		dest := res.Filename
		if decrypt {
			pass, err := promptPasscode("Decryption passphrase")
			if err != nil {
				return err
			}
			content, err = encryption.NewFileCipher().Decrypt(content, pass)
			if err != nil {
				return fmt.Errorf("decrypting %s: %w", res.Filename, err)
			}
			dest = strings.TrimSuffix(dest, gateway.EncryptedSuffix)
		}
		if len(args) > 1 {
			dest = args[1]
		}

		if err := os.WriteFile(dest, content, 0o640); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}

		fmt.Printf("Downloaded %s (%d bytes) to %s\n", res.Filename, res.Size, dest)
		return nil
	},
}

// perms command
var permsCmd = &cobra.Command{
	Use:   "perms",
	Short: "Manage file permissions",
}

var permsGetCmd = &cobra.Command{
	Use:   "get FILENAME",
	Short: "Show a file's permissions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetPermissions")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.GetPermissions(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("view:     %v\n", view.Flags.View)
		fmt.Printf("download: %v\n", view.Flags.Download)
		fmt.Printf("edit:     %v\n", view.Flags.Edit)
		fmt.Printf("delete:   %v\n", view.Flags.Delete)
		fmt.Printf("owner:    %d\n", view.Owner)
		fmt.Printf("locked:   %v\n", view.Locked)
		return nil
	},
}

var permsSetCmd = &cobra.Command{
	Use:   "set FILENAME",
	Short: "Replace a file's permission flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var flags gateway.PermissionFlags
		flags.View, _ = cmd.Flags().GetBool("view")
		flags.Download, _ = cmd.Flags().GetBool("download")
		flags.Edit, _ = cmd.Flags().GetBool("edit")
		flags.Delete, _ = cmd.Flags().GetBool("delete")

		a, err := newApp("SetPermissions")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetPermissions(args[0], flags); err != nil {
			return err
		}

		fmt.Printf("Permissions updated for %s\n", args[0])
		return nil
	},
}

// lock / unlock commands
var lockCmd = &cobra.Command{
	Use:   "lock FILENAME",
	Short: "Protect a file with a passcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, err := promptPasscode("New passcode")
		if err != nil {
			return err
		}

		a, err := newApp("SetLock")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetLock(args[0], true, passcode, ""); err != nil {
			return err
		}

		fmt.Printf("Locked %s\n", args[0])
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock FILENAME",
	Short: "Remove a file's passcode lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passcode, err := promptPasscode("Current passcode")
		if err != nil {
			return err
		}

		a, err := newApp("SetLock")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetLock(args[0], false, "", passcode); err != nil {
			return err
		}

		fmt.Printf("Unlocked %s\n", args[0])
		return nil
	},
}

// bin command
var binCmd = &cobra.Command{
	Use:   "bin",
	Short: "Manage the recycle bin",
}

var binLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recycled files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListRecycleBin")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListRecycleBin()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Recycle bin is empty.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%-40s %8d  deleted %s by %s  %s left\n",
				e.InternalName, e.Size,
				time.Unix(e.DeletedAt, 0).Format("2006-01-02 15:04:05"),
				e.DeletedBy,
				(time.Duration(e.TimeRemaining) * time.Second).String(),
			)
		}
		return nil
	},
}

var binRestoreCmd = &cobra.Command{
	Use:   "restore INTERNAL_NAME",
	Short: "Restore a recycled file to the sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RestoreFile")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.RestoreFile(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Restored %s\n", entry.OriginalName)
		return nil
	},
}

var binRmCmd = &cobra.Command{
	Use:   "rm INTERNAL_NAME",
	Short: "Permanently delete a recycled file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("PurgeFile")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.PurgeFile(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Purged %s\n", entry.OriginalName)
		return nil
	},
}

var binEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Permanently delete every recycled file",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("EmptyRecycleBin")
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.EmptyRecycleBin()
		if err != nil {
			return err
		}

		fmt.Printf("Purged %d file(s)\n", count)
		return nil
	},
}

// exec command
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run whitelisted commands",
}

var execRunCmd = &cobra.Command{
	Use:   "run COMMAND...",
	Short: "Execute a whitelisted command",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Execute")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Execute(strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Print(res.Output)
		if !strings.HasSuffix(res.Output, "\n") {
			fmt.Println()
		}
		if res.Status != gateway.StatusSuccess {
			return fmt.Errorf("command failed with code %d", res.ReturnCode)
		}
		return nil
	},
}

var execAllowedCmd = &cobra.Command{
	Use:   "allowed",
	Short: "Show the command whitelist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AllowedCommands")
		if err != nil {
			return err
		}
		defer a.Close()

		allowed, err := a.AllowedCommands()
		if err != nil {
			return err
		}

		for _, name := range allowed {
			fmt.Println(name)
		}
		return nil
	},
}

var execHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "View your command execution history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		a, err := newApp("CommandHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.CommandHistory(limit, offset)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No commands recorded.")
			return nil
		}

		for _, r := range records {
			fmt.Printf("#%d  %s  %-8s  %s\n",
				r.ID,
				r.ExecutedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				r.Command,
			)
		}
		return nil
	},
}

var execStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View your command execution statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CommandStats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.CommandStats()
		if err != nil {
			return err
		}

		fmt.Printf("Total:      %d\n", stats.Total)
		fmt.Printf("Successful: %d\n", stats.Successful)
		fmt.Printf("Failed:     %d\n", stats.Failed)
		fmt.Printf("Last 24h:   %d\n", stats.Recent24h)
		return nil
	},
}

// logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		action, _ := cmd.Flags().GetString("action")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		user, _ := cmd.Flags().GetInt64("user")

		opts := gateway.QueryLogsOptions{
			ActionType: action,
			Limit:      limit,
			Offset:     offset,
		}
		if cmd.Flags().Changed("user") {
			opts.UserID = &user
		}

		a, err := newApp("QueryLogs")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.QueryLogs(opts)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No audit records.")
			return nil
		}

		for _, r := range records {
			actor := "-"
			if r.UserID != nil {
				actor = fmt.Sprintf("%d", *r.UserID)
			}
			fmt.Printf("#%d  %s  user:%-4s %-24s %-10s %s\n",
				r.ID,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				actor,
				r.ActionType,
				r.Status,
				r.Details,
			)
		}
		return nil
	},
}

var logsTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List recorded audit action types",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("LogActionTypes")
		if err != nil {
			return err
		}
		defer a.Close()

		types, err := a.LogActionTypes()
		if err != nil {
			return err
		}

		for _, t := range types {
			fmt.Println(t)
		}
		return nil
	},
}

var logsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View audit trail statistics (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("LogStats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.LogStats()
		if err != nil {
			return err
		}

		fmt.Printf("Total records: %d\n", stats.Total)
		fmt.Printf("Last 24h:      %d\n", stats.Recent24h)
		fmt.Println("\nBy status:")
		for status, n := range stats.ByStatus {
			fmt.Printf("  %-12s %d\n", status, n)
		}
		fmt.Println("\nBy action:")
		for action, n := range stats.ByAction {
			fmt.Printf("  %-24s %d\n", action, n)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// file commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().StringP("passcode", "p", "", "Passcode for a locked file")
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringP("passcode", "p", "", "Passcode for a locked file")
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().StringP("passcode", "p", "", "Passcode for a locked file")
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().String("name", "", "Store under this name instead of the source basename")
	uploadCmd.Flags().BoolP("encrypt", "e", false, "Encrypt content with a passphrase")
	uploadCmd.Flags().BoolP("lock", "l", false, "Protect the file with a passcode")
	uploadCmd.Flags().Bool("view", true, "Allow viewing")
	uploadCmd.Flags().Bool("download", true, "Allow downloading")
	uploadCmd.Flags().Bool("edit", false, "Allow editing")
	uploadCmd.Flags().Bool("delete", false, "Allow deleting")
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("passcode", "p", "", "Passcode for a locked file")
	downloadCmd.Flags().BoolP("decrypt", "d", false, "Decrypt an encrypted file with a passphrase")

	// permission commands
	permsCmd.AddCommand(permsGetCmd)
	permsCmd.AddCommand(permsSetCmd)
	permsSetCmd.Flags().Bool("view", false, "Allow viewing")
	permsSetCmd.Flags().Bool("download", false, "Allow downloading")
	permsSetCmd.Flags().Bool("edit", false, "Allow editing")
	permsSetCmd.Flags().Bool("delete", false, "Allow deleting")
	rootCmd.AddCommand(permsCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)

	// recycle bin subcommands
	binCmd.AddCommand(binLsCmd)
	binCmd.AddCommand(binRestoreCmd)
	binCmd.AddCommand(binRmCmd)
	binCmd.AddCommand(binEmptyCmd)
	rootCmd.AddCommand(binCmd)

	// exec subcommands
	execCmd.AddCommand(execRunCmd)
	execCmd.AddCommand(execAllowedCmd)
	execCmd.AddCommand(execHistoryCmd)
	execHistoryCmd.Flags().IntP("limit", "n", 50, "Maximum number of records to show")
	execHistoryCmd.Flags().Int("offset", 0, "Number of records to skip")
	execCmd.AddCommand(execStatsCmd)
	rootCmd.AddCommand(execCmd)

	// logs subcommands
	logsCmd.Flags().String("action", "", "Filter by action type")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of records to show")
	logsCmd.Flags().Int("offset", 0, "Number of records to skip")
	logsCmd.Flags().Int64("user", 0, "Filter by user ID (admin only)")
	logsCmd.AddCommand(logsTypesCmd)
	logsCmd.AddCommand(logsStatsCmd)
	rootCmd.AddCommand(logsCmd)
}
