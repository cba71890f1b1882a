package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spiffcs/broombot/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig(opts *Options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

When run without arguments, shows the current merged configuration.

Subcommands:
  init      Create a minimal config file
  path      Show config file locations
  defaults  Show all default values
  show      Show current merged config (same as bare 'broombot config')`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(NewCmdConfigInit())
	cmd.AddCommand(NewCmdConfigPath())
	cmd.AddCommand(NewCmdConfigDefaults())
	cmd.AddCommand(NewCmdConfigShow(opts))

	return cmd
}

// NewCmdConfigInit creates the config init subcommand.
func NewCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minimal config file",
		Long: `Create a minimal config file with starter settings.

Use --global to create in ~/.config/broombot/config.yaml (applies everywhere)
Use --local to create in ./.broombot.yaml (applies only in this directory)
Without flags, you'll be prompted to choose.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd.OutOrStdout(), global, local)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create global config file (~/.config/broombot/config.yaml)")
	cmd.Flags().BoolVar(&local, "local", false, "Create local config file (./.broombot.yaml)")

	return cmd
}

// NewCmdConfigPath creates the config path subcommand.
func NewCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Long:  `Show the paths to global and local config files and indicate which exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigPath(cmd.OutOrStdout())
		},
	}
}

// NewCmdConfigDefaults creates the config defaults subcommand.
func NewCmdConfigDefaults() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show all default configuration values",
		Long: `Show a complete configuration with all default values.

This can be redirected to create a config file with all defaults:
  broombot config defaults > ~/.config/broombot/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

// NewCmdConfigShow creates the config show subcommand.
func NewCmdConfigShow(opts *Options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		Long:  `Show the current configuration after merging global and local configs and environment overrides. Tokens are never shown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), opts, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	return cmd
}

// promptLocation asks where the config file should be created.
func promptLocation(paths config.ConfigPathInfo) (path, location string, err error) {
	prompt := promptui.Select{
		Label: "Where would you like to create the config file?",
		Items: []string{
			fmt.Sprintf("Global (%s) - applies everywhere", paths.GlobalPath),
			fmt.Sprintf("Local (%s) - applies only in this directory", paths.LocalPath),
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("prompt failed: %w", err)
	}
	if idx == 0 {
		return paths.GlobalPath, "global", nil
	}
	return paths.LocalPath, "local", nil
}

func runConfigInit(w io.Writer, global, local bool) error {
	if global && local {
		return fmt.Errorf("cannot specify both --global and --local")
	}

	paths := config.GetConfigPaths()
	var targetPath, location string

	switch {
	case global:
		targetPath, location = paths.GlobalPath, "global"
	case local:
		targetPath, location = paths.LocalPath, "local"
	default:
		var err error
		targetPath, location, err = promptLocation(paths)
		if err != nil {
			return err
		}
	}

	// Check if file already exists
	if _, err := os.Stat(targetPath); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'broombot config show' to view current config", targetPath)
	}

	if err := config.SaveTo(targetPath, config.MinimalConfig()); err != nil {
		return err
	}

	fmt.Fprintf(w, "Created %s config file: %s\n\n", location, targetPath)
	fmt.Fprintln(w, "Edit this file to set the owner and bot identities.")
	fmt.Fprintln(w, "Run 'broombot config defaults' to see all available options.")

	return nil
}

func runConfigPath(w io.Writer) error {
	paths := config.GetConfigPaths()

	fmt.Fprintln(w, "Configuration file locations:")
	fmt.Fprintln(w)

	globalStatus := "not found"
	if paths.GlobalExists {
		globalStatus = "exists"
	}
	fmt.Fprintf(w, "  Global: %s (%s)\n", paths.GlobalPath, globalStatus)

	localStatus := "not found"
	if paths.LocalExists {
		localStatus = "exists"
	}
	fmt.Fprintf(w, "  Local:  %s (%s)\n", paths.LocalPath, localStatus)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Load order: global -> local -> environment (later overrides earlier)")

	return nil
}

func runConfigShow(w io.Writer, opts *Options, format string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	return writeConfig(w, cfg, format)
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		yamlStr, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		fmt.Fprint(w, yamlStr)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}

	return nil
}
