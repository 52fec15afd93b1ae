package cli

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/waveorc/internal/completion"
	"github.com/spf13/cobra"
)

// completionCmd is our custom completion command that includes the install subcommand
var completionCmd = &cobra.Command{
	Use:   "completion [command]",
	Short: "Generate shell completion scripts or install completions",
	Long: `Generate shell completion scripts for waveorc or install them automatically.

Use the subcommands to generate completion scripts for various shells,
or use 'install' to automatically configure your shell.`,
}

var completionInstallCmd = &cobra.Command{
	Use:   "install [bash|zsh|fish|powershell]",
	Short: "Install shell completions for waveorc",
	Long: `Install shell completions for waveorc.

This command auto-detects your shell from the $SHELL environment variable
and installs completions appropriately:

  - Bash: Appends sourcing block to ~/.bashrc
  - Zsh: Appends sourcing block to ~/.zshrc
  - Fish: Writes completion file to ~/.config/fish/completions/
  - PowerShell: Appends sourcing block to $PROFILE

A backup is created before modifying any rc file (with .waveorc-backup-TIMESTAMP suffix).

Use the --manual flag to display manual installation instructions without
modifying any files.`,
	Example: `  # Auto-detect shell and install
  waveorc completion install

  # Install for a specific shell
  waveorc completion install bash
  waveorc completion install zsh
  waveorc completion install fish
  waveorc completion install powershell

  # Show manual installation instructions
  waveorc completion install --manual
  waveorc completion install bash --manual`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE:      runCompletionInstall,
}

// Shell-specific generation commands (matching Cobra's default behavior)
var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generate the autocompletion script for bash",
	Long: `Generate the autocompletion script for the bash shell.

To load completions in your current shell session:

	source <(waveorc completion bash)

To load completions for every new session, execute once:

#### Linux:

	waveorc completion bash > /etc/bash_completion.d/waveorc

#### macOS:

	waveorc completion bash > $(brew --prefix)/etc/bash_completion.d/waveorc

You will need to start a new shell for this setup to take effect.
`,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenBashCompletionV2(cmd.OutOrStdout(), true)
	},
}

var completionZshCmd = &cobra.Command{
	Use:   "zsh",
	Short: "Generate the autocompletion script for zsh",
	Long: `Generate the autocompletion script for the zsh shell.

If shell completion is not already enabled in your environment you will need
to enable it.  You can execute the following once:

	echo "autoload -U compinit; compinit" >> ~/.zshrc

To load completions in your current shell session:

	source <(waveorc completion zsh)

To load completions for every new session, execute once:

#### Linux:

	waveorc completion zsh > "${fpath[1]}/_waveorc"

#### macOS:

	waveorc completion zsh > $(brew --prefix)/share/zsh/site-functions/_waveorc

You will need to start a new shell for this setup to take effect.
`,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenZshCompletion(cmd.OutOrStdout())
	},
}

var completionFishCmd = &cobra.Command{
	Use:   "fish",
	Short: "Generate the autocompletion script for fish",
	Long: `Generate the autocompletion script for the fish shell.

To load completions in your current shell session:

	waveorc completion fish | source

To load completions for every new session, execute once:

	waveorc completion fish > ~/.config/fish/completions/waveorc.fish

You will need to start a new shell for this setup to take effect.
`,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
	},
}

var completionPowershellCmd = &cobra.Command{
	Use:   "powershell",
	Short: "Generate the autocompletion script for powershell",
	Long: `Generate the autocompletion script for powershell.

To load completions in your current shell session:

	waveorc completion powershell | Out-String | Invoke-Expression

To load completions for every new session, add the output of the above command
to your powershell profile.
`,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

var manualFlag bool

func init() {
	// Disable Cobra's default completion command so we can add our own
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add our custom completion command with proper grouping
	completionCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(completionCmd)

	// Add shell-specific generation commands
	completionCmd.AddCommand(completionBashCmd)
	completionCmd.AddCommand(completionZshCmd)
	completionCmd.AddCommand(completionFishCmd)
	completionCmd.AddCommand(completionPowershellCmd)

	// Add the install subcommand
	completionCmd.AddCommand(completionInstallCmd)

	completionInstallCmd.Flags().BoolVar(&manualFlag, "manual", false, "Show manual installation instructions without modifying files")
}

func runCompletionInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Determine the shell
	var shell completion.Shell
	var err error

	if len(args) > 0 {
		// Explicit shell argument
		shellArg := strings.ToLower(args[0])
		if !completion.IsValidShell(shellArg) {
			supportedShells := make([]string, len(completion.SupportedShells()))
			for i, s := range completion.SupportedShells() {
				supportedShells[i] = string(s)
			}
			return fmt.Errorf("unknown shell: %s\nSupported shells: %s", shellArg, strings.Join(supportedShells, ", "))
		}
		shell = completion.Shell(shellArg)
	} else {
		// Auto-detect shell
		shell, err = completion.DetectShell()
		if err != nil {
			// If detection fails, show help with all manual instructions
			fmt.Fprintln(out, "Could not auto-detect shell:", err)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Please specify a shell explicitly:")
			fmt.Fprintln(out, "  waveorc completion install bash")
			fmt.Fprintln(out, "  waveorc completion install zsh")
			fmt.Fprintln(out, "  waveorc completion install fish")
			fmt.Fprintln(out, "  waveorc completion install powershell")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Or use --manual for installation instructions:")
			fmt.Fprintln(out, "  waveorc completion install --manual")
			return nil
		}
		fmt.Fprintf(out, "Detected shell: %s\n", shell)
	}

	// Handle --manual flag
	if manualFlag {
		fmt.Fprintln(out, completion.GetManualInstructions(shell))
		return nil
	}

	// Perform installation
	result, err := completion.Install(shell)
	if err != nil {
		// Check for permission error
		if completion.IsPermissionError(err) {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			fmt.Fprintln(out, "Automatic installation failed. Here are manual instructions:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, completion.GetManualInstructions(shell))
			return nil
		}
		return fmt.Errorf("installing shell completion: %w", err)
	}

	// Display result
	fmt.Fprintln(out, result.Message)

	return nil
}
