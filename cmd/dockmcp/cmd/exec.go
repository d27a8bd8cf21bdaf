package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mensylisir/dockmcp/pkg/runner"
)

type ExecOptions struct {
	WorkingDir  string
	Env         []string
	User        string
	Privileged  bool
	Interactive bool
}

var execOptions = &ExecOptions{}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execOptions.WorkingDir, "workdir", "w", "", "Absolute working directory inside the container")
	execCmd.Flags().StringArrayVarP(&execOptions.Env, "env", "e", nil, "Set environment variables (KEY=VALUE)")
	execCmd.Flags().StringVarP(&execOptions.User, "user", "u", "", "Username or UID (format: <name|uid>[:<group|gid>])")
	execCmd.Flags().BoolVar(&execOptions.Privileged, "privileged", false, "Give extended privileges to the command")
	execCmd.Flags().BoolVarP(&execOptions.Interactive, "interactive", "i", false, "Allocate a TTY and keep stdin open")
}

var execCmd = &cobra.Command{
	Use:   "exec CONTAINER -- COMMAND [ARG...]",
	Short: "Run a command in a running container",
	Long: `Run a command in a running container. Every argument after -- is passed to the
container as one literal argument. dockmcp exits with the command's exit code.`,
	Args: func(cmd *cobra.Command, args []string) error {
		dash := cmd.ArgsLenAtDash()
		if dash != 1 || len(args) < 2 {
			return fmt.Errorf("usage: %s", cmd.Use)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		res, err := r.Exec(cmd.Context(), runner.ExecInput{
			Container:   args[0],
			Command:     args[1:],
			WorkingDir:  execOptions.WorkingDir,
			Env:         execOptions.Env,
			User:        execOptions.User,
			Privileged:  execOptions.Privileged,
			Interactive: execOptions.Interactive,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
		if res.ExitCode != 0 {
			return &exitError{code: res.ExitCode}
		}
		return nil
	},
}
