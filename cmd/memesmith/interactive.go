package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-shellwords"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// interactiveCmd reads commands line by line and runs each as if it had
// been given on the command line.
type interactiveCmd struct {
	*root
	base  *root
	fs    *flag.FlagSet
	execs commandList
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ContinueOnError)
	i := &interactiveCmd{root: r.subcommand("interactive"), base: r, fs: fs}
	fs.Usage = usageFunc(i)
	fs.Var(&i.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return i, nil
}

// executeLine runs one line. It reports true when the session should end.
func (i *interactiveCmd) executeLine(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "interactive":
		return false, nil
	case "help":
		fmt.Fprint(i.stdout, (&UsageError{of: i.base}).Error())
		return false, nil
	}
	return false, i.base.Run(args)
}

func (i *interactiveCmd) Run() error {
	if len(i.execs) > 0 {
		for _, cmd := range i.execs {
			done, err := i.executeLine(cmd)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	// Commands that prompt, such as sign-in, share this reader so no input
	// is lost to buffering.
	in := bufio.NewReader(i.base.stdin)
	i.base.stdin = in
	fmt.Fprintln(i.stdout, "Enter commands (type 'exit' to quit)")
	for {
		fmt.Fprint(i.stdout, "> ")
		line, err := in.ReadString('\n')
		if line != "" {
			done, runErr := i.executeLine(line)
			if runErr != nil {
				var uerr *UsageError
				if !errors.As(runErr, &uerr) {
					runErr = fmt.Errorf("error: %w", runErr)
				}
				fmt.Fprintln(i.stderr, runErr)
			}
			if done {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
