package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"transcribot/internal/validation"
)

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "Check a transcription body for formatting issues",
	ArgsUsage: "[file]",
	Description: "Reads a transcription from the given file, or from stdin when no " +
		"file is given, and prints every formatting issue found. Exits non-zero " +
		"when the transcription is not well-formed.",
	Action: func(_ context.Context, c *cli.Command) error {
		body, err := readBody(c.Args().First())
		if err != nil {
			return err
		}

		issues := validation.CheckFormatting(string(body))
		if len(issues) == 0 {
			fmt.Println("no formatting issues found")
			return nil
		}

		for _, issue := range issues {
			fmt.Println(issue)
		}
		return cli.Exit("", 1)
	},
}

func readBody(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
