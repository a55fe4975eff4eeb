package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cybersafe-india/pagetrans"
	"github.com/spf13/cobra"
)

func newLanguagesCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages offered to visitors",
		Long: `List the languages offered to visitors. With --remote, list every
language the configured provider can translate into instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !remote {
				return printLanguageTable(a.stdout)
			}

			_, stack, err := a.buildStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			codes, ok := stack.Client.SupportedLanguages(commandContext(cmd))
			if !ok {
				return fmt.Errorf("provider language catalog unavailable")
			}
			for _, code := range codes {
				fmt.Fprintln(a.stdout, code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the provider for its full catalog")

	return cmd
}

func printLanguageTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tNATIVE\tDIR")
	for _, l := range pagetrans.SupportedLanguages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Code, l.Name, l.NativeName, pagetrans.GetDirection(l.Code))
	}
	return tw.Flush()
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text...]",
		Short: "Detect the language of text (arguments or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}
			if text == "" {
				return fmt.Errorf("no text to detect")
			}

			_, stack, err := a.buildStack()
			if err != nil {
				return err
			}
			defer stack.Close()

			detection, ok := stack.Client.DetectLanguage(commandContext(cmd), text)
			if !ok {
				return fmt.Errorf("language detection unavailable")
			}

			fmt.Fprintf(a.stdout, "%s\t%.2f\t%s\n", detection.Language, detection.Score, pagetrans.GetLanguageName(detection.Language))
			return nil
		},
	}
}
