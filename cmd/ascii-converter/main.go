// Package main provides the CLI entry point for ascii-converter, which turns
// still images, animated GIFs, and videos into character art in the
// terminal.
//
// Render parameters are collected by interactive prompts. Still images are
// written once; animations loop and videos play once at a paced frame rate
// until they end or a key is pressed.
//
// # Usage
//
//	ascii-converter [flags] [file]
//
// A file given on the command line becomes the default answer to the path
// prompt. The -v flag treats non-GIF files as video.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArbuzKaktus/ascii-converter/log"
	"github.com/ArbuzKaktus/ascii-converter/preset"
	"github.com/ArbuzKaktus/ascii-converter/profile"
	"github.com/ArbuzKaktus/ascii-converter/prompt"
	"github.com/ArbuzKaktus/ascii-converter/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)

	stop()

	switch {
	case errors.Is(err, prompt.ErrCanceled):
		fmt.Fprintln(os.Stderr, "Canceled.")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flag values for one invocation.
type options struct {
	log         *log.Config
	profile     *profile.Config
	presetPath  string
	output      string
	video       bool
	printSchema bool
}

func newRootCmd(stdin, stdout *os.File, stderr io.Writer) *cobra.Command {
	opts := &options{
		log:     log.NewConfig(),
		profile: profile.NewConfig(),
	}

	rootCmd := &cobra.Command{
		Use:   "ascii-converter [flags] [file]",
		Short: "Render images, GIFs, and videos as character art",
		Long: `ascii-converter renders a still image, an animated GIF, or a video as
colored or monochrome character art in the terminal. Animations loop and
videos play once at the source or a chosen frame rate; press any key to stop.

Videos are decoded with ffmpeg and ffprobe, which must be on PATH.`,
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.printSchema {
				return printSchema(stdout)
			}

			a := &app{
				opts:   opts,
				stdin:  stdin,
				stdout: stdout,
				stderr: stderr,
			}

			return a.run(cmd.Context(), args)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.video, "video", "v", false, "treat non-GIF input as a video stream")
	flags.StringVar(&opts.presetPath, "preset", "", "YAML file with default prompt answers")
	flags.StringVarP(&opts.output, "output", "o", "", "write still-image art to this file instead of stdout")
	flags.BoolVar(&opts.printSchema, "print-preset-schema", false, "print the preset JSON Schema and exit")

	opts.log.RegisterFlags(rootCmd.PersistentFlags())
	opts.profile.RegisterFlags(rootCmd.PersistentFlags())

	err := opts.log.RegisterCompletions(rootCmd)
	if err == nil {
		err = opts.profile.RegisterCompletions(rootCmd)
	}

	if err != nil {
		fmt.Fprintf(stderr, "register completions: %v\n", err)
	}

	err = rootCmd.RegisterFlagCompletionFunc("preset", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	if err != nil {
		fmt.Fprintf(stderr, "register completions: %v\n", err)
	}

	return rootCmd
}

func printSchema(w io.Writer) error {
	schema, err := preset.Schema()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}

	out = append(out, '\n')

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}

	return nil
}
