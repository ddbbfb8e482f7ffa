package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCatifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catify <text...>",
		Short: "Rewrite text in the cat persona's voice and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			out, err := a.persona.Catify(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newImageCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "image <prompt...>",
		Short: "Generate an image and print the reply the bot would send",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			url, err := a.persona.GenerateImage(cmd.Context(), strings.Join(args, " "), a.cfg.AI.OpenAI.ImageSize)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), a.cfg.Messages.ImageReply+"\n", url)
			return err
		},
	}
}
