package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/majorcontext/hostprobe/internal/chat"
	"github.com/majorcontext/hostprobe/internal/prompt"
)

var chatCmd = &cobra.Command{
	Use:   "chat [host] [port]",
	Short: "Send typed lines to a host agent and print its replies",
	Long: `Open a raw line chat with a host agent. Every line you type is sent as
UTF-8 text followed by a newline; whatever the server sends is printed as it
arrives. Useful for checking that a server is reachable and listening.

Type exit or quit to disconnect.`,
	Args:        cobra.MaximumNArgs(2),
	Annotations: map[string]string{interactiveAnnotation: "true"},
	RunE:        runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client, err := dial(ctx, cfg, args)
	if err != nil {
		return err
	}
	defer client.Close()

	in := prompt.New(prompt.Options{In: os.Stdin, Out: os.Stdout})
	defer in.Close()

	if err := chat.Run(ctx, client, in, cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
