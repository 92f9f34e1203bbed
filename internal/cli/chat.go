package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"curator/internal/chat"
	"curator/internal/logging"
	"curator/internal/tui"
)

var (
	chatLive    bool
	chatDelay   time.Duration
	chatLogFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat",
	Long: `Opens an interactive chat. In demo mode answers are canned examples
delivered after a short delay; with --live each question goes through the
embedding and backend query path.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatLive, "live", false, "answer through the RAG backend instead of canned examples")
	chatCmd.Flags().DurationVar(&chatDelay, "delay", 0, "artificial reply delay, 0 for none (default from config)")
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "write logs to this file while the chat is open")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// the terminal belongs to the TUI; logs go to a file or nowhere
	var out io.Writer = io.Discard
	if chatLogFile != "" {
		f, err := tea.LogToFile(chatLogFile, "curator")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger = logging.Setup(cfg.LogLevel, out)

	delaySet := cmd.Flags().Changed("delay")
	session, mode, closeFn, err := newChatSession(delaySet)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	p := tea.NewProgram(tui.New(ctx, session, mode), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// newChatSession builds the session for the configured mode. delaySet
// reports whether --delay was given explicitly; it then wins, even at zero.
func newChatSession(delaySet bool) (*chat.Session, string, func() error, error) {
	mode := cfg.Chat.Mode
	if chatLive {
		mode = "live"
	}
	var delay time.Duration
	if cfg.Chat.ResponseDelayMs != nil {
		delay = time.Duration(*cfg.Chat.ResponseDelayMs) * time.Millisecond
	}

	closeFn := func() error { return nil }
	var responder chat.Responder
	switch mode {
	case "demo", "":
		mode = "demo"
		responder = chat.NewDemoResponder(nil)
	case "live":
		svc, pipe, err := newQueryService()
		if err != nil {
			return nil, "", nil, err
		}
		responder = chat.NewLiveResponder(svc)
		closeFn = pipe.Close
		// the network round trip replaces the artificial pause
		delay = 0
	default:
		return nil, "", nil, fmt.Errorf("unknown chat mode: %s", mode)
	}
	if delaySet {
		delay = chatDelay
	}
	return chat.NewSession(responder, chat.WithDelay(delay), chat.WithLogger(logger)), mode, closeFn, nil
}
