package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/topplegame/topple/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameWatchCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var (
		gameType   string
		difficulty string
		userName   string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if _, ok := model.ParseGameType(gameType); !ok {
				return fmt.Errorf("unknown game type %q", gameType)
			}
			if _, ok := model.ParseDifficulty(difficulty); !ok {
				return fmt.Errorf("unknown difficulty %q", difficulty)
			}

			w, err := DialWire(cfg.ServerURL)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			auth, err := w.Authenticate(userName, model.RolePlayer)
			if err != nil {
				return err
			}

			created, err := w.CreateGame(name, gameType, difficulty)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(GameCreateResult{
				GameID:     created.GameID,
				Name:       name,
				GameType:   gameType,
				Difficulty: difficulty,
				SessionID:  auth.SessionID,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&gameType, "type", string(model.GameTypeRace), "Game type: race, survival, puzzle")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(model.DifficultyMedium), "Difficulty: easy, medium, hard, expert")
	cmd.Flags().StringVar(&userName, "user", "topplectl", "User name for the session")

	return cmd
}

func newGameWatchCmd() *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Join a waiting game and stream its events",
		Long: `Joins the game's roster as a spectator session and prints every
broadcast the game emits until interrupted. Games only admit members
while they are waiting, so start watching before the game begins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := model.GameID(args[0])

			w, err := DialWire(cfg.ServerURL)
			if err != nil {
				return err
			}

			if _, err := w.Authenticate(userName, model.RoleSpectator); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.JoinGame(gameID); err != nil {
				_ = w.Close()
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("watching game %s", gameID))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Leave then close to unblock the read loop on interrupt
			go func() {
				<-ctx.Done()
				_ = w.Leave()
				_ = w.Close()
			}()

			for {
				env, err := w.Read()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				out.PrintEvent(env)
			}
		},
	}

	cmd.Flags().StringVar(&userName, "user", "topplectl", "User name for the session")

	return cmd
}
