package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gamerscove/cove/pkg/domain"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newGamesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "games",
		Short:   "Browse and manage the game catalog",
		Aliases: []string{"g"},
	}

	var query string
	list := &cobra.Command{
		Use:     "list",
		Short:   "List games, optionally filtered by a search query",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.renderGames(e.client.ListGames(cmd.Context(), query))
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "search by title, description or genre")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a game's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			g, err := e.client.GetGame(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.renderGame(g)
		},
	}

	var in domain.GameInput
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Add a game to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			g, err := e.client.CreateGame(cmd.Context(), in)
			if err != nil {
				return err
			}
			e.success("Created game #%d", g.ID)
			return e.renderGame(g)
		},
	}
	gameInputFlags(create, &in)

	var upd domain.GameInput
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			g, err := e.client.UpdateGame(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			e.success("Updated game #%d", g.ID)
			return e.renderGame(g)
		},
	}
	update.Flags().StringVar(&upd.Title, "title", "", "title")
	gameInputFlags(update, &upd)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.client.DeleteGame(cmd.Context(), id); err != nil {
				return err
			}
			e.success("Deleted game #%d", id)
			return nil
		},
	}

	cmd.AddCommand(list, show, create, update, del)
	return cmd
}

func gameInputFlags(cmd *cobra.Command, in *domain.GameInput) {
	f := cmd.Flags()
	f.StringVarP(&in.Description, "description", "d", "", "description")
	f.StringVar(&in.ReleaseDate, "release-date", "", "release date (YYYY-MM-DD)")
	f.StringVar(&in.Developer, "developer", "", "developer")
	f.StringVar(&in.Publisher, "publisher", "", "publisher")
	f.StringVar(&in.CoverImageURL, "cover", "", "cover image URL")
	f.StringSliceVar(&in.Genres, "genre", nil, "genre (repeatable)")
	f.StringSliceVar(&in.Platforms, "platform", nil, "platform (repeatable)")
}
