package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/history"
)

var favoriteCmd = &cobra.Command{
	Use:     "favorite [workflow-id]",
	Aliases: []string{"fav"},
	Short:   "Toggle or list favorite workflows",
	Long: `Toggle a workflow's favorite flag, or list favorites when called
without an id. Favorites show a star in list output and sort first in the
interactive menu.

Examples:
  n8nctl favorite 42     # Toggle
  n8nctl favorite        # List`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFavorite,
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(cmd *cobra.Command, args []string) error {
	store, err := history.Open()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		ids, err := store.Favorites()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No favorites yet.")
			return nil
		}
		for _, id := range ids {
			fmt.Printf("★ %s\n", id)
		}
		return nil
	}

	fav, err := store.ToggleFavorite(args[0])
	if err != nil {
		return err
	}
	if fav {
		success("workflow %s added to favorites", args[0])
	} else {
		success("workflow %s removed from favorites", args[0])
	}
	return nil
}
