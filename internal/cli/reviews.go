package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gamerscove/cove/pkg/client"
	"github.com/gamerscove/cove/pkg/domain"
)

func newReviewsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Short:   "Read and write game reviews",
		Aliases: []string{"r"},
	}

	var (
		page, limit int
		userID      int64
	)
	list := &cobra.Command{
		Use:     "list [game-id]",
		Short:   "List a game's reviews, or a user's with --user",
		Aliases: []string{"ls"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var viewer string
			if id, err := e.currentIdentity(); err == nil {
				viewer = id.ID
			}
			if userID > 0 {
				reviews, err := e.client.ListReviewsByUser(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return e.renderReviews(reviews, viewer)
			}
			if len(args) == 0 {
				return errors.New("a game id or --user is required")
			}
			gameID, err := parseID(args[0])
			if err != nil {
				return err
			}
			reviews, err := e.client.ListReviewsByGame(cmd.Context(), gameID, client.ListOptions{Page: page, Limit: limit})
			if err != nil {
				return err
			}
			return e.renderReviews(reviews, viewer)
		},
	}
	list.Flags().IntVar(&page, "page", 0, "page number (default 1)")
	list.Flags().IntVar(&limit, "limit", 0, "page size (default 10)")
	list.Flags().Int64Var(&userID, "user", 0, "list the reviews written by this user id")

	var (
		rating  int
		comment string
		private bool
	)
	create := &cobra.Command{
		Use:   "create <game-id>",
		Short: "Review a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if private {
				e.info("Reviews are always published publicly.")
			}
			in := domain.ReviewInput{Rating: rating, Comment: comment, IsPublic: !private}
			if err := in.Validate(); err != nil {
				return err
			}
			if err := e.requireUsername(); err != nil {
				return err
			}
			r, err := e.client.CreateReview(cmd.Context(), gameID, in)
			if err != nil {
				return err
			}
			e.success("Review submitted successfully!")
			return e.renderReview(r)
		},
	}
	create.Flags().IntVar(&rating, "rating", domain.MaxRating, "star rating from 1 to 5")
	create.Flags().StringVarP(&comment, "comment", "m", "", "review text")
	create.Flags().BoolVar(&private, "private", false, "ask for a private review")

	show := &cobra.Command{
		Use:   "show <review-id>",
		Short: "Show a single review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := e.client.GetReview(cmd.Context(), id)
			if err != nil {
				return err
			}
			return e.renderReview(r)
		},
	}

	var (
		newRating  int
		newComment string
	)
	update := &cobra.Command{
		Use:   "update <review-id>",
		Short: "Edit one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var upd client.ReviewUpdate
			if cmd.Flags().Changed("rating") {
				upd.Rating = &newRating
			}
			if cmd.Flags().Changed("comment") {
				upd.Comment = &newComment
			}
			if upd.Rating == nil && upd.Comment == nil {
				return errors.New("nothing to update: pass --rating or --comment")
			}
			r, err := e.client.UpdateReview(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			e.success("Updated review #%d", r.ID)
			return e.renderReview(r)
		},
	}
	update.Flags().IntVar(&newRating, "rating", 0, "new star rating from 1 to 5")
	update.Flags().StringVarP(&newComment, "comment", "m", "", "new review text")

	del := &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := e.client.DeleteReview(cmd.Context(), id); err != nil {
				return err
			}
			e.success("Deleted review #%d", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, show, update, del)
	return cmd
}
