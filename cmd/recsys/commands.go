package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Adam14b/recsys-project/client"
	"github.com/Adam14b/recsys-project/client/view"
	"github.com/Adam14b/recsys-project/internal/devbackend"
)

// withSession runs fn against a started, fully loaded session.
func withSession(cmd *cobra.Command, names []string, opts []view.SessionOption, fn func(*view.Session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	s, err := c.OpenSession(ctx, opts...)
	if err != nil {
		return err
	}
	defer c.CloseSession(s)

	s.Start(names...)
	if err := s.Wait(ctx); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	for _, n := range s.Notices() {
		log.Warn().Str("kind", string(n.Kind)).Str("collection", n.Collection).Int("movie_id", int(n.MovieID)).Msg(n.Message)
	}
	return nil
}

func newHomeCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the popular and new movie grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []view.SessionOption{view.WithHomeLimit(limit)}
			return withSession(cmd, view.HomeCollections, opts, func(s *view.Session) error {
				out := cmd.OutOrStdout()
				for _, g := range s.Home().Grids {
					printGrid(out, g)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", view.DefaultHomeLimit, "Movies per grid (0 shows all)")
	return cmd
}

func newRecommendationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Show personalised recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := []string{client.CollectionRecommended}
			return withSession(cmd, names, nil, func(s *view.Session) error {
				r := s.Recommendations()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Algorithm: %s (%s)\n", r.Algorithm.Name, r.Algorithm.Description)
				if r.Notice != "" {
					fmt.Fprintf(out, "Notice: %s\n", r.Notice)
				}
				printGrid(out, r.Grid)
				return nil
			})
		},
	}
}

func newMyRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-ratings",
		Short: "Show the movies you liked and disliked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, view.UnionCollections, nil, func(s *view.Session) error {
				r := s.MyRatings()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Liked (%d)\n", len(r.Liked))
				printMovies(out, r.Liked)
				fmt.Fprintf(out, "Disliked (%d)\n", len(r.Disliked))
				printMovies(out, r.Disliked)
				if len(r.Missing) > 0 {
					fmt.Fprintf(out, "Not in any loaded collection: %v\n", r.Missing)
				}
				return nil
			})
		},
	}
}

func newPreferenceCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <movie-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			id := client.MovieID(n)
			return withSession(cmd, nil, nil, func(s *view.Session) error {
				var t interface{ Wait(context.Context) error }
				switch action {
				case "like":
					t = s.Like(id)
				case "dislike":
					t = s.Dislike(id)
				default:
					t = s.Unlike(id)
				}
				if err := t.Wait(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", id, s.Preference(id))
				return nil
			})
		},
	}
}

func newCheckAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-auth",
		Short: "Report whether the given credentials sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ok, err := c.IsAuthenticated(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "authenticated: %t\n", ok)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var req client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if err := c.Register(ctx, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User registered: %s\n", req.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&req.Password, "new-password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("new-password")
	return cmd
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			p, err := c.Profile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Username: %s\n", p.Username)
			fmt.Fprintf(out, "Email: %s\n", p.Email)
			fmt.Fprintf(out, "Joined: %s\n", p.DateJoined)
			fmt.Fprintf(out, "Ratings: %d\n", p.LikesCount)
			return nil
		},
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change recommendation settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show recommendation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			s, err := c.GetSettings(ctx)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	})

	var algorithm string
	var contentWeight, collaborativeWeight float64
	set := &cobra.Command{
		Use:   "set",
		Short: "Change recommendation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.UpdateSettingsRequest
			if cmd.Flags().Changed("algorithm") {
				a := client.Algorithm(algorithm)
				req.Algorithm = &a
			}
			if cmd.Flags().Changed("content-weight") {
				req.ContentWeight = &contentWeight
			}
			if cmd.Flags().Changed("collaborative-weight") {
				req.CollaborativeWeight = &collaborativeWeight
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			c, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			if err := c.UpdateSettings(ctx, req); err != nil {
				return err
			}
			s, err := c.GetSettings(ctx)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}
	set.Flags().StringVar(&algorithm, "algorithm", "", "content, collaborative or hybrid")
	set.Flags().Float64Var(&contentWeight, "content-weight", 0.5, "Hybrid weight of content-based scores")
	set.Flags().Float64Var(&collaborativeWeight, "collaborative-weight", 0.5, "Hybrid weight of collaborative scores")
	cmd.AddCommand(set)
	return cmd
}

func newDevBackendCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Serve an in-memory recommendation service for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return devbackend.New().ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	return cmd
}

func printGrid(out io.Writer, g view.Grid) {
	fmt.Fprintf(out, "== %s (%s", g.Name, g.State)
	if g.Total > len(g.Items) {
		fmt.Fprintf(out, ", %d of %d", len(g.Items), g.Total)
	}
	fmt.Fprintln(out, ")")
	if g.Err != nil {
		fmt.Fprintf(out, "   unavailable: %v\n", g.Err)
		return
	}
	printMovies(out, g.Items)
}

func printMovies(out io.Writer, movies []client.AnnotatedMovie) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, m := range movies {
		mark := ""
		switch m.Preference {
		case client.Like:
			mark = "+"
		case client.Dislike:
			mark = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", mark, m.ID, m.Title, m.ReleaseDate)
	}
	_ = tw.Flush()
}

func printSettings(out io.Writer, s *client.Settings) {
	fmt.Fprintf(out, "Algorithm: %s\n", s.Algorithm)
	fmt.Fprintf(out, "Content weight: %.2f\n", s.ContentWeight)
	fmt.Fprintf(out, "Collaborative weight: %.2f\n", s.CollaborativeWeight)
}
