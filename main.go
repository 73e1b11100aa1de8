package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Brawl345/epicture/config"
	"github.com/Brawl345/epicture/gallery"
	"github.com/Brawl345/epicture/logger"
	"github.com/Brawl345/epicture/model"
	"github.com/Brawl345/epicture/model/sql"
	"github.com/Brawl345/epicture/oauth"
	"github.com/Brawl345/epicture/session"
	"github.com/Brawl345/epicture/utils"
	"github.com/Brawl345/epicture/utils/httpUtils"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
)

var log = logger.New("main")

type app struct {
	cfg     config.Config
	session *session.Session
	close   func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, cleanup := rootCmd()
	err := cmd.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() (*cobra.Command, func()) {
	var (
		a     app
		debug bool
	)

	cmd := &cobra.Command{
		Use:           "epicture",
		Short:         "Browse and search your Imgur images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			var err error
			a, err = newApp(debug)
			return err
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "login [redirect-url...]",
			Short: "Sign in with Imgur",
			Long: `Prints the Imgur authorization URL. Paste every URL your browser
visits afterwards (or pass them as arguments) until the access token
appears in one of them.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.login(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether you are signed in",
			RunE: func(cmd *cobra.Command, args []string) error {
				if a.session.Authenticated(cmd.Context()) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "photos",
			Short: "List the images of your account",
			RunE: func(cmd *cobra.Command, args []string) error {
				images, err := a.session.AccountImages(cmd.Context())
				return a.printImages(cmd.OutOrStdout(), images, err)
			},
		},
		&cobra.Command{
			Use:   "search <text...>",
			Short: "Search PNG images in the Imgur gallery",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				images, err := a.session.Search(cmd.Context(), strings.Join(args, " "))
				return a.printImages(cmd.OutOrStdout(), images, err)
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out and forget the access token",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.session.SignOut(cmd.Context()); err != nil {
					return reportError(cmd.ErrOrStderr(), err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			RunE: func(cmd *cobra.Command, args []string) error {
				info, err := utils.ReadVersionInfo()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "epicture-%s (%s, %s/%s), %v\n",
					info.Revision, info.GoVersion, info.GoOS, info.GoArch, info.LastCommit)
				return nil
			},
		},
	)

	cleanup := func() {
		if a.close == nil {
			return
		}
		if err := a.close(); err != nil {
			log.Err(err).Msg("Failed to close credential store")
		}
		a.close = nil
	}

	return cmd, cleanup
}

func newApp(debug bool) (app, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return app{}, err
	}
	logger.SetDebug(debug || cfg.Debug)

	db, err := sql.New(sql.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		IgnoreMigration: cfg.IgnoreMigration,
	})
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.DBDriver).Msg("Could not open credential store")
		return app{}, err
	}
	log.Debug().Str("driver", cfg.DBDriver).Msg("Credential store opened")

	store := sql.NewCredentialService(db)
	client := gallery.New(store,
		gallery.WithBaseURL(cfg.APIURL),
		gallery.WithHTTPClient(httpUtils.NewHTTPClient(cfg.HTTPTimeout)),
	)

	return app{
		cfg:     cfg,
		session: session.New(store, client),
		close:   db.Close,
	}, nil
}

func (a *app) login(ctx context.Context, in io.Reader, out io.Writer, urls []string) error {
	if a.session.Authenticated(ctx) {
		_, _ = fmt.Fprintln(out, "Already signed in. Run \"epicture logout\" first to switch accounts.")
		return nil
	}

	signInURL, err := a.session.BeginSignIn(a.cfg.AuthorizeURL, a.cfg.ClientID)
	if err != nil {
		return reportError(out, err)
	}

	for _, u := range urls {
		if ok, err := a.handleRedirect(ctx, out, u); ok || err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(out, "Open this URL in your browser and sign in:\n\n  %s\n\nThen paste the address you were redirected to:\n", signInURL)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ok, err := a.handleRedirect(ctx, out, strings.TrimSpace(scanner.Text())); ok || err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "No access token in that URL yet, paste the next one:")
	}
	if err := scanner.Err(); err != nil {
		return reportError(out, err)
	}

	_, _ = fmt.Fprintln(out, "Sign-in aborted.")
	return errors.New("sign-in aborted")
}

func (a *app) handleRedirect(ctx context.Context, out io.Writer, rawURL string) (bool, error) {
	grant, ok, err := a.session.HandleRedirect(ctx, rawURL)
	var authErr *oauth.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		_, _ = fmt.Fprintf(out, "❌ Imgur refused the sign-in: %s\n", authErr.Code)
		return false, err
	case err != nil:
		return false, reportError(out, err)
	case !ok:
		return false, nil
	}

	switch {
	case grant.AccountUsername != "" && grant.ExpiresIn > 0:
		_, _ = fmt.Fprintf(out, "✅ Signed in as %s, token valid for %s\n",
			grant.AccountUsername, utils.HumanizeDuration(utils.ToDuration(grant.ExpiresIn)))
	case grant.AccountUsername != "":
		_, _ = fmt.Fprintf(out, "✅ Signed in as %s\n", grant.AccountUsername)
	default:
		_, _ = fmt.Fprintln(out, "✅ Signed in")
	}
	return true, nil
}

func (a *app) printImages(out io.Writer, images []model.ImageItem, err error) error {
	if err != nil {
		if model.IsReauth(err) {
			_, _ = fmt.Fprintln(out, "❌ You are not signed in (anymore). Run \"epicture login\".")
			return err
		}
		return reportError(out, err)
	}

	if len(images) == 0 {
		_, _ = fmt.Fprintln(out, "No images found.")
		return nil
	}

	for _, image := range images {
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", image.ID, image.ContentType(), image.ImageLink())
	}
	return nil
}

func reportError(out io.Writer, err error) error {
	guid := xid.New().String()
	log.Err(err).
		Str("guid", guid).
		Send()

	var storageErr *model.StorageError
	if errors.As(err, &storageErr) {
		_, _ = fmt.Fprintf(out, "❌ Could not access the credential store.%s\n", utils.EmbedGUID(guid))
	} else {
		_, _ = fmt.Fprintf(out, "❌ An error occurred.%s\n", utils.EmbedGUID(guid))
	}
	return err
}
