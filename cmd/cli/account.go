package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/services"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect Bling accounts",
		Long: `Connect a Bling account without the web UI: open the URL printed by
'auth url', approve the app, then pass the code from the redirect to
'auth exchange'.`,
	}

	var rawAccount, code string
	account := func() (models.AccountID, error) {
		return models.ParseAccountID(rawAccount)
	}

	urlCmd := &cobra.Command{
		Use:   "url",
		Short: "Print the Bling consent URL for an account",
		RunE: withApp(func(ctx context.Context, a *app) error {
			acc, err := account()
			if err != nil {
				return err
			}
			state := services.NewState()
			authURL, err := a.tokens.AuthCodeURL(acc, state)
			if err != nil {
				return err
			}
			fmt.Println(authURL)
			return nil
		}),
	}

	exchangeCmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for tokens",
		RunE: withApp(func(ctx context.Context, a *app) error {
			acc, err := account()
			if err != nil {
				return err
			}
			if code == "" {
				return fmt.Errorf("--code is required")
			}
			if err := a.tokens.Exchange(ctx, acc, code); err != nil {
				return err
			}
			log.Info().Str("account", acc.String()).Msg("Account connected successfully")
			return nil
		}),
	}
	exchangeCmd.Flags().StringVar(&code, "code", "", "Authorization code from the callback URL")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which Bling accounts are connected",
		RunE: withApp(func(ctx context.Context, a *app) error {
			a.printStatus()
			return nil
		}),
	}

	for _, c := range []*cobra.Command{urlCmd, exchangeCmd} {
		c.Flags().StringVarP(&rawAccount, "account", "a", "1", "Bling account (1 or 2)")
	}
	authCmd.AddCommand(urlCmd, exchangeCmd, statusCmd)
	return authCmd
}
