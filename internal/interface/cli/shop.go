package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
)

func newShopCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "List cosmetics for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			say(cmd, presenter.Shop(app.Queries.Shop.Handle(cmd.Context(), sc.Username)))
			return nil
		},
	}
}

func newBuyCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <category> <item>",
		Short: "Buy a theme, wallpaper or bgm",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			category, err := user.ParseCategory(args[0])
			if err != nil {
				return err
			}
			res, err := app.Commands.Buy.Handle(cmd.Context(), command.BuyCosmeticCommand{
				Username: sc.Username,
				Category: category,
				Item:     args[1],
			})
			if err != nil {
				return err
			}
			say(cmd, presenter.Good.Render(fmt.Sprintf("%s Bought %s %s for %d", presenter.IconShop, res.Item.Category, res.Item.Name, res.Item.Price)),
				presenter.Balance(res.Balance))
			return nil
		},
	}
}

func newGachaCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "gacha",
		Short: "Draw a random title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			res, err := app.Commands.Gacha.Handle(cmd.Context(), command.DrawGachaCommand{Username: sc.Username})
			if err != nil {
				return err
			}
			line := presenter.Gold.Render(fmt.Sprintf("%s You drew 〈%s〉", presenter.IconDice, res.Title))
			if res.Duplicate {
				line += " " + presenter.Muted.Render("(already owned)")
			}
			say(cmd, line, presenter.Balance(res.Balance))
			return nil
		},
	}
}

func newEquipCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "equip <category> <item>",
		Short: "Equip an unlocked item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			category, err := user.ParseCategory(args[0])
			if err != nil {
				return err
			}
			if err := app.Commands.Equip.Handle(cmd.Context(), command.EquipCommand{
				Username: sc.Username,
				Category: category,
				Item:     args[1],
			}); err != nil {
				return err
			}
			say(cmd, presenter.Good.Render(fmt.Sprintf("%s %s set to %s", presenter.IconDone, category, args[1])))
			return nil
		},
	}
}

func newStatsCmd(r *runner) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Study time by subject and the recent daily trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			say(cmd, presenter.Stats(app.Queries.Stats.Handle(cmd.Context(), sc.Username, days)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Length of the trend in days")
	return cmd
}
