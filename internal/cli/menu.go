package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/cafesync/internal/cafe"
	"github.com/roach88/cafesync/internal/domain"
	"github.com/roach88/cafesync/internal/format"
)

// imageUploader is implemented by backends with object storage.
type imageUploader interface {
	UploadImage(ctx context.Context, folder, name string, payload []byte, contentType string) (string, error)
}

var errNoImageStorage = errors.New("backend has no image storage (requires the supabase backend)")

// NewMenuCommand creates the menu command group.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Manage menu items",
	}
	cmd.AddCommand(newMenuListCommand(rootOpts))
	cmd.AddCommand(newMenuAddCommand(rootOpts))
	cmd.AddCommand(newMenuUpdateCommand(rootOpts))
	cmd.AddCommand(newMenuDeleteCommand(rootOpts))
	cmd.AddCommand(newMenuImageCommand(rootOpts))
	return cmd
}

func newMenuListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		filter    domain.MenuFilter
		available bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List menu items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("available") {
				filter.IsAvailable = &available
			}
			return withService(cmd, rootOpts, "failed to list menu", func(a *app, svc *cafe.Service) error {
				items, err := svc.Menu(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if items == nil {
					items = []domain.MenuItem{}
				}
				return a.out.Result(items, func(w io.Writer) error {
					return writeMenu(w, items)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&filter.CategoryID, "category", 0, "only items in this category id")
	cmd.Flags().BoolVar(&available, "available", true, "only available (true) or unavailable (false) items")
	cmd.Flags().BoolVar(&filter.Featured, "featured", false, "only featured items")
	return cmd
}

func writeMenu(w io.Writer, items []domain.MenuItem) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No menu items.")
		return nil
	}
	rows := make([][]string, 0, len(items))
	for _, m := range items {
		flags := ""
		if !m.IsAvailable {
			flags = "habis"
		}
		if m.IsFeatured {
			flags += "★"
		}
		rows = append(rows, []string{
			fmt.Sprint(m.ID),
			m.Name,
			m.CategoryName,
			format.Currency(m.Price),
			flags,
		})
	}
	return writeTable(w, []string{"ID", "NAME", "CATEGORY", "PRICE", ""}, rows)
}

func newMenuAddCommand(rootOpts *RootOptions) *cobra.Command {
	item := domain.MenuItem{IsAvailable: true}
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a menu item",
		Example: `  cafesync menu add --name "Es Teh" --price 8000 --category 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, rootOpts, "failed to add menu item", func(a *app, svc *cafe.Service) error {
				created, err := svc.AddMenuItem(cmd.Context(), item)
				if err != nil {
					return err
				}
				return a.out.Result(created, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ added %s (id %d) at %s\n", created.Name, created.ID, format.Currency(created.Price))
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&item.Name, "name", "", "item name")
	cmd.Flags().StringVar(&item.Description, "description", "", "item description")
	cmd.Flags().Int64Var(&item.Price, "price", 0, "price in rupiah")
	cmd.Flags().Int64Var(&item.CategoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&item.ImageURL, "image-url", "", "image URL")
	cmd.Flags().BoolVar(&item.IsAvailable, "available", true, "item can be ordered")
	cmd.Flags().BoolVar(&item.IsFeatured, "featured", false, "show the item as featured")
	return cmd
}

func newMenuUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name, description, imageURL string
		price, category             int64
		available, featured         bool
	)
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of a menu item",
		Example: `  cafesync menu update 12 --price 9000 --available=false`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u domain.MenuItemUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("description") {
				u.Description = &description
			}
			if flags.Changed("image-url") {
				u.ImageURL = &imageURL
			}
			if flags.Changed("price") {
				u.Price = &price
			}
			if flags.Changed("category") {
				u.CategoryID = &category
			}
			if flags.Changed("available") {
				u.IsAvailable = &available
			}
			if flags.Changed("featured") {
				u.IsFeatured = &featured
			}
			if len(u.Fields()) == 0 {
				return NewExitError(ExitCommandError, "nothing to update: pass at least one field flag")
			}
			return withService(cmd, rootOpts, "failed to update menu item", func(a *app, svc *cafe.Service) error {
				updated, err := svc.UpdateMenuItem(cmd.Context(), id, u)
				if err != nil {
					return err
				}
				return a.out.Result(updated, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ updated %s (id %d)\n", updated.Name, updated.ID)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&description, "description", "", "item description")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "image URL")
	cmd.Flags().Int64Var(&price, "price", 0, "price in rupiah")
	cmd.Flags().Int64Var(&category, "category", 0, "category id")
	cmd.Flags().BoolVar(&available, "available", true, "item can be ordered")
	cmd.Flags().BoolVar(&featured, "featured", false, "show the item as featured")
	return cmd
}

func newMenuDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a menu item",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, rootOpts, "failed to delete menu item", func(a *app, svc *cafe.Service) error {
				if err := svc.DeleteMenuItem(cmd.Context(), id); err != nil {
					return err
				}
				return a.out.Result(map[string]int64{"deleted": id}, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ deleted menu item %d\n", id)
					return nil
				})
			})
		},
	}
}

func newMenuImageCommand(rootOpts *RootOptions) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "image <id> <file>",
		Short: "Upload an image and attach it to a menu item",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read image", err)
			}
			return withService(cmd, rootOpts, "failed to upload image", func(a *app, svc *cafe.Service) error {
				uploader, ok := svc.Backend().(imageUploader)
				if !ok {
					return WrapExitError(ExitCommandError, "image upload unavailable", errNoImageStorage)
				}
				url, err := uploader.UploadImage(cmd.Context(), folder, filepath.Base(args[1]), payload, "")
				if err != nil {
					return err
				}
				updated, err := svc.UpdateMenuItem(cmd.Context(), id, domain.MenuItemUpdate{ImageURL: &url})
				if err != nil {
					return err
				}
				return a.out.Result(updated, func(w io.Writer) error {
					fmt.Fprintf(w, "✓ %s image: %s\n", updated.Name, url)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "menu", "storage folder")
	return cmd
}
