package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/config"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/services"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// archivedLink is one entry of an export file.
type archivedLink struct {
	domain.Link
	Clicks []domain.Click `json:"clicks"`
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "shortlinks",
		Usage: "move links and their clicks between databases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "overrides DATABASE_URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write every link and its clicks to stdout as JSON",
				Action: func(c *cli.Context) error {
					return withStore(c, func(store repository.Store) error {
						return exportLinks(c.Context, store, c.App.Writer)
					})
				},
			},
			{
				Name:  "import",
				Usage: "load links from an export file, skipping codes already taken",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON file to import", Required: true},
				},
				Action: func(c *cli.Context) error {
					f, err := os.Open(c.String("file"))
					if err != nil {
						return fmt.Errorf("open import file: %w", err)
					}
					defer f.Close()

					return withStore(c, func(store repository.Store) error {
						n, err := importLinks(c.Context, store, f, slog.Default())
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "imported %d links\n", n)
						return nil
					})
				},
			},
		},
	}
}

func withStore(c *cli.Context, fn func(repository.Store) error) error {
	dbURL := c.String("database-url")
	if dbURL == "" {
		dbURL = config.Load().DatabaseURL
	}
	store, err := repository.Open(dbURL)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func exportLinks(ctx context.Context, archive ports.LinkArchive, w io.Writer) error {
	links, err := archive.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dump links: %w", err)
	}

	out := make([]archivedLink, 0, len(links))
	for _, l := range links {
		clicks, err := archive.ListClicks(ctx, l.Code)
		if err != nil {
			return fmt.Errorf("list clicks for %q: %w", l.Code, err)
		}
		out = append(out, archivedLink{Link: l, Clicks: clicks})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// importLinks returns how many links were created. Entries that break link
// invariants are logged and skipped. Clicks are only replayed for links this
// run created, so re-running an import is harmless.
func importLinks(ctx context.Context, store ports.LinkStore, r io.Reader, logger *slog.Logger) (int, error) {
	var links []archivedLink
	if err := json.NewDecoder(r).Decode(&links); err != nil {
		return 0, fmt.Errorf("decode import file: %w", err)
	}

	allocator := services.NewRandomAllocator()
	count := 0
	for _, l := range links {
		link := l.Link
		if err := validateImported(allocator, &link); err != nil {
			logger.Warn("skipping invalid link", "code", link.Code, "error", err)
			continue
		}

		outcome, err := store.TryCreate(ctx, &link)
		if err != nil {
			return count, fmt.Errorf("import %q: %w", link.Code, err)
		}
		if outcome == domain.Conflict {
			logger.Info("skipping existing code", "code", link.Code)
			continue
		}
		count++

		for _, click := range l.Clicks {
			if err := store.AppendClick(ctx, link.Code, &click); err != nil {
				return count, fmt.Errorf("replay click for %q: %w", link.Code, err)
			}
		}
	}
	return count, nil
}

// validateImported holds imported links to the rules Create enforces.
func validateImported(allocator ports.CodeAllocator, link *domain.Link) error {
	if !allocator.ValidateCustomFormat(link.Code) {
		return fmt.Errorf("%w: code %q has an invalid format", domain.ErrInvalidInput, link.Code)
	}
	return link.Validate()
}
