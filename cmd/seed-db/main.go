// Command seed-db loads item and account fixtures into the database.
//
// Fixture files are JSON arrays, optionally gzip-compressed (detected by the
// .gz suffix). Items and accounts are seeded concurrently; items are
// upserted, accounts that already exist are skipped.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-store/internal/domain/account"
	"github.com/xenking/kart-store/internal/domain/item"
	"github.com/xenking/kart-store/internal/storage/postgres"
)

func main() {
	var (
		databaseURL  string
		itemsFile    string
		accountsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file (.gz supported)")
	flag.StringVar(&accountsFile, "accounts-file", "db/seed/accounts.json", "path to accounts JSON file (.gz supported)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, accountsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile, accountsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	st := postgres.NewStore(pool)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedItems(ctx, st.Items(), itemsFile), "seed items")
	})
	g.Go(func() error {
		return errors.Wrap(seedAccounts(ctx, st.Accounts(), accountsFile), "seed accounts")
	})
	return g.Wait()
}

// openSeedFile opens a fixture file, transparently decompressing .gz files.
// The returned closer releases both the file and any gzip reader.
func openSeedFile(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, func() { _ = f.Close() }, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return gz, func() {
		_ = gz.Close()
		_ = f.Close()
	}, nil
}

func seedItems(ctx context.Context, items item.Repository, path string) error {
	slog.Info("reading items file", slog.String("path", path))

	r, closeFile, err := openSeedFile(path)
	if err != nil {
		return err
	}
	defer closeFile()

	d := jx.Decode(r, 4096)
	count := 0
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		if err := items.Save(ctx, it); err != nil {
			return errors.Wrapf(err, "upsert item %s", it.ID)
		}
		count++
		slog.Info("upserted item", slog.String("id", it.ID), slog.String("name", it.Name))
		return nil
	}); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("items seeded", slog.Int("count", count))
	return nil
}

func decodeItem(d *jx.Decoder) (*item.Item, error) {
	it := &item.Item{}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "item_id":
			v, err := d.Str()
			it.ID = v
			return err
		case "item_name":
			v, err := d.Str()
			it.Name = v
			return err
		case "price":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			it.Price, err = decimal.NewFromString(raw.String())
			return err
		case "items_in_stock":
			v, err := d.Int()
			it.InStock = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	return it, nil
}

func seedAccounts(ctx context.Context, accounts account.Repository, path string) error {
	slog.Info("reading accounts file", slog.String("path", path))

	r, closeFile, err := openSeedFile(path)
	if err != nil {
		return err
	}
	defer closeFile()

	d := jx.Decode(r, 4096)
	count := 0
	if err := d.Arr(func(d *jx.Decoder) error {
		acc, password, err := decodeAccount(d)
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return errors.Wrapf(err, "hash password for %s", acc.Account)
		}
		acc.PasswordHash = string(hash)

		if err := accounts.Create(ctx, acc); err != nil {
			if errors.Is(err, account.ErrDuplicateAccount) {
				slog.Info("account exists, skipping", slog.String("account", acc.Account))
				return nil
			}
			return errors.Wrapf(err, "create account %s", acc.Account)
		}
		count++
		slog.Info("created account", slog.String("account", acc.Account))
		return nil
	}); err != nil {
		return errors.Wrap(err, "parse accounts JSON")
	}

	slog.Info("accounts seeded", slog.Int("count", count))
	return nil
}

func decodeAccount(d *jx.Decoder) (*account.Account, string, error) {
	acc := &account.Account{
		UserID:    uuid.New().String(),
		Cart:      []account.CartLine{},
		CreatedAt: time.Now().UTC(),
	}
	password := ""
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "account":
			v, err := d.Str()
			acc.Account = v
			return err
		case "user_name":
			v, err := d.Str()
			acc.UserName = v
			return err
		case "password":
			v, err := d.Str()
			password = v
			return err
		case "credit":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			acc.Credit, err = decimal.NewFromString(raw.String())
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, "", err
	}
	return acc, password, nil
}
