// Command admin performs the operator tasks that have no web route:
// managing groups and deleting posts or users.
//
//	admin group create -title Cats -slug cats [-description "..."]
//	admin group delete cats
//	admin group list
//	admin post delete 42
//	admin user delete leo
//
// It reads the same configuration as the server (BLOGFEED_CONFIG, DB_PATH,
// MEDIA_DIR, ...), so both act on the same database and media directory.
// Cached feed pages are not touched; they expire with the cache window, or
// send the server SIGHUP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/sakif/blogfeed/internal/config"
	sqliteRepo "github.com/sakif/blogfeed/internal/repository/sqlite"
	"github.com/sakif/blogfeed/internal/service"
	"github.com/sakif/blogfeed/internal/storage"
)

const usage = `usage:
  admin group create -title TITLE -slug SLUG [-description TEXT]
  admin group delete SLUG
  admin group list
  admin post delete ID
  admin user delete USERNAME
`

var errUsage = errors.New("invalid arguments")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	media, err := storage.NewMedia(cfg.Media.Dir, cfg.Media.MaxUploadBytes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{
		admin: service.NewAdminService(db, db, media, logger),
		posts: service.NewPostService(db, db, db, media, logger),
		out:   os.Stdout,
	}

	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "admin:", err)
		db.Close()
		os.Exit(2)
	}
}

// app dispatches one command line to the services.
type app struct {
	admin *service.AdminService
	posts *service.PostService
	out   io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	object, verb, rest := args[0], args[1], args[2:]

	switch object + " " + verb {
	case "group create":
		return a.createGroup(ctx, rest)
	case "group delete":
		slug, err := oneArg(rest, "SLUG")
		if err != nil {
			return err
		}
		if err := a.admin.DeleteGroup(ctx, slug); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted group %s\n", slug)
		return nil
	case "group list":
		return a.listGroups(ctx)
	case "post delete":
		raw, err := oneArg(rest, "ID")
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: post id %q is not a number", errUsage, raw)
		}
		if err := a.posts.DeletePost(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted post %d\n", id)
		return nil
	case "user delete":
		username, err := oneArg(rest, "USERNAME")
		if err != nil {
			return err
		}
		if err := a.admin.DeleteUser(ctx, username); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted user %s\n", username)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, object+" "+verb)
}

func (a *app) createGroup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("group create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "group title")
	slug := fs.String("slug", "", "URL slug")
	description := fs.String("description", "", "group description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	group, err := a.admin.CreateGroup(ctx, *title, *slug, *description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created group %s (%s)\n", group.Slug, group.ID)
	return nil
}

func (a *app) listGroups(ctx context.Context) error {
	groups, err := a.admin.ListGroups(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tID")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Slug, g.Title, g.ID)
	}
	return tw.Flush()
}

func oneArg(args []string, name string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: expected exactly one %s", errUsage, name)
	}
	return args[0], nil
}
