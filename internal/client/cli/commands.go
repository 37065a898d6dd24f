package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/viewkeeper/internal/artifacts"
	"github.com/dmitrijs2005/viewkeeper/internal/client/models"
	"github.com/dmitrijs2005/viewkeeper/internal/filex"
)

var errUnknownPost = errors.New("unknown post")

// List refreshes the directory and prints every post with its count. When
// the directory is unreachable the last listing is shown instead.
func (a *App) List(ctx context.Context) error {
	views, err := a.agg.Refresh(ctx)
	if err != nil {
		a.logger.Warn(ctx, "post list unavailable", "err", err)
		views = a.agg.Session().Snapshot()
		if len(views) == 0 {
			fmt.Fprintln(a.out, "No posts available.")
			return err
		}
	}

	a.mu.Lock()
	a.listing = views
	a.mu.Unlock()

	if len(views) == 0 {
		fmt.Fprintln(a.out, "No posts.")
		return nil
	}
	for i, v := range views {
		fmt.Fprintln(a.out, formatRow(i+1, v))
	}
	return err
}

func formatRow(n int, v models.PostView) string {
	mark := " "
	if v.Revealed {
		mark = "*"
	}
	date := ""
	if !v.Post.PublishedAt.IsZero() {
		date = v.Post.PublishedAt.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s%3d. %-40s %10s %6d views", mark, n, v.Post.Title, date, v.Views)
}

// find resolves a listing position or a post id.
func (a *App) find(arg string) (models.Post, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(a.listing) {
		return a.listing[n-1].Post, nil
	}
	for _, v := range a.listing {
		if v.Post.ID == arg {
			return v.Post, nil
		}
	}
	return models.Post{}, fmt.Errorf("%w: %s", errUnknownPost, arg)
}

// Open reveals a post and prints its count.
func (a *App) Open(ctx context.Context, arg string) error {
	p, err := a.find(arg)
	if err != nil {
		fmt.Fprintln(a.out, "No such post:", arg)
		return err
	}

	n, _ := a.agg.Reveal(ctx, p.ID)
	fmt.Fprintf(a.out, "%s\n%d views\n", p.Title, n)
	return nil
}

// Collapse hides a post.
func (a *App) Collapse(arg string) error {
	p, err := a.find(arg)
	if err != nil {
		fmt.Fprintln(a.out, "No such post:", arg)
		return err
	}
	if !a.agg.Collapse(p.ID) {
		fmt.Fprintln(a.out, "Post is not open:", p.Title)
		return nil
	}
	fmt.Fprintln(a.out, "Closed:", p.Title)
	return nil
}

// Pending prints the ledger followed by the local counters behind it.
func (a *App) Pending(ctx context.Context) error {
	if entries := a.ledger.Entries(ctx); len(entries) == 0 {
		fmt.Fprintln(a.out, "Nothing pending.")
	} else {
		fmt.Fprintln(a.out, "Pending submission:")
		a.printCounts(entries)
	}

	if local := a.cache.All(ctx); len(local) > 0 {
		fmt.Fprintln(a.out, "Local counts:")
		a.printCounts(local)
	}
	return nil
}

func (a *App) printCounts(counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "  %s: %d\n", k, counts[k])
	}
}

// Export writes the submission artifact to path, or to the configured
// store when path is empty. S3 exports print a presigned download link.
func (a *App) Export(ctx context.Context, path string) error {
	art, err := a.ledger.ExportSubmission(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Export failed:", err)
		return err
	}
	if art == nil {
		fmt.Fprintln(a.out, "Nothing to export.")
		return nil
	}

	if path != "" {
		if err := filex.WriteFileAtomic(path, art.Text, 0o600); err != nil {
			fmt.Fprintln(a.out, "Export failed:", err)
			return err
		}
		fmt.Fprintln(a.out, "Exported to", path)
		return nil
	}

	location, err := a.store.Put(ctx, artifacts.Name(art.Submission.CreatedAt, art.Submission.ID), art.Text)
	if err != nil {
		fmt.Fprintln(a.out, "Export failed:", err)
		return err
	}
	fmt.Fprintln(a.out, "Exported to", location)

	if s3, ok := a.store.(*artifacts.S3Store); ok {
		url, err := s3.PresignGet(ctx, location, presignTTL)
		if err != nil {
			a.logger.Warn(ctx, "presign failed", "location", location, "err", err)
			return nil
		}
		fmt.Fprintln(a.out, "Download:", url)
	}
	return nil
}
