package cube

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/sourcegraph/conc/pool"
)

// Warm fetches metadata for every (iri, locale) pair so a CachedSource is
// populated before the first request comes in.
func Warm(ctx context.Context, src MetadataSource, iris []string, locales []common.Locale, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	p := pool.New().WithMaxGoroutines(concurrency).WithErrors().WithContext(ctx)
	for _, iri := range iris {
		for _, loc := range locales {
			p.Go(func(ctx context.Context) error {
				if _, err := src.Metadata(ctx, iri, loc); err != nil {
					slog.Warn("error while prefetching metadata", "iri", iri, "locale", loc, "err", err)
					return fmt.Errorf("%s (%s): %w", iri, loc, err)
				}
				return nil
			})
		}
	}
	return p.Wait()
}
