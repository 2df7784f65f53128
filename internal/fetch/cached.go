package fetch

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds how long a fetched page is reused within one process.
const DefaultCacheTTL = time.Hour

// CachedFetcher wraps URL fetching with an in-memory cache.
// Failures are cached too so a broken link is tried once per run.
type CachedFetcher struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	group    singleflight.Group
	options  *Options
	cacheTTL time.Duration
	render   RenderFunc
	now      func() time.Time
}

type cacheEntry struct {
	result    *Result
	err       error
	fetchedAt time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
	// Render is used when plain HTTP yields too little text. Nil disables it.
	Render RenderFunc
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: DefaultCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	return &CachedFetcher{
		entries:  make(map[string]cacheEntry),
		options:  config.Options,
		cacheTTL: config.CacheTTL,
		render:   config.Render,
		now:      time.Now,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache if the entry is fresh.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if entry, ok := f.lookup(urlStr); ok {
		return &CachedResult{Result: entry.result, FromCache: true}, entry.err
	}

	v, err, _ := f.group.Do(urlStr, func() (any, error) {
		result, err := URL(ctx, urlStr, f.options)
		// Cancellation is not a property of the URL.
		if ctx.Err() == nil {
			f.store(urlStr, cacheEntry{result: result, err: err, fetchedAt: f.now()})
		}
		return result, err
	})
	result, _ := v.(*Result)
	return &CachedResult{Result: result}, err
}

// Page fetches a job posting page and fills Result.Text with its main text.
// When the text is too short and a renderer is configured, the page is rendered in a browser.
func (f *CachedFetcher) Page(ctx context.Context, urlStr string) (*CachedResult, error) {
	res, err := f.Fetch(ctx, urlStr)
	if err != nil {
		return res, err
	}

	platform := DetectPlatform(urlStr)
	page := *res.Result
	page.Text, err = ExtractMainText(page.HTML, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract text", Cause: err}
	}

	if ShouldUseBrowser(page.Text) && f.render != nil {
		html, rerr := f.render(ctx, urlStr)
		if rerr != nil {
			if f.options.Verbose {
				log.Printf("[FETCH] browser fallback failed for %s: %v", urlStr, rerr)
			}
		} else if text, xerr := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...); xerr == nil && len(text) > len(page.Text) {
			page.HTML = html
			page.Text = text
		}
	}
	return &CachedResult{Result: &page, FromCache: res.FromCache}, nil
}

// InvalidateCache drops a cached entry, forcing a re-fetch on next request.
func (f *CachedFetcher) InvalidateCache(urlStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, urlStr)
}

func (f *CachedFetcher) lookup(urlStr string) (cacheEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[urlStr]
	if !ok {
		return cacheEntry{}, false
	}
	if f.now().Sub(entry.fetchedAt) > f.cacheTTL {
		delete(f.entries, urlStr)
		return cacheEntry{}, false
	}
	return entry, true
}

func (f *CachedFetcher) store(urlStr string, entry cacheEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[urlStr] = entry
}
