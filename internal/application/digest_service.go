package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/domain/repository"
)

const (
	ModeCombined   = "combined"
	ModePerArticle = "per_article"

	// ArticleSeparator divides article bodies summarized in one request.
	ArticleSeparator = "\n---END ARTICLE---\n"

	maxWorkers      = 8
	ledgerSaveLimit = 30 * time.Second

	// minArticleBudget is the smallest body share an article gets in a
	// combined request, however many articles the batch holds.
	minArticleBudget = 200
)

// ErrNoArticles is returned by Run when no new article survived filtering and scraping.
var ErrNoArticles = errors.New("no new articles")

type DigestConfig struct {
	ChatTarget           string
	Mode                 string
	Workers              int
	TaskTimeout          time.Duration
	BatchTimeout         time.Duration
	MaxArticlesPerSource int
	// MaxInput is the summarizer's input budget in runes. In combined mode it
	// is shared evenly between articles. Zero disables clipping.
	MaxInput int
}

// RunReport summarizes one batch.
type RunReport struct {
	RunID      string
	Sources    int
	Entries    int
	NewEntries int
	Articles   int
	Skipped    int
	Failed     int
	Delivery   entity.DeliveryReport
	Marked     int
	Duration   time.Duration
}

type DigestService struct {
	sources        []entity.Source
	feedRepo       repository.FeedRepository
	contentFetcher repository.ContentFetcher
	summarizerRepo repository.SummarizerRepository
	ledgerRepo     repository.LedgerRepository
	delivery       *DeliveryService
	cfg            DigestConfig
	logger         zerolog.Logger
	now            func() time.Time
}

func NewDigestService(
	sources []entity.Source,
	feedRepo repository.FeedRepository,
	contentFetcher repository.ContentFetcher,
	summarizerRepo repository.SummarizerRepository,
	ledgerRepo repository.LedgerRepository,
	delivery *DeliveryService,
	cfg DigestConfig,
	logger zerolog.Logger,
) *DigestService {
	cfg.Workers = min(max(cfg.Workers, 1), maxWorkers)
	if cfg.Mode == "" {
		cfg.Mode = ModeCombined
	}

	return &DigestService{
		sources:        sources,
		feedRepo:       feedRepo,
		contentFetcher: contentFetcher,
		summarizerRepo: summarizerRepo,
		ledgerRepo:     ledgerRepo,
		delivery:       delivery,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// Run executes one batch: fetch, filter, scrape, summarize, deliver. The
// ledger is saved on every exit path; links are added to it only when every
// chunk of the digest was delivered.
func (s *DigestService) Run(ctx context.Context) (report RunReport, err error) {
	start := s.now()
	report.RunID = uuid.NewString()
	report.Sources = len(s.sources)
	logger := s.logger.With().Str("run_id", report.RunID).Logger()

	if s.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BatchTimeout)
		defer cancel()
	}

	seen := s.ledgerRepo.Load(ctx)
	logger.Info().Int("sources", len(s.sources)).Int("seen", seen.Len()).Msg("batch started")

	defer func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerSaveLimit)
		defer cancel()
		if saveErr := s.ledgerRepo.Save(saveCtx, seen); saveErr != nil {
			logger.Error().Err(saveErr).Msg("failed to save ledger")
		}
		report.Duration = s.now().Sub(start)
		logger.Info().
			Int("articles", report.Articles).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Int("delivered", report.Delivery.Delivered).
			Int("marked", report.Marked).
			Dur("duration", report.Duration).
			Msg("batch finished")
	}()

	entries := s.fetchAll(ctx, logger, &report)
	report.Entries = len(entries)

	fresh := s.filterNew(entries, seen)
	report.NewEntries = len(fresh)

	articles := s.scrapeAll(ctx, fresh, logger, &report)
	report.Articles = len(articles)
	if len(articles) == 0 {
		logger.Info().Msg("no new articles to deliver")
		return report, ErrNoArticles
	}

	summary, included, err := s.summarize(ctx, articles, logger)
	if err != nil {
		s.notifyFailure(ctx, err, logger)
		return report, fmt.Errorf("failed to summarize articles: %w", err)
	}

	digest := s.formatDigest(summary, included)
	report.Delivery, err = s.delivery.Deliver(ctx, s.cfg.ChatTarget, digest)
	if err != nil {
		return report, fmt.Errorf("failed to deliver digest: %w", err)
	}

	if !report.Delivery.Complete() {
		logger.Warn().Int("failed_chunks", report.Delivery.Failed).Msg("digest partially delivered, links left unmarked")
		return report, nil
	}

	for _, a := range included {
		if seen.Add(a.Entry.Link) {
			report.Marked++
		}
	}
	return report, nil
}

func (s *DigestService) fetchAll(ctx context.Context, logger zerolog.Logger, report *RunReport) []*entity.FeedEntry {
	results := make([]entity.ItemResult[[]*entity.FeedEntry], len(s.sources))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, src := range s.sources {
		g.Go(func() error {
			taskCtx, cancel := s.taskContext(ctx)
			defer cancel()

			entries, err := s.feedRepo.Fetch(taskCtx, src)
			if err != nil {
				results[i] = entity.Failed[[]*entity.FeedEntry](src.Name, err)
				return nil
			}
			results[i] = entity.OK(src.Name, entries)
			return nil
		})
	}
	_ = g.Wait()

	var out []*entity.FeedEntry
	for i, r := range results {
		if r.Status != entity.ItemOK {
			report.Failed++
			logger.Warn().Err(r.Err).Str("source", r.Key).Str("url", s.sources[i].URL).Msg("skipping source")
			continue
		}
		logger.Debug().Str("source", r.Key).Int("entries", len(r.Value)).Msg("feed fetched")
		out = append(out, r.Value...)
	}
	return out
}

// filterNew drops entries whose link is in the ledger or already appeared in
// this batch, then keeps the newest MaxArticlesPerSource of each source.
func (s *DigestService) filterNew(entries []*entity.FeedEntry, seen *entity.SeenLinkSet) []*entity.FeedEntry {
	batch := entity.NewSeenLinkSet()
	bySource := make(map[string][]*entity.FeedEntry)
	var order []string

	for _, e := range entries {
		if seen.Contains(e.Link) || !batch.Add(e.Link) {
			continue
		}
		if _, ok := bySource[e.Source]; !ok {
			order = append(order, e.Source)
		}
		bySource[e.Source] = append(bySource[e.Source], e)
	}

	var out []*entity.FeedEntry
	for _, name := range order {
		group := bySource[name]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].IsNewerThan(group[j].Published)
		})
		if n := s.cfg.MaxArticlesPerSource; n > 0 && len(group) > n {
			group = group[:n]
		}
		out = append(out, group...)
	}
	return out
}

func (s *DigestService) scrapeAll(ctx context.Context, entries []*entity.FeedEntry, logger zerolog.Logger, report *RunReport) []*entity.Article {
	results := make([]entity.ItemResult[*entity.Article], len(entries))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, entry := range entries {
		g.Go(func() error {
			taskCtx, cancel := s.taskContext(ctx)
			defer cancel()

			content, err := s.contentFetcher.FetchContent(taskCtx, entry.Link)
			switch {
			case errors.Is(err, repository.ErrContentTooShort):
				results[i] = entity.Skipped[*entity.Article](entry.Link, err)
			case err != nil:
				results[i] = entity.Failed[*entity.Article](entry.Link, err)
			case strings.TrimSpace(content) == "":
				results[i] = entity.Skipped[*entity.Article](entry.Link, errors.New("empty content"))
			default:
				results[i] = entity.OK(entry.Link, entity.NewArticle(entry, content))
			}
			return nil
		})
	}
	_ = g.Wait()

	var articles []*entity.Article
	for _, r := range results {
		switch r.Status {
		case entity.ItemOK:
			articles = append(articles, r.Value)
		case entity.ItemSkipped:
			report.Skipped++
			logger.Info().Err(r.Err).Str("url", r.Key).Msg("article skipped")
		default:
			report.Failed++
			logger.Warn().Err(r.Err).Str("url", r.Key).Msg("article failed")
		}
	}
	return articles
}

func (s *DigestService) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.TaskTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.TaskTimeout)
	}
	return context.WithCancel(ctx)
}

// summarize returns the summary text and the articles it covers.
func (s *DigestService) summarize(ctx context.Context, articles []*entity.Article, logger zerolog.Logger) (string, []*entity.Article, error) {
	if s.summarizerRepo == nil || !s.summarizerRepo.IsEnabled() {
		return excerpts(articles), articles, nil
	}

	if s.cfg.Mode == ModePerArticle {
		return s.summarizeEach(ctx, articles, logger)
	}

	budget := s.articleBudget(articles)
	bodies := make([]string, len(articles))
	for i, a := range articles {
		bodies[i] = a.Entry.Title + "\n" + clipRunes(a.Content, budget)
	}
	summary, err := s.summarizerRepo.Summarize(ctx, strings.Join(bodies, ArticleSeparator), "")
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(summary), articles, nil
}

// articleBudget splits MaxInput so every article of a combined request fits
// ahead of the summarizer's own truncation.
func (s *DigestService) articleBudget(articles []*entity.Article) int {
	if s.cfg.MaxInput <= 0 {
		return 0
	}
	n := len(articles)
	overhead := (n - 1) * utf8.RuneCountInString(ArticleSeparator)
	for _, a := range articles {
		overhead += utf8.RuneCountInString(a.Entry.Title) + 1 + len(clipMarker)
	}
	return max((s.cfg.MaxInput-overhead)/n, minArticleBudget)
}

const clipMarker = "..."

func clipRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + clipMarker
}

func (s *DigestService) summarizeEach(ctx context.Context, articles []*entity.Article, logger zerolog.Logger) (string, []*entity.Article, error) {
	var sections []string
	var included []*entity.Article
	var errs []error

	for _, a := range articles {
		summary, err := s.summarizerRepo.Summarize(ctx, a.Content, a.Entry.Title)
		if err != nil {
			logger.Warn().Err(err).Str("url", a.Entry.Link).Msg("failed to summarize article")
			errs = append(errs, err)
			continue
		}
		a.Summary = strings.TrimSpace(summary)
		included = append(included, a)
		sections = append(sections, fmt.Sprintf("%d. %s\n%s", len(included), a.Entry.Title, a.Summary))
	}

	if len(included) == 0 {
		return "", nil, errors.Join(errs...)
	}
	return strings.Join(sections, "\n\n"), included, nil
}

// excerpts stands in for a summary when summarization is disabled.
func excerpts(articles []*entity.Article) string {
	const excerptLen = 300
	sections := make([]string, len(articles))
	for i, a := range articles {
		text := []rune(a.Content)
		if len(text) > excerptLen {
			text = append(text[:excerptLen], '…')
		}
		sections[i] = fmt.Sprintf("%d. %s\n%s", i+1, a.Entry.Title, string(text))
	}
	return strings.Join(sections, "\n\n")
}

// formatDigest renders plain text; escaping happens once at delivery.
func (s *DigestService) formatDigest(summary string, articles []*entity.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📰 Tóm tắt tin tức %s (%d bài)\n\n", s.now().Format("02/01/2006"), len(articles))
	b.WriteString(summary)
	b.WriteString("\n\nNguồn:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, a.Entry.Title, a.Entry.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *DigestService) notifyFailure(ctx context.Context, cause error, logger zerolog.Logger) {
	text := fmt.Sprintf("⚠️ Không thể tóm tắt tin tức: %v", cause)
	report, err := s.delivery.Deliver(ctx, s.cfg.ChatTarget, text)
	if err != nil || !report.Complete() {
		logger.Error().Err(err).Msg("failed to send failure notification")
	}
}
